// Package service implements the projects CRUD and upload pipeline
package service

import (
	"context"
	"time"

	"darkroom/internal/core/sanitize"
	"darkroom/internal/modkit/repokit"
	"darkroom/internal/platform/bus"
	perr "darkroom/internal/platform/errors"
	"darkroom/internal/platform/logger"
	"darkroom/internal/services/projects/domain"
	"darkroom/internal/services/projects/repo"

	"github.com/google/uuid"
)

// Config carries the service knobs
type Config struct {
	// WorkTopic receives one WorkRequestEvent per uploaded image
	WorkTopic string
	// ResultsTopic is what the applier consumes
	ResultsTopic string
	// MaxUploadBytes bounds one uploaded file
	MaxUploadBytes int64
}

// Svc implements domain.ProjectsPort and domain.ApplierPort
type Svc struct {
	cfg      Config
	tx       repokit.TxRunner
	binder   repokit.Binder[repo.Repo]
	blob     domain.BlobPort
	pub      bus.Publisher
	consumer bus.Consumer
	log      *logger.Logger
}

// New constructs the projects service
func New(tx repokit.TxRunner, binder repokit.Binder[repo.Repo], blob domain.BlobPort,
	pub bus.Publisher, consumer bus.Consumer, cfg Config,
) *Svc {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	return &Svc{
		cfg:      cfg,
		tx:       tx,
		binder:   binder,
		blob:     blob,
		pub:      pub,
		consumer: consumer,
		log:      logger.Named("projects"),
	}
}

var (
	_ domain.ProjectsPort = (*Svc)(nil)
	_ domain.ApplierPort  = (*Svc)(nil)
)

// owned loads the project and enforces ownership
func owned(ctx context.Context, q repo.Repo, ownerID, projectID string) (domain.Project, error) {
	p, err := q.ByID(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	if p.OwnerID != ownerID {
		return domain.Project{}, perr.Forbiddenf("project belongs to another user")
	}
	return p, nil
}

// Create inserts a project for ownerID
func (s *Svc) Create(ctx context.Context, ownerID, name string) (domain.Project, error) {
	name = sanitize.Name(name)
	if name == "" {
		return domain.Project{}, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "name required"), "name")
	}

	now := time.Now().UTC()
	p := domain.Project{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		return s.binder.Bind(q).Insert(ctx, p)
	})
	if err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// List returns one page of the owner's projects plus the total count
func (s *Svc) List(ctx context.Context, ownerID string, page, size int) ([]domain.Project, int, error) {
	in := domain.ListProjectsInput{Page: page, PageSize: size}.Normalize()
	page, size = in.Page, in.PageSize

	var out []domain.Project
	var total int
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		if out, err = r.ListByOwner(ctx, ownerID, size, (page-1)*size); err != nil {
			return err
		}
		total, err = r.CountByOwner(ctx, ownerID)
		return err
	})
	return out, total, err
}

// Get returns one owned project
func (s *Svc) Get(ctx context.Context, ownerID, projectID string) (domain.Project, error) {
	var p domain.Project
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		var err error
		p, err = owned(ctx, s.binder.Bind(q), ownerID, projectID)
		return err
	})
	return p, err
}

// Rename updates the project name
func (s *Svc) Rename(ctx context.Context, ownerID, projectID, name string) (domain.Project, error) {
	name = sanitize.Name(name)
	if name == "" {
		return domain.Project{}, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "name required"), "name")
	}

	var p domain.Project
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		var err error
		if p, err = owned(ctx, r, ownerID, projectID); err != nil {
			return err
		}
		if err = r.Rename(ctx, projectID, name); err != nil {
			return err
		}
		p.Name = name
		return nil
	})
	return p, err
}

// Delete removes the project, its image rows and stored blobs
func (s *Svc) Delete(ctx context.Context, ownerID, projectID string) error {
	var imgs []domain.Image
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if _, err := owned(ctx, r, ownerID, projectID); err != nil {
			return err
		}
		var err error
		if imgs, err = r.ImagesByProject(ctx, projectID); err != nil {
			return err
		}
		return r.Delete(ctx, projectID)
	})
	if err != nil {
		return err
	}

	// blob cleanup is best effort after the rows are gone
	for _, img := range imgs {
		if err := s.blob.Delete(ctx, img.OriginalPath); err != nil {
			s.log.Warn().Err(err).Str("image_id", img.ID).Msg("blob cleanup failed")
		}
	}
	return nil
}

// Images lists the images of one owned project
func (s *Svc) Images(ctx context.Context, ownerID, projectID string) ([]domain.Image, error) {
	var out []domain.Image
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if _, err := owned(ctx, r, ownerID, projectID); err != nil {
			return err
		}
		var err error
		out, err = r.ImagesByProject(ctx, projectID)
		return err
	})
	return out, err
}

// DeleteImage removes one image row and its blob
func (s *Svc) DeleteImage(ctx context.Context, ownerID, projectID, imageID string) error {
	var img domain.Image
	err := repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if _, err := owned(ctx, r, ownerID, projectID); err != nil {
			return err
		}
		var err error
		if img, err = r.ImageByID(ctx, imageID); err != nil {
			return err
		}
		if img.ProjectID != projectID {
			return perr.NotFoundf("image not in project")
		}
		return r.DeleteImage(ctx, imageID)
	})
	if err != nil {
		return err
	}

	if err := s.blob.Delete(ctx, img.OriginalPath); err != nil {
		s.log.Warn().Err(err).Str("image_id", img.ID).Msg("blob cleanup failed")
	}
	return nil
}
