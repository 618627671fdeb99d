package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"darkroom/internal/core/sanitize"
	"darkroom/internal/modkit/repokit"
	perr "darkroom/internal/platform/errors"
	"darkroom/internal/services/projects/domain"

	"github.com/google/uuid"
)

// AttachImage stores one uploaded file, records it UPLOAD_PENDING and
// publishes a work request for the worker tier. A failed publish surfaces
// to the caller; the row stays pending and the upload can be retried
func (s *Svc) AttachImage(ctx context.Context, ownerID, projectID, fileName string, body io.Reader) (domain.UploadedImage, error) {
	var zero domain.UploadedImage

	name := sanitize.FileName(fileName)
	if name == "" {
		return zero, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "file name required"), "file")
	}

	// ownership gate before any bytes are stored
	if _, err := s.Get(ctx, ownerID, projectID); err != nil {
		return zero, err
	}

	imageID := uuid.NewString()
	jobID := uuid.NewString()

	key := fmt.Sprintf("%s/%s/%s_%s", ownerID, projectID, imageID, name)
	location, err := s.blob.Put(ctx, key, io.LimitReader(body, s.cfg.MaxUploadBytes))
	if err != nil {
		return zero, err
	}

	now := time.Now().UTC()
	img := domain.Image{
		ID:           imageID,
		ProjectID:    projectID,
		JobID:        jobID,
		FileName:     name,
		Status:       domain.StatusUploadPending,
		OriginalPath: location,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = repokit.WithTx(ctx, s.tx, func(q repokit.Queryer) error {
		return s.binder.Bind(q).InsertImage(ctx, img)
	})
	if err != nil {
		// the stored bytes are orphaned, remove them
		_ = s.blob.Delete(ctx, location)
		return zero, err
	}

	ev, err := json.Marshal(domain.WorkRequestEvent{
		JobID:          jobID,
		OwnerID:        ownerID,
		SourceLocation: location,
	})
	if err != nil {
		return zero, perr.Wrap(err, perr.ErrorCodeJSON, "encode work request")
	}
	if err := s.pub.Publish(ctx, s.cfg.WorkTopic, []byte(ownerID), ev); err != nil {
		s.log.Error().Err(err).Str("job_id", jobID).Msg("work request publish failed")
		return zero, err
	}

	s.log.Info().
		Str("project_id", projectID).
		Str("image_id", imageID).
		Str("job_id", jobID).
		Msg("image accepted")
	return domain.UploadedImage{Image: img, JobID: jobID}, nil
}
