// Package repo provides postgres access for projects and images
package repo

import (
	"context"

	"darkroom/internal/modkit/repokit"
	"darkroom/internal/platform/store"
	"darkroom/internal/services/projects/domain"
)

// Repo defines the repository contract for projects
type Repo interface {
	Insert(ctx context.Context, p domain.Project) error
	ByID(ctx context.Context, projectID string) (domain.Project, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Project, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Rename(ctx context.Context, projectID, name string) error
	Delete(ctx context.Context, projectID string) error

	InsertImage(ctx context.Context, img domain.Image) error
	ImagesByProject(ctx context.Context, projectID string) ([]domain.Image, error)
	ImageByID(ctx context.Context, imageID string) (domain.Image, error)
	DeleteImage(ctx context.Context, imageID string) error
	ApplyResult(ctx context.Context, jobID, status, processedPath string) (bool, error)
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	// queries holds the database query methods
	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func scanProject(r repokit.Row) (domain.Project, error) {
	var p domain.Project
	err := r.Scan(&p.ID, &p.OwnerID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanImage(r repokit.Row) (domain.Image, error) {
	var img domain.Image
	err := r.Scan(
		&img.ID,
		&img.ProjectID,
		&img.JobID,
		&img.FileName,
		&img.Status,
		&img.OriginalPath,
		&img.ProcessedPath,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
	return img, err
}

func (r *queries) Insert(ctx context.Context, p domain.Project) error {
	const sql = `
insert into projects (id, owner_id, name, created_at, updated_at)
values ($1, $2, $3, $4, $5)
`
	return store.ExecOne(ctx, r.q, sql, p.ID, p.OwnerID, p.Name, p.CreatedAt, p.UpdatedAt)
}

func (r *queries) ByID(ctx context.Context, projectID string) (domain.Project, error) {
	const sql = `
select id::text, owner_id, name, created_at, updated_at
from projects
where id = $1
`
	return store.One(ctx, r.q, scanProject, sql, projectID)
}

func (r *queries) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Project, error) {
	const sql = `
select id::text, owner_id, name, created_at, updated_at
from projects
where owner_id = $1
order by created_at desc
limit $2 offset $3
`
	return store.Many(ctx, r.q, scanProject, sql, ownerID, limit, offset)
}

func (r *queries) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return store.Scalar[int](ctx, r.q, `select count(*) from projects where owner_id = $1`, ownerID)
}

func (r *queries) Rename(ctx context.Context, projectID, name string) error {
	const sql = `update projects set name = $2, updated_at = now() where id = $1`
	return store.ExecOne(ctx, r.q, sql, projectID, name)
}

func (r *queries) Delete(ctx context.Context, projectID string) error {
	// image rows go first, then the project
	if _, err := store.Exec(ctx, r.q, `delete from images where project_id = $1`, projectID); err != nil {
		return err
	}
	return store.ExecOne(ctx, r.q, `delete from projects where id = $1`, projectID)
}

func (r *queries) InsertImage(ctx context.Context, img domain.Image) error {
	const sql = `
insert into images (id, project_id, job_id, file_name, status, original_path, processed_path, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	return store.ExecOne(ctx, r.q, sql,
		img.ID,
		img.ProjectID,
		img.JobID,
		img.FileName,
		img.Status,
		img.OriginalPath,
		img.ProcessedPath,
		img.CreatedAt,
		img.UpdatedAt,
	)
}

func (r *queries) ImagesByProject(ctx context.Context, projectID string) ([]domain.Image, error) {
	const sql = `
select id::text, project_id::text, job_id::text, file_name, status, original_path, processed_path, created_at, updated_at
from images
where project_id = $1
order by created_at asc
`
	return store.Many(ctx, r.q, scanImage, sql, projectID)
}

func (r *queries) ImageByID(ctx context.Context, imageID string) (domain.Image, error) {
	const sql = `
select id::text, project_id::text, job_id::text, file_name, status, original_path, processed_path, created_at, updated_at
from images
where id = $1
`
	return store.One(ctx, r.q, scanImage, sql, imageID)
}

func (r *queries) DeleteImage(ctx context.Context, imageID string) error {
	return store.ExecOne(ctx, r.q, `delete from images where id = $1`, imageID)
}

// ApplyResult moves the image row for jobID to its terminal status.
// Returns false when no row matched, which happens for unknown or
// already-deleted jobs and is not an error
func (r *queries) ApplyResult(ctx context.Context, jobID, status, processedPath string) (bool, error) {
	const sql = `
update images
set status = $2, processed_path = $3, updated_at = now()
where job_id = $1
`
	tag, err := store.Exec(ctx, r.q, sql, jobID, status, processedPath)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
