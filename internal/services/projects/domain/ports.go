package domain

import (
	"context"
	"io"
)

// ProjectsPort is the CRUD surface other modules and transports use
type ProjectsPort interface {
	Create(ctx context.Context, ownerID, name string) (Project, error)
	List(ctx context.Context, ownerID string, page, size int) ([]Project, int, error)
	Get(ctx context.Context, ownerID, projectID string) (Project, error)
	Rename(ctx context.Context, ownerID, projectID, name string) (Project, error)
	Delete(ctx context.Context, ownerID, projectID string) error

	Images(ctx context.Context, ownerID, projectID string) ([]Image, error)
	AttachImage(ctx context.Context, ownerID, projectID, fileName string, body io.Reader) (UploadedImage, error)
	DeleteImage(ctx context.Context, ownerID, projectID, imageID string) error
}

// ApplierPort moves image rows when worker results arrive
type ApplierPort interface {
	Apply(ctx context.Context, payload []byte) error
	Run(ctx context.Context) error
}

// BlobPort is the object storage boundary. Put stores the bytes under key
// and returns the stored location
type BlobPort interface {
	Put(ctx context.Context, key string, body io.Reader) (string, error)
	Delete(ctx context.Context, location string) error
}
