package domain

// CreateProjectInput is the body for project creation
type CreateProjectInput struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// RenameProjectInput is the body for renaming a project
type RenameProjectInput struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// ListProjectsInput carries pagination
type ListProjectsInput struct {
	Page     int `json:"page" validate:"omitempty,min=1"`
	PageSize int `json:"page_size" validate:"omitempty,min=1,max=100"`
}

// Normalize applies list defaults and clamps the page size.
// Both the transport and the service normalize through here so the
// envelope page block always matches the executed query
func (in ListProjectsInput) Normalize() ListProjectsInput {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.PageSize < 1 || in.PageSize > 100 {
		in.PageSize = 20
	}
	return in
}

// UploadedImage is one accepted file from a multipart upload
type UploadedImage struct {
	Image Image  `json:"image"`
	JobID string `json:"job_id"`
}
