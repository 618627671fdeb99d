// Package http provides http transport for projects
package http

import (
	stdhttp "net/http"
	"strconv"

	"darkroom/internal/modkit/httpkit"
	perr "darkroom/internal/platform/errors"
	"darkroom/internal/services/projects/domain"
)

// Register mounts project endpoints on the given router
func Register(r httpkit.Router, s domain.ProjectsPort) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.CreateProjectInput](r, "/", h.create)
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{projectID}", h.get)
	httpkit.PatchJSON[domain.RenameProjectInput](r, "/{projectID}", h.rename)
	httpkit.Delete(r, "/{projectID}", h.remove)

	httpkit.Get(r, "/{projectID}/images", h.images)
	r.Post("/{projectID}/images", httpkit.Handle(h.upload))
	httpkit.Delete(r, "/{projectID}/images/{imageID}", h.removeImage)
}

type handlers struct{ svc domain.ProjectsPort }

// @Summary Create a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param payload body domain.CreateProjectInput true "Project"
// @Success 201 {object} domain.Project "created"
// @Router /projects [post]
func (h *handlers) create(r *stdhttp.Request, in domain.CreateProjectInput) (any, error) {
	p, err := h.svc.Create(r.Context(), httpkit.MustUser(r), in.Name)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(p), nil
}

// @Summary List the caller's projects
// @Tags Projects
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {array} domain.Project "ok"
// @Router /projects [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	in := domain.ListProjectsInput{Page: page, PageSize: size}.Normalize()

	items, total, err := h.svc.List(r.Context(), httpkit.MustUser(r), in.Page, in.PageSize)
	if err != nil {
		return nil, err
	}
	return httpkit.List(items, total, in.Page, in.PageSize), nil
}

// @Summary Get one project
// @Tags Projects
// @Produce json
// @Param projectID path string true "Project id"
// @Success 200 {object} domain.Project "ok"
// @Router /projects/{projectID} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), httpkit.MustUser(r), httpkit.Param(r, "projectID"))
}

// @Summary Rename a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param projectID path string true "Project id"
// @Param payload body domain.RenameProjectInput true "New name"
// @Success 200 {object} domain.Project "ok"
// @Router /projects/{projectID} [patch]
func (h *handlers) rename(r *stdhttp.Request, in domain.RenameProjectInput) (any, error) {
	return h.svc.Rename(r.Context(), httpkit.MustUser(r), httpkit.Param(r, "projectID"), in.Name)
}

// @Summary Delete a project and its images
// @Tags Projects
// @Param projectID path string true "Project id"
// @Success 204 "deleted"
// @Router /projects/{projectID} [delete]
func (h *handlers) remove(r *stdhttp.Request) (any, error) {
	if err := h.svc.Delete(r.Context(), httpkit.MustUser(r), httpkit.Param(r, "projectID")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// @Summary List project images
// @Tags Images
// @Produce json
// @Param projectID path string true "Project id"
// @Success 200 {array} domain.Image "ok"
// @Router /projects/{projectID}/images [get]
func (h *handlers) images(r *stdhttp.Request) (any, error) {
	return h.svc.Images(r.Context(), httpkit.MustUser(r), httpkit.Param(r, "projectID"))
}

// @Summary Upload images for processing
// @Tags Images
// @Accept mpfd
// @Produce json
// @Param projectID path string true "Project id"
// @Param files formData file true "Image files"
// @Success 201 {array} domain.UploadedImage "accepted"
// @Router /projects/{projectID}/images [post]
func (h *handlers) upload(r *stdhttp.Request) httpkit.Response {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return httpkit.Error(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "bad multipart body"))
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		return httpkit.Error(perr.WithField(perr.Newf(perr.ErrorCodeValidation, "no files in upload"), "files"))
	}

	ownerID := httpkit.MustUser(r)
	projectID := httpkit.Param(r, "projectID")

	out := make([]domain.UploadedImage, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return httpkit.Error(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "unreadable file part"))
		}
		up, err := h.svc.AttachImage(r.Context(), ownerID, projectID, fh.Filename, f)
		_ = f.Close()
		if err != nil {
			return httpkit.Error(err)
		}
		out = append(out, up)
	}
	return httpkit.Created(out)
}

// @Summary Delete one image
// @Tags Images
// @Param projectID path string true "Project id"
// @Param imageID path string true "Image id"
// @Success 204 "deleted"
// @Router /projects/{projectID}/images/{imageID} [delete]
func (h *handlers) removeImage(r *stdhttp.Request) (any, error) {
	if err := h.svc.DeleteImage(r.Context(), httpkit.MustUser(r), httpkit.Param(r, "projectID"), httpkit.Param(r, "imageID")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}
