package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/portfolio-cms/apiserver/internal/auth"
	"github.com/portfolio-cms/apiserver/internal/middleware"
	"github.com/portfolio-cms/apiserver/internal/services"
	"github.com/portfolio-cms/apiserver/internal/validation"
	"github.com/portfolio-cms/apiserver/types"
)

const (
	// MaxImageBytes caps a single project image upload.
	MaxImageBytes      = 5 << 20
	maxMultipartMemory = 8 << 20
	formFieldImage     = "image"
	projectNotFound    = "Project not found"
)

// ProjectHandler provides HTTP handlers for portfolio projects.
type ProjectHandler struct {
	responder
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService, exposeDetail bool) *ProjectHandler {
	return &ProjectHandler{
		responder:      responder{exposeDetail: exposeDetail},
		projectService: projectService,
	}
}

// ProjectRouter registers project routes. Reads are public; writes need
// the project management capability.
func ProjectRouter(r chi.Router, projectService *services.ProjectService, requireAuth func(http.Handler) http.Handler, exposeDetail bool) {
	handler := NewProjectHandler(projectService, exposeDetail)

	r.Get("/", handler.List)
	r.Get("/{id}", handler.Get)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth, middleware.RequireCapability(auth.CapManageProjects))
		r.Post("/", handler.Create)
		r.Put("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)
		r.Put("/{id}/image", handler.UploadImage)
	})
}

type ProjectCreateRequest struct {
	Title        string   `json:"title" validate:"required,max=100"`
	Description  string   `json:"description" validate:"required,min=10,max=1000"`
	Technologies []string `json:"technologies" validate:"required,dive,required"`
	GithubURL    *string  `json:"githubUrl" validate:"omitnil,urlorempty"`
	LiveURL      *string  `json:"liveUrl" validate:"omitnil,urlorempty"`
	ImageURL     *string  `json:"imageUrl" validate:"omitnil,urlorempty"`
}

// ProjectUpdateRequest accepts any subset of the create fields.
type ProjectUpdateRequest struct {
	Title        *string   `json:"title" validate:"omitnil,min=1,max=100"`
	Description  *string   `json:"description" validate:"omitnil,min=10,max=1000"`
	Technologies *[]string `json:"technologies" validate:"omitnil,dive,required"`
	GithubURL    *string   `json:"githubUrl" validate:"omitnil,urlorempty"`
	LiveURL      *string   `json:"liveUrl" validate:"omitnil,urlorempty"`
	ImageURL     *string   `json:"imageUrl" validate:"omitnil,urlorempty"`
}

func (req ProjectUpdateRequest) patch() types.ProjectPatch {
	return types.ProjectPatch{
		Title:        req.Title,
		Description:  req.Description,
		Technologies: req.Technologies,
		GithubURL:    req.GithubURL,
		LiveURL:      req.LiveURL,
		ImageURL:     req.ImageURL,
	}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	project, err := h.projectService.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, orNotFound(err, projectNotFound))
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProjectCreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	project, err := h.projectService.Create(r.Context(), types.Project{
		Title:        req.Title,
		Description:  req.Description,
		Technologies: req.Technologies,
		GithubURL:    req.GithubURL,
		LiveURL:      req.LiveURL,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req ProjectUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	project, err := h.projectService.Update(r.Context(), id, req.patch())
	if err != nil {
		h.fail(w, r, orNotFound(err, projectNotFound))
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.projectService.Delete(r.Context(), id); err != nil {
		h.fail(w, r, orNotFound(err, projectNotFound))
		return
	}
	writeMessage(w, "Project deleted successfully")
}

// UploadImage accepts a multipart form with a single "image" file.
func (h *ProjectHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, &HTTPError{Status: http.StatusRequestEntityTooLarge, Message: "Request body too large"})
			return
		}
		h.fail(w, r, validation.New(formFieldImage, `"image" must be sent as multipart/form-data`))
		return
	}

	upload, err := parseImageFile(r.MultipartForm)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	project, err := h.projectService.AttachImage(r.Context(), id, upload)
	if err != nil {
		h.fail(w, r, orNotFound(err, projectNotFound))
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func parseImageFile(form *multipart.Form) (services.ImageUpload, error) {
	if form == nil {
		return services.ImageUpload{}, validation.New(formFieldImage, `"image" is required`)
	}
	files := form.File[formFieldImage]
	if len(files) == 0 {
		return services.ImageUpload{}, validation.New(formFieldImage, `"image" is required`)
	}
	if len(files) > 1 {
		return services.ImageUpload{}, validation.New(formFieldImage, `"image" must be a single file`)
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("open upload: %w", err)
	}
	data, err := readFileLimited(file, MaxImageBytes)
	_ = file.Close()
	if err != nil {
		return services.ImageUpload{}, err
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return services.ImageUpload{}, validation.New(formFieldImage, `"image" must be an image file`)
	}

	return services.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	}, nil
}

var errUploadTooLarge = validation.New(formFieldImage, `"image" must be at most 5 MB`)

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errUploadTooLarge
	}
	return data, nil
}
