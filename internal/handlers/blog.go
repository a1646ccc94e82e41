package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portfolio-cms/apiserver/internal/auth"
	"github.com/portfolio-cms/apiserver/internal/middleware"
	"github.com/portfolio-cms/apiserver/internal/services"
	"github.com/portfolio-cms/apiserver/types"
)

const postNotFound = "Post not found"

// BlogHandler provides HTTP handlers for the blog.
type BlogHandler struct {
	responder
	blogService *services.BlogService
}

func NewBlogHandler(blogService *services.BlogService, exposeDetail bool) *BlogHandler {
	return &BlogHandler{
		responder:   responder{exposeDetail: exposeDetail},
		blogService: blogService,
	}
}

// BlogRouter registers blog routes. The public side sees the feed and
// published posts; admin routes see drafts too.
func BlogRouter(r chi.Router, blogService *services.BlogService, requireAuth func(http.Handler) http.Handler, exposeDetail bool) {
	handler := NewBlogHandler(blogService, exposeDetail)

	r.Get("/", handler.Feed)
	r.Get("/{id}", handler.GetPublished)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth, middleware.RequireCapability(auth.CapManagePosts))
		r.Get("/admin/all", handler.ListAll)
		r.Get("/admin/{id}", handler.Get)
		r.Post("/", handler.Create)
		r.Put("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)
	})
}

type BlogPostCreateRequest struct {
	Title     string   `json:"title" validate:"required,max=200"`
	Content   string   `json:"content" validate:"required,min=50"`
	Excerpt   string   `json:"excerpt" validate:"required,min=10,max=300"`
	Tags      []string `json:"tags" validate:"required,dive,required"`
	Published *bool    `json:"published"`
}

// BlogPostUpdateRequest accepts any subset of the create fields.
type BlogPostUpdateRequest struct {
	Title     *string   `json:"title" validate:"omitnil,min=1,max=200"`
	Content   *string   `json:"content" validate:"omitnil,min=50"`
	Excerpt   *string   `json:"excerpt" validate:"omitnil,min=10,max=300"`
	Tags      *[]string `json:"tags" validate:"omitnil,dive,required"`
	Published *bool     `json:"published"`
}

func (h *BlogHandler) Feed(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blogService.Feed(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *BlogHandler) GetPublished(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	post, err := h.blogService.GetPublished(r.Context(), id)
	if err != nil {
		h.fail(w, r, orNotFound(err, postNotFound))
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *BlogHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blogService.ListAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	post, err := h.blogService.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, orNotFound(err, postNotFound))
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BlogPostCreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	post := types.BlogPost{
		Title:   req.Title,
		Content: req.Content,
		Excerpt: req.Excerpt,
		Tags:    req.Tags,
	}
	if req.Published != nil {
		post.Published = *req.Published
	}

	created, err := h.blogService.Create(r.Context(), post)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req BlogPostUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	post, err := h.blogService.Update(r.Context(), id, types.BlogPostPatch{
		Title:     req.Title,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Tags:      req.Tags,
		Published: req.Published,
	})
	if err != nil {
		h.fail(w, r, orNotFound(err, postNotFound))
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.blogService.Delete(r.Context(), id); err != nil {
		h.fail(w, r, orNotFound(err, postNotFound))
		return
	}
	writeMessage(w, "Post deleted successfully")
}
