package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/portfolio-cms/apiserver/types"
	"github.com/rs/zerolog"
)

// ErrStorageDisabled is returned by image uploads when no object storage
// backend is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	List(ctx context.Context) ([]types.Project, error)
	Get(ctx context.Context, id int) (types.Project, error)
	Create(ctx context.Context, project types.Project) (types.Project, error)
	Update(ctx context.Context, id int, patch types.ProjectPatch) (types.Project, error)
	Delete(ctx context.Context, id int) (types.Project, error)
}

// ImageStore persists uploaded images and resolves their public URL.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	PublicURL(key string) string
}

// ProjectService encapsulates project use-cases.
type ProjectService struct {
	repo   ProjectRepository
	images ImageStore
	logger zerolog.Logger
}

// NewProjectService wires the project store. images may be nil, in which
// case AttachImage returns ErrStorageDisabled.
func NewProjectService(repo ProjectRepository, images ImageStore, logger zerolog.Logger) *ProjectService {
	return &ProjectService{
		repo:   repo,
		images: images,
		logger: logger.With().Str("component", "projects").Logger(),
	}
}

func (s *ProjectService) List(ctx context.Context) ([]types.Project, error) {
	return s.repo.List(ctx)
}

func (s *ProjectService) Get(ctx context.Context, id int) (types.Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProjectService) Create(ctx context.Context, project types.Project) (types.Project, error) {
	return s.repo.Create(ctx, project)
}

func (s *ProjectService) Update(ctx context.Context, id int, patch types.ProjectPatch) (types.Project, error) {
	return s.repo.Update(ctx, id, patch)
}

// Delete removes the project row and then every image stored for it. Image
// cleanup failures are logged and do not fail the delete.
func (s *ProjectService) Delete(ctx context.Context, id int) (types.Project, error) {
	project, err := s.repo.Delete(ctx, id)
	if err != nil || s.images == nil {
		return project, err
	}
	prefix := imagePrefix(id)
	if err := s.images.DeletePrefix(ctx, prefix); err != nil {
		s.logger.Warn().Err(err).Int("project_id", id).Str("prefix", prefix).Msg("failed to remove project images")
	}
	return project, nil
}

// ImageUpload describes an uploaded project image.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AttachImage stores the image under projects/<id>/ and points the project's
// image_url at it. The object is removed again if the row update fails.
func (s *ProjectService) AttachImage(ctx context.Context, id int, upload ImageUpload) (types.Project, error) {
	if s.images == nil {
		return types.Project{}, ErrStorageDisabled
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return types.Project{}, err
	}

	key := imageKey(id, upload.Filename, upload.ContentType)
	if err := s.images.Put(ctx, key, upload.Body, upload.Size, upload.ContentType); err != nil {
		return types.Project{}, fmt.Errorf("upload image: %w", err)
	}

	url := s.images.PublicURL(key)
	project, err := s.repo.Update(ctx, id, types.ProjectPatch{ImageURL: &url})
	if err != nil {
		if delErr := s.images.Delete(ctx, key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned image")
		}
		return types.Project{}, err
	}

	s.logger.Info().Int("project_id", id).Str("key", key).Msg("project image attached")
	return project, nil
}

func imageKey(projectID int, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return imagePrefix(projectID) + uuid.NewString() + ext
}

func imagePrefix(projectID int) string {
	return fmt.Sprintf("projects/%d/", projectID)
}
