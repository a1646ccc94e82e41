package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/portfolio-cms/apiserver/types"
)

const projectColumns = `id, title, description, technologies, github_url, live_url, image_url, created_at, updated_at`

// ProjectRepository handles persistence for projects.
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func scanProject(row rowScanner) (types.Project, error) {
	var project types.Project
	err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		pq.Array(&project.Technologies),
		&project.GithubURL,
		&project.LiveURL,
		&project.ImageURL,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	return project, err
}

func (r *ProjectRepository) List(ctx context.Context) ([]types.Project, error) {
	const query = `
		SELECT ` + projectColumns + `
		FROM projects
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanProject)
}

func (r *ProjectRepository) Get(ctx context.Context, id int) (types.Project, error) {
	const query = `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id), scanProject)
}

func (r *ProjectRepository) Create(ctx context.Context, project types.Project) (types.Project, error) {
	const query = `
		INSERT INTO projects (title, description, technologies, github_url, live_url, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING ` + projectColumns
	row := r.db.QueryRowContext(
		ctx,
		query,
		project.Title,
		project.Description,
		pq.Array(nonNilStrings(project.Technologies)),
		nullableString(project.GithubURL),
		nullableString(project.LiveURL),
		nullableString(project.ImageURL),
	)
	return scanOne(row, scanProject)
}

// Update rewrites the columns named by patch plus updated_at.
func (r *ProjectRepository) Update(ctx context.Context, id int, patch types.ProjectPatch) (types.Project, error) {
	b := newUpdateBuilder("projects", "title", "description", "technologies", "github_url", "live_url", "image_url")
	if patch.Title != nil {
		b.set("title", *patch.Title)
	}
	if patch.Description != nil {
		b.set("description", *patch.Description)
	}
	if patch.Technologies != nil {
		b.set("technologies", pq.Array(nonNilStrings(*patch.Technologies)))
	}
	if patch.GithubURL != nil {
		b.set("github_url", nullableString(patch.GithubURL))
	}
	if patch.LiveURL != nil {
		b.set("live_url", nullableString(patch.LiveURL))
	}
	if patch.ImageURL != nil {
		b.set("image_url", nullableString(patch.ImageURL))
	}

	query, args, err := b.build(id, projectColumns)
	if err != nil {
		return types.Project{}, err
	}
	return scanOne(r.db.QueryRowContext(ctx, query, args...), scanProject)
}

// Delete removes the project and returns the deleted row.
func (r *ProjectRepository) Delete(ctx context.Context, id int) (types.Project, error) {
	const query = `DELETE FROM projects WHERE id = $1 RETURNING ` + projectColumns
	return scanOne(r.db.QueryRowContext(ctx, query, id), scanProject)
}
