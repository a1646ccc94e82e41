package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/portfolio-cms/apiserver/types"
)

const blogColumns = `id, title, content, excerpt, tags, published, created_at, updated_at`

// BlogPostRepository handles persistence for blog posts.
type BlogPostRepository struct {
	db *sql.DB
}

func NewBlogPostRepository(db *sql.DB) *BlogPostRepository {
	return &BlogPostRepository{db: db}
}

func scanBlogPost(row rowScanner) (types.BlogPost, error) {
	var post types.BlogPost
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.Excerpt,
		pq.Array(&post.Tags),
		&post.Published,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	return post, err
}

func (r *BlogPostRepository) List(ctx context.Context, filter types.BlogListFilter) ([]types.BlogPost, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blog_posts`
	if filter.PublishedOnly {
		query += `
		WHERE published = TRUE`
	}
	query += `
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanBlogPost)
}

func (r *BlogPostRepository) Get(ctx context.Context, id int) (types.BlogPost, error) {
	const query = `
		SELECT ` + blogColumns + `
		FROM blog_posts
		WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id), scanBlogPost)
}

func (r *BlogPostRepository) Create(ctx context.Context, post types.BlogPost) (types.BlogPost, error) {
	const query = `
		INSERT INTO blog_posts (title, content, excerpt, tags, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + blogColumns
	row := r.db.QueryRowContext(
		ctx,
		query,
		post.Title,
		post.Content,
		post.Excerpt,
		pq.Array(nonNilStrings(post.Tags)),
		post.Published,
	)
	return scanOne(row, scanBlogPost)
}

func (r *BlogPostRepository) Update(ctx context.Context, id int, patch types.BlogPostPatch) (types.BlogPost, error) {
	b := newUpdateBuilder("blog_posts", "title", "content", "excerpt", "tags", "published")
	if patch.Title != nil {
		b.set("title", *patch.Title)
	}
	if patch.Content != nil {
		b.set("content", *patch.Content)
	}
	if patch.Excerpt != nil {
		b.set("excerpt", *patch.Excerpt)
	}
	if patch.Tags != nil {
		b.set("tags", pq.Array(nonNilStrings(*patch.Tags)))
	}
	if patch.Published != nil {
		b.set("published", *patch.Published)
	}

	query, args, err := b.build(id, blogColumns)
	if err != nil {
		return types.BlogPost{}, err
	}
	return scanOne(r.db.QueryRowContext(ctx, query, args...), scanBlogPost)
}

func (r *BlogPostRepository) Delete(ctx context.Context, id int) (types.BlogPost, error) {
	const query = `DELETE FROM blog_posts WHERE id = $1 RETURNING ` + blogColumns
	return scanOne(r.db.QueryRowContext(ctx, query, id), scanBlogPost)
}
