package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/portfolio-cms/apiserver/internal/store"
	"github.com/portfolio-cms/apiserver/types"
	"github.com/rs/zerolog"
)

// BlogPostRepository defines persistence operations for blog posts.
type BlogPostRepository interface {
	List(ctx context.Context, filter types.BlogListFilter) ([]types.BlogPost, error)
	Get(ctx context.Context, id int) (types.BlogPost, error)
	Create(ctx context.Context, post types.BlogPost) (types.BlogPost, error)
	Update(ctx context.Context, id int, patch types.BlogPostPatch) (types.BlogPost, error)
	Delete(ctx context.Context, id int) (types.BlogPost, error)
}

// FeedSource supplies the public blog listing from an external platform.
type FeedSource interface {
	Posts(ctx context.Context) ([]types.FeedPost, error)
}

// BlogService encapsulates blog use-cases.
type BlogService struct {
	repo   BlogPostRepository
	feed   FeedSource
	logger zerolog.Logger
}

// NewBlogService wires the blog store. feed may be nil, in which case the
// public feed is built from local published posts.
func NewBlogService(repo BlogPostRepository, feed FeedSource, logger zerolog.Logger) *BlogService {
	return &BlogService{
		repo:   repo,
		feed:   feed,
		logger: logger.With().Str("component", "blog").Logger(),
	}
}

// Feed returns the public listing.
func (s *BlogService) Feed(ctx context.Context) ([]types.FeedPost, error) {
	if s.feed != nil {
		posts, err := s.feed.Posts(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch external feed: %w", err)
		}
		return posts, nil
	}

	posts, err := s.repo.List(ctx, types.BlogListFilter{PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	feed := make([]types.FeedPost, 0, len(posts))
	for _, post := range posts {
		feed = append(feed, types.FeedPost{
			ID:        strconv.Itoa(post.ID),
			Title:     post.Title,
			Excerpt:   post.Excerpt,
			Tags:      post.Tags,
			CreatedAt: post.CreatedAt,
		})
	}
	return feed, nil
}

// GetPublished returns a post only if it is published. Drafts are reported
// as store.ErrNotFound.
func (s *BlogService) GetPublished(ctx context.Context, id int) (types.BlogPost, error) {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.BlogPost{}, err
	}
	if !post.Published {
		return types.BlogPost{}, store.ErrNotFound
	}
	return post, nil
}

// ListAll returns every post including drafts.
func (s *BlogService) ListAll(ctx context.Context) ([]types.BlogPost, error) {
	return s.repo.List(ctx, types.BlogListFilter{})
}

func (s *BlogService) Get(ctx context.Context, id int) (types.BlogPost, error) {
	return s.repo.Get(ctx, id)
}

func (s *BlogService) Create(ctx context.Context, post types.BlogPost) (types.BlogPost, error) {
	return s.repo.Create(ctx, post)
}

func (s *BlogService) Update(ctx context.Context, id int, patch types.BlogPostPatch) (types.BlogPost, error) {
	return s.repo.Update(ctx, id, patch)
}

func (s *BlogService) Delete(ctx context.Context, id int) (types.BlogPost, error) {
	return s.repo.Delete(ctx, id)
}
