// Package blogger reads the public blog feed from the Blogger v3 API.
package blogger

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/portfolio-cms/apiserver/config"
	"github.com/portfolio-cms/apiserver/types"
	"github.com/rs/zerolog"
	bloggerapi "google.golang.org/api/blogger/v3"
	"google.golang.org/api/option"
)

const (
	excerptLength     = 300
	defaultMaxResults = 20
)

var stripPolicy = bluemonday.StrictPolicy()

// Client lists posts of a single blog.
type Client struct {
	service    *bloggerapi.Service
	blogID     string
	maxResults int64
}

// New builds a client for cfg. Extra options are appended after the API key,
// which lets tests point the client at a local endpoint.
func New(ctx context.Context, cfg config.BloggerConfig, opts ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.BlogID) == "" {
		return nil, errors.New("blogger api key and blog id are required")
	}

	options := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	service, err := bloggerapi.NewService(ctx, options...)
	if err != nil {
		return nil, err
	}

	return &Client{
		service:    service,
		blogID:     cfg.BlogID,
		maxResults: defaultMaxResults,
	}, nil
}

// Posts returns the newest live posts shaped as feed entries.
func (c *Client) Posts(ctx context.Context) ([]types.FeedPost, error) {
	list, err := c.service.Posts.List(c.blogID).
		MaxResults(c.maxResults).
		FetchBodies(true).
		Status("live").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list blogger posts: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	posts := make([]types.FeedPost, 0, len(list.Items))
	for _, item := range list.Items {
		if item == nil {
			continue
		}
		published, err := postTime(item)
		if err != nil {
			logger.Warn().Err(err).Str("post_id", item.Id).Msg("blogger post has no usable timestamp")
		}
		tags := item.Labels
		if tags == nil {
			tags = []string{}
		}
		posts = append(posts, types.FeedPost{
			ID:        item.Id,
			Title:     item.Title,
			Excerpt:   Excerpt(item.Content),
			Tags:      tags,
			CreatedAt: published,
		})
	}
	return posts, nil
}

// postTime reads the publish time, falling back to the last update. The zero
// time is returned with the parse error when neither is valid.
func postTime(item *bloggerapi.Post) (time.Time, error) {
	published, err := time.Parse(time.RFC3339, item.Published)
	if err == nil {
		return published, nil
	}
	if updated, updErr := time.Parse(time.RFC3339, item.Updated); updErr == nil {
		return updated, nil
	}
	return time.Time{}, fmt.Errorf("parse published %q: %w", item.Published, err)
}

// Excerpt strips markup from body and returns its first 300 runes followed
// by "...". An empty body yields an empty excerpt.
func Excerpt(body string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(body))
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) > excerptLength {
		runes = runes[:excerptLength]
	}
	return string(runes) + "..."
}
