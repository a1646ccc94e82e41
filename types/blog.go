package types

import "time"

// BlogPost is a locally managed article. Only published posts are visible
// through public routes.
type BlogPost struct {
	// ID is the unique identifier of the post.
	ID int `json:"id" db:"id"`

	// Title is the headline of the post.
	Title string `json:"title" db:"title"`

	// Content is the full body of the post.
	Content string `json:"content" db:"content"`

	// Excerpt is the short teaser shown in listings.
	Excerpt string `json:"excerpt" db:"excerpt"`

	// Tags are free-form labels used for categorization.
	Tags []string `json:"tags" db:"tags"`

	// Published gates public visibility.
	Published bool `json:"published" db:"published"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BlogPostPatch enumerates the mutable blog post columns.
type BlogPostPatch struct {
	Title     *string
	Content   *string
	Excerpt   *string
	Tags      *[]string
	Published *bool
}

func (p BlogPostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Excerpt == nil &&
		p.Tags == nil && p.Published == nil
}

// BlogListFilter narrows List results.
type BlogListFilter struct {
	PublishedOnly bool
}

// FeedPost is the public listing shape shared by the external feed and the
// local fallback. IDs are strings because external IDs are opaque.
type FeedPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}
