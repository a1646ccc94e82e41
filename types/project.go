package types

import "time"

// Project is a portfolio entry shown on the public site.
type Project struct {
	// ID is the unique identifier of the project.
	ID int `json:"id" db:"id"`

	// Title is the human-readable name of the project.
	Title string `json:"title" db:"title"`

	// Description is the long-form summary shown on the project card.
	Description string `json:"description" db:"description"`

	// Technologies lists the stack used, in display order.
	Technologies []string `json:"technologies" db:"technologies"`

	// GithubURL, LiveURL and ImageURL are optional links; nil when unset.
	GithubURL *string `json:"github_url" db:"github_url"`
	LiveURL   *string `json:"live_url" db:"live_url"`
	ImageURL  *string `json:"image_url" db:"image_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectPatch enumerates the mutable project columns. Nil fields are left
// untouched; a non-nil empty URL clears the column.
type ProjectPatch struct {
	Title        *string
	Description  *string
	Technologies *[]string
	GithubURL    *string
	LiveURL      *string
	ImageURL     *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ProjectPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Technologies == nil &&
		p.GithubURL == nil && p.LiveURL == nil && p.ImageURL == nil
}
