package store

import (
	"context"
	"database/sql"

	"github.com/portfolio-cms/apiserver/types"
)

const contactColumns = `id, name, email, message, read, created_at`

// ContactRepository handles persistence for contact messages.
type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func scanContact(row rowScanner) (types.Contact, error) {
	var contact types.Contact
	err := row.Scan(
		&contact.ID,
		&contact.Name,
		&contact.Email,
		&contact.Message,
		&contact.Read,
		&contact.CreatedAt,
	)
	return contact, err
}

func (r *ContactRepository) List(ctx context.Context) ([]types.Contact, error) {
	const query = `
		SELECT ` + contactColumns + `
		FROM contacts
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scanContact)
}

func (r *ContactRepository) Get(ctx context.Context, id int) (types.Contact, error) {
	const query = `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id), scanContact)
}

func (r *ContactRepository) CountUnread(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(1) FROM contacts WHERE read = FALSE`
	var total int
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *ContactRepository) Create(ctx context.Context, contact types.Contact) (types.Contact, error) {
	const query = `
		INSERT INTO contacts (name, email, message, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING ` + contactColumns
	row := r.db.QueryRowContext(ctx, query, contact.Name, contact.Email, contact.Message)
	return scanOne(row, scanContact)
}

func (r *ContactRepository) MarkRead(ctx context.Context, id int) (types.Contact, error) {
	const query = `UPDATE contacts SET read = TRUE WHERE id = $1 RETURNING ` + contactColumns
	return scanOne(r.db.QueryRowContext(ctx, query, id), scanContact)
}

func (r *ContactRepository) Delete(ctx context.Context, id int) (types.Contact, error) {
	const query = `DELETE FROM contacts WHERE id = $1 RETURNING ` + contactColumns
	return scanOne(r.db.QueryRowContext(ctx, query, id), scanContact)
}
