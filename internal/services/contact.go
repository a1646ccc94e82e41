package services

import (
	"context"

	"github.com/portfolio-cms/apiserver/types"
	"github.com/rs/zerolog"
)

// ContactRepository defines persistence operations for contact messages.
type ContactRepository interface {
	List(ctx context.Context) ([]types.Contact, error)
	Get(ctx context.Context, id int) (types.Contact, error)
	CountUnread(ctx context.Context) (int, error)
	Create(ctx context.Context, contact types.Contact) (types.Contact, error)
	MarkRead(ctx context.Context, id int) (types.Contact, error)
	Delete(ctx context.Context, id int) (types.Contact, error)
}

// ContactPublisher announces stored submissions to downstream consumers.
type ContactPublisher interface {
	PublishContact(ctx context.Context, event types.ContactEvent) error
}

// Inbox is the admin view of received messages.
type Inbox struct {
	Items  []types.Contact `json:"items"`
	Unread int             `json:"unread"`
}

// ContactService encapsulates contact-form use-cases.
type ContactService struct {
	repo      ContactRepository
	publisher ContactPublisher
	logger    zerolog.Logger
}

// NewContactService wires the contact store. publisher may be nil.
func NewContactService(repo ContactRepository, publisher ContactPublisher, logger zerolog.Logger) *ContactService {
	return &ContactService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With().Str("component", "contact").Logger(),
	}
}

// Submit stores the message. The database write decides the outcome; the
// event publish that follows is best effort.
func (s *ContactService) Submit(ctx context.Context, contact types.Contact) (types.Contact, error) {
	created, err := s.repo.Create(ctx, contact)
	if err != nil {
		return types.Contact{}, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishContact(ctx, types.NewContactEvent(created)); err != nil {
			s.logger.Warn().Err(err).Int("contact_id", created.ID).Msg("failed to publish contact event")
		}
	}
	return created, nil
}

func (s *ContactService) Inbox(ctx context.Context) (Inbox, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return Inbox{}, err
	}
	unread, err := s.repo.CountUnread(ctx)
	if err != nil {
		return Inbox{}, err
	}
	return Inbox{Items: items, Unread: unread}, nil
}

func (s *ContactService) Get(ctx context.Context, id int) (types.Contact, error) {
	return s.repo.Get(ctx, id)
}

func (s *ContactService) MarkRead(ctx context.Context, id int) (types.Contact, error) {
	return s.repo.MarkRead(ctx, id)
}

func (s *ContactService) Delete(ctx context.Context, id int) (types.Contact, error) {
	return s.repo.Delete(ctx, id)
}
