package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/portfolio-cms/apiserver/config"
	"github.com/portfolio-cms/apiserver/types"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body string
}

type recordingSender struct {
	sent []sentMail
	err  error
}

func (s *recordingSender) Send(_ context.Context, to, subject, body string) error {
	s.sent = append(s.sent, sentMail{to: to, subject: subject, body: body})
	return s.err
}

// replaySource hands each event to the handler once and records results.
type replaySource struct {
	events  []types.ContactEvent
	results []error
}

func (s *replaySource) SubscribeContacts(ctx context.Context, handle func(context.Context, types.ContactEvent) error) error {
	for _, ev := range s.events {
		s.results = append(s.results, handle(ctx, ev))
	}
	return context.Canceled
}

func TestWorkerSendsEscapedEmail(t *testing.T) {
	source := &replaySource{events: []types.ContactEvent{{
		ID:        1,
		Name:      "Ada <script>",
		Email:     "ada@example.com",
		Message:   "Hello there, loved the site!",
		CreatedAt: time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC),
	}}}
	sender := &recordingSender{}

	worker, err := NewWorker(source, sender, config.NotifyConfig{To: "owner@example.com"}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, worker.Run(context.Background()))

	require.Len(t, sender.sent, 1)
	mail := sender.sent[0]
	assert.Equal(t, "owner@example.com", mail.to)
	assert.Equal(t, "Portfolio contact: Ada <script>", mail.subject)
	assert.Contains(t, mail.body, "Ada &lt;script&gt;")
	assert.Contains(t, mail.body, "Hello there, loved the site!")
	assert.Contains(t, mail.body, "2026-04-02 08:00 UTC")
	assert.NoError(t, source.results[0])
}

func TestWorkerReturnsSendFailure(t *testing.T) {
	source := &replaySource{events: []types.ContactEvent{{ID: 2, Name: "Bob"}}}
	sender := &recordingSender{err: errors.New("smtp down")}

	worker, err := NewWorker(source, sender, config.NotifyConfig{To: "owner@example.com"}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, worker.Run(context.Background()))
	assert.Error(t, source.results[0], "failed sends must be nacked")
}

func TestNewWorkerRequiresRecipient(t *testing.T) {
	_, err := NewWorker(&replaySource{}, &recordingSender{}, config.NotifyConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestResendSender(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "email-1"})
	}))
	defer srv.Close()

	client := resend.NewClient("test-api-key")
	baseURL, _ := url.Parse(srv.URL)
	client.BaseURL = baseURL

	sender := NewResendSender(client, "site@example.com", zerolog.Nop())
	require.NoError(t, sender.Send(context.Background(), "owner@example.com", "Hi", "<p>Hi</p>"))

	assert.Equal(t, "site@example.com", got["from"])
	assert.Equal(t, "Hi", got["subject"])
	assert.Equal(t, []any{"owner@example.com"}, got["to"])
}
