package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/PolarWolf314/instivault/internal/backup"
	kerrors "github.com/PolarWolf314/instivault/internal/errors"

	"github.com/hashicorp/go-retryablehttp"
)

// EmailSink posts the backup as an attachment to an HTTP mail relay.
type EmailSink struct {
	endpoint  string
	recipient string
	subject   string
	limit     int
	client    *retryablehttp.Client
}

// EmailOption configures an EmailSink.
type EmailOption func(*EmailSink)

// WithLimit overrides backup.EmailSizeLimit. Zero or less keeps the default.
func WithLimit(limit int) EmailOption {
	return func(s *EmailSink) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithSubject sets the mail subject.
func WithSubject(subject string) EmailOption {
	return func(s *EmailSink) {
		s.subject = subject
	}
}

// WithHTTPClient replaces the retrying client, mostly for tests.
func WithHTTPClient(c *retryablehttp.Client) EmailOption {
	return func(s *EmailSink) {
		s.client = c
	}
}

// NewEmailSink returns a sink that delivers to recipient through the relay at endpoint.
func NewEmailSink(endpoint, recipient string, opts ...EmailOption) (*EmailSink, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: email sink needs [sinks.email] endpoint", kerrors.ErrInvalidConfig)
	}
	if recipient == "" {
		return nil, fmt.Errorf("%w: email sink needs a recipient", kerrors.ErrInvalidConfig)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	s := &EmailSink{
		endpoint:  endpoint,
		recipient: recipient,
		subject:   "Institute backup",
		limit:     backup.EmailSizeLimit,
		client:    client,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *EmailSink) Name() string { return EmailSinkName }

type relayMessage struct {
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Filename   string `json:"filename"`
	Attachment string `json:"attachment"`
}

// Deliver checks the size limit before any network I/O, then posts the
// message. The relay must answer 2xx.
func (s *EmailSink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	defer timed(EmailSinkName, time.Now())

	if err := backup.CheckSize(EmailSinkName, utf8.RuneCount(data), s.limit); err != nil {
		return "", err
	}

	body, err := json.Marshal(relayMessage{
		To:         s.recipient,
		Subject:    s.subject,
		Filename:   name,
		Attachment: string(data),
	})
	if err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: relay answered %s", kerrors.ErrDeliveryFailed, resp.Status)
	}

	return s.recipient, nil
}
