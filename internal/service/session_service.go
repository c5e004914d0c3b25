package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	caldavclient "github.com/rohzb/gromex/internal/clients/caldav"
	"github.com/rohzb/gromex/internal/domain"
)

// DefaultMaxRetries bounds how often a rejected password may be re-entered
// before the run fails.
const DefaultMaxRetries = 3

// SecretPrompter asks the operator for a secret without echoing it.
type SecretPrompter interface {
	ReadSecret(prompt string) (string, error)
}

// Credentials holds the account identifier and its lazily acquired secret.
// The secret is prompted for on first access and cached until Clear.
type Credentials struct {
	Username string

	prompter  SecretPrompter
	secret    string
	hasSecret bool
}

// NewCredentials builds credentials for one export run. An empty secret
// means it will be acquired through the prompter when first needed.
func NewCredentials(username, secret string, prompter SecretPrompter) *Credentials {
	return &Credentials{
		Username:  username,
		prompter:  prompter,
		secret:    secret,
		hasSecret: secret != "",
	}
}

// Secret returns the cached secret, prompting for it when unset.
func (c *Credentials) Secret() (string, error) {
	if c.hasSecret {
		return c.secret, nil
	}
	if c.prompter == nil {
		return "", fmt.Errorf("%w: password required and no prompt available", domain.ErrConfiguration)
	}
	secret, err := c.prompter.ReadSecret("Enter your password: ")
	if err != nil {
		return "", err
	}
	c.secret = secret
	c.hasSecret = true
	return secret, nil
}

// Clear drops the cached secret so the next access prompts again. Called
// only on the authorization-failure retry path.
func (c *Credentials) Clear() {
	c.secret = ""
	c.hasSecret = false
}

// CalendarSource lists a connected account's calendars and their objects.
type CalendarSource interface {
	Calendars(ctx context.Context) ([]domain.CalendarRef, error)
	Events(ctx context.Context, ref domain.CalendarRef) ([]domain.EventRecord, error)
}

// DialFunc opens an authenticated calendar session.
type DialFunc func(ctx context.Context, serverURL, username, password string) (CalendarSource, error)

// SessionService owns the credentials and the authenticated session for
// one export run. The session, once established, is reused for the whole
// run; there is no re-authentication and no teardown.
type SessionService struct {
	serverURL  string
	creds      *Credentials
	maxRetries int
	dial       DialFunc
	session    CalendarSource
}

// NewSessionService creates a session manager. maxRetries values of zero
// or below select DefaultMaxRetries.
func NewSessionService(serverURL string, creds *Credentials, maxRetries int) *SessionService {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &SessionService{
		serverURL:  serverURL,
		creds:      creds,
		maxRetries: maxRetries,
		dial:       dialCalDAV,
	}
}

func dialCalDAV(ctx context.Context, serverURL, username, password string) (CalendarSource, error) {
	return caldavclient.Open(ctx, serverURL, username, password)
}

// Connect establishes the session. Authorization failures clear the
// cached secret and retry up to the configured bound; any other failure
// aborts immediately. Calling Connect on a connected service is a no-op.
func (s *SessionService) Connect(ctx context.Context) error {
	if s.session != nil {
		return nil
	}

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		secret, err := s.creds.Secret()
		if err != nil {
			return err
		}

		session, err := s.dial(ctx, s.serverURL, s.creds.Username, secret)
		if err == nil {
			s.session = session
			log.Printf("Connected to CalDAV for %s", s.creds.Username)
			return nil
		}
		if !errors.Is(err, domain.ErrAuthorization) {
			return err
		}

		log.Printf("Authorization failed (attempt %d/%d)", attempt, s.maxRetries)
		s.creds.Clear()
	}

	return fmt.Errorf("%w: gave up after %d attempts", domain.ErrAuthorization, s.maxRetries)
}

// IsConnected reports whether a session has been established.
func (s *SessionService) IsConnected() bool {
	return s.session != nil
}

// Source returns the established session, or nil before Connect succeeds.
func (s *SessionService) Source() CalendarSource {
	return s.session
}
