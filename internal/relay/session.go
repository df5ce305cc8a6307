package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/alexbarra-hub/coachtully/internal/domain"
	"github.com/alexbarra-hub/coachtully/internal/profile"
)

// ErrTurnInFlight is returned when a turn is started while the previous one
// has not reached its terminal state.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// User-facing notices surfaced through the Notifier.
const (
	noticeHighDemand    = "High demand - please wait a moment and try again"
	noticeUnavailable   = "Service temporarily unavailable"
	noticeGeneric       = "Something went wrong. Please try again."
	noticeConnectFailed = "Failed to connect. Please try again."
	noticeStartFailed   = "Failed to start conversation. Please try again."
)

// Notifier surfaces transient user-facing notices.
type Notifier interface {
	Notify(message string)
}

type noopNotifier struct{}

func (noopNotifier) Notify(string) {}

// SessionConfig wires a Session to its collaborators.
type SessionConfig struct {
	// Endpoint is the career-coach URL.
	Endpoint string
	// Token supplies the caller's bearer token per request.
	Token func(ctx context.Context) (string, error)
	// UserID keys profile reads and writes.
	UserID string
	// Profiles is the profile store collaborator.
	Profiles profile.Store
	// Notifier receives user-facing notices. Optional.
	Notifier Notifier
	// HTTPClient is optional; http.DefaultClient is used when nil.
	HTTPClient *http.Client
}

// Session owns one visible conversation transcript and drives turns against
// the edge gateway. One turn at a time: a new turn cannot start until the
// previous stream reaches its terminal state.
type Session struct {
	endpoint   string
	token      func(ctx context.Context) (string, error)
	userID     string
	profiles   profile.Store
	notifier   Notifier
	httpClient *http.Client

	mu       sync.Mutex
	inFlight bool
	messages []domain.ChatMessage
	profile  domain.UserProfile
}

// turnRequest is the request body sent to the gateway.
type turnRequest struct {
	Messages    []domain.ChatMessage `json:"messages"`
	UserProfile *domain.UserProfile  `json:"userProfile"`
}

func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("relay: endpoint must not be empty")
	}
	if cfg.Token == nil {
		return nil, errors.New("relay: token source must not be nil")
	}
	if cfg.Profiles == nil {
		return nil, errors.New("relay: profile store must not be nil")
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Session{
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		userID:     cfg.UserID,
		profiles:   cfg.Profiles,
		notifier:   notifier,
		httpClient: httpClient,
	}, nil
}

// Messages returns a copy of the visible transcript.
func (s *Session) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Profile returns the session's current view of the coaching profile.
func (s *Session) Profile() domain.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// LoadProfile refreshes the session's profile view from the store.
func (s *Session) LoadProfile(ctx context.Context) error {
	p, err := s.profiles.Get(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	return nil
}

// Reset clears the transcript.
func (s *Session) Reset() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
}

// SaveProfileDetails writes a partial profile update and folds it into the
// session's view on success.
func (s *Session) SaveProfileDetails(ctx context.Context, update domain.ProfileUpdate) error {
	if err := s.profiles.Update(ctx, s.userID, update); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	s.mu.Lock()
	if update.JobTitle != nil {
		s.profile.JobTitle = *update.JobTitle
	}
	if update.CurrentGoal != nil {
		s.profile.CurrentGoal = *update.CurrentGoal
	}
	if update.SkillsAssessed != nil {
		s.profile.SkillsAssessed = *update.SkillsAssessed
	}
	if update.LastSessionSummary != nil {
		s.profile.LastSessionSummary = *update.LastSessionSummary
	}
	s.mu.Unlock()
	return nil
}

// SendTurn appends the user's message to the transcript optimistically and
// streams the assistant's reply into it. On a non-2xx response the optimistic
// message is rolled back and a notice is surfaced; once streaming has begun,
// a failure leaves the partial assistant message in place.
func (s *Session) SendTurn(ctx context.Context, input string) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	s.inFlight = true
	s.messages = append(s.messages, domain.ChatMessage{Role: domain.RoleUser, Content: input})
	history := make([]domain.ChatMessage, len(s.messages))
	copy(history, s.messages)
	prof := s.profile
	s.mu.Unlock()
	defer s.clearInFlight()

	if prof.JobTitle == "" {
		if title := ExtractJobTitle(input); title != "" {
			if err := s.profiles.Update(ctx, s.userID, domain.ProfileUpdate{JobTitle: &title}); err != nil {
				slog.Debug("job title update failed", "error", err.Error())
			} else {
				s.mu.Lock()
				s.profile.JobTitle = title
				s.mu.Unlock()
				prof.JobTitle = title
			}
		}
	}

	resp, err := s.post(ctx, history, prof)
	if err != nil {
		s.rollback()
		s.notifier.Notify(noticeConnectFailed)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.rollback()
		s.notifyFailure(resp)
		return fmt.Errorf("coach request failed with status %d", resp.StatusCode)
	}
	return s.consume(resp.Body)
}

// Start elicits the opening assistant turn by sending an empty history.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	s.inFlight = true
	prof := s.profile
	s.mu.Unlock()
	defer s.clearInFlight()

	resp, err := s.post(ctx, []domain.ChatMessage{}, prof)
	if err != nil {
		s.notifier.Notify(noticeStartFailed)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.notifier.Notify(noticeStartFailed)
		return fmt.Errorf("start conversation failed with status %d", resp.StatusCode)
	}
	return s.consume(resp.Body)
}

func (s *Session) post(ctx context.Context, history []domain.ChatMessage, prof domain.UserProfile) (*http.Response, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}

	body := turnRequest{Messages: history}
	if prof != (domain.UserProfile{}) {
		body.UserProfile = &prof
	}
	if body.Messages == nil {
		body.Messages = []domain.ChatMessage{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coach request: %w", err)
	}
	return resp, nil
}

// consume drains the SSE stream, growing the in-progress assistant message
// delta by delta. A mid-stream error keeps whatever was already rendered.
func (s *Session) consume(body io.Reader) error {
	dec := NewDecoder(body)
	var assistant strings.Builder
	for {
		delta, err := dec.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
		assistant.WriteString(delta)
		s.setAssistant(assistant.String())
	}
}

// setAssistant replaces the in-progress assistant message's content, or
// appends a new assistant message when the transcript doesn't end with one.
func (s *Session) setAssistant(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.messages); n > 0 && s.messages[n-1].Role == domain.RoleAssistant {
		s.messages[n-1].Content = content
		return
	}
	s.messages = append(s.messages, domain.ChatMessage{Role: domain.RoleAssistant, Content: content})
}

// rollback removes the optimistically appended user message.
func (s *Session) rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.messages); n > 0 && s.messages[n-1].Role == domain.RoleUser {
		s.messages = s.messages[:n-1]
	}
}

func (s *Session) notifyFailure(resp *http.Response) {
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		s.notifier.Notify(noticeHighDemand)
	case http.StatusServiceUnavailable:
		s.notifier.Notify(noticeUnavailable)
	default:
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			s.notifier.Notify(payload.Error)
			return
		}
		s.notifier.Notify(noticeGeneric)
	}
}

func (s *Session) clearInFlight() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}
