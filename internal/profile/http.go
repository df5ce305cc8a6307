package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexbarra-hub/coachtully/internal/domain"
)

// HTTPStore is a Store backed by a PostgREST-style profiles table.
type HTTPStore struct {
	profilesURL string
	anonKey     string
	token       func(ctx context.Context) (string, error)
	httpClient  *http.Client
}

// profileRow is the wire shape of one profiles row.
type profileRow struct {
	JobTitle           string `json:"job_title"`
	CurrentGoal        string `json:"current_goal"`
	SkillsAssessed     bool   `json:"skills_assessed"`
	LastSessionSummary string `json:"last_session_summary"`
}

// NewHTTPStore constructs an HTTPStore for the given base URL. token supplies
// the caller's bearer token per request.
func NewHTTPStore(baseURL, anonKey string, token func(ctx context.Context) (string, error), timeout time.Duration) *HTTPStore {
	profilesURL := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(profilesURL, "/rest/v1/profiles") {
		profilesURL += "/rest/v1/profiles"
	}
	return &HTTPStore{
		profilesURL: profilesURL,
		anonKey:     anonKey,
		token:       token,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (s *HTTPStore) Get(ctx context.Context, userID string) (domain.UserProfile, error) {
	reqURL := s.profilesURL + "?user_id=eq." + url.QueryEscape(userID) +
		"&select=job_title,current_goal,skills_assessed,last_session_summary"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	if err := s.setAuth(ctx, req); err != nil {
		return domain.UserProfile{}, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("profile store request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.UserProfile{}, fmt.Errorf("profile store returned %d", resp.StatusCode)
	}

	var row profileRow
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return domain.UserProfile{}, fmt.Errorf("decode profile: %w", err)
	}
	return domain.UserProfile{
		JobTitle:           row.JobTitle,
		CurrentGoal:        row.CurrentGoal,
		SkillsAssessed:     row.SkillsAssessed,
		LastSessionSummary: row.LastSessionSummary,
	}, nil
}

func (s *HTTPStore) Update(ctx context.Context, userID string, update domain.ProfileUpdate) error {
	patch := map[string]any{}
	if update.JobTitle != nil {
		patch["job_title"] = *update.JobTitle
	}
	if update.CurrentGoal != nil {
		patch["current_goal"] = *update.CurrentGoal
	}
	if update.SkillsAssessed != nil {
		patch["skills_assessed"] = *update.SkillsAssessed
	}
	if update.LastSessionSummary != nil {
		patch["last_session_summary"] = *update.LastSessionSummary
	}
	if len(patch) == 0 {
		return nil
	}

	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	reqURL := s.profilesURL + "?user_id=eq." + url.QueryEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := s.setAuth(ctx, req); err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("profile store request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("profile store returned %d", resp.StatusCode)
	}
	return nil
}

func (s *HTTPStore) setAuth(ctx context.Context, req *http.Request) error {
	token, err := s.token(ctx)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if s.anonKey != "" {
		req.Header.Set("apikey", s.anonKey)
	}
	return nil
}
