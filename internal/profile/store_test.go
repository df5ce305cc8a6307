package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexbarra-hub/coachtully/internal/domain"
)

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func TestMemoryStoreAppliesPartialUpdates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "u1", domain.ProfileUpdate{JobTitle: strptr("barista")}))
	require.NoError(t, s.Update(ctx, "u1", domain.ProfileUpdate{
		CurrentGoal:    strptr("store manager"),
		SkillsAssessed: boolptr(true),
	}))

	p, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "barista", p.JobTitle, "earlier fields survive later partial updates")
	assert.Equal(t, "store manager", p.CurrentGoal)
	assert.True(t, p.SkillsAssessed)

	other, err := s.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, domain.UserProfile{}, other)
}

func TestHTTPStoreGet(t *testing.T) {
	var gotPath, gotQuery, gotAccept, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAccept = r.Header.Get("Accept")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"job_title":            "line cook",
			"current_goal":         "sous chef",
			"skills_assessed":      true,
			"last_session_summary": "rated leadership 3/5",
		})
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "anon-key",
		func(ctx context.Context) (string, error) { return "user-token-123", nil },
		5*time.Second)

	p, err := store.Get(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/profiles", gotPath)
	assert.Contains(t, gotQuery, "user_id=eq.user-1")
	assert.Equal(t, "application/vnd.pgrst.object+json", gotAccept)
	assert.Equal(t, "Bearer user-token-123", gotAuth)
	assert.Equal(t, domain.UserProfile{
		JobTitle:           "line cook",
		CurrentGoal:        "sous chef",
		SkillsAssessed:     true,
		LastSessionSummary: "rated leadership 3/5",
	}, p)
}

func TestHTTPStoreUpdateSendsOnlySetFields(t *testing.T) {
	var gotMethod string
	var gotPatch map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPatch))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "",
		func(ctx context.Context) (string, error) { return "user-token-123", nil },
		5*time.Second)

	err := store.Update(context.Background(), "user-1", domain.ProfileUpdate{
		JobTitle: strptr("shift supervisor"),
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, map[string]any{"job_title": "shift supervisor"}, gotPatch)
}

func TestHTTPStoreUpdateEmptyIsNoop(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "",
		func(ctx context.Context) (string, error) { return "t", nil },
		5*time.Second)

	require.NoError(t, store.Update(context.Background(), "user-1", domain.ProfileUpdate{}))
	assert.False(t, hit, "empty update must not issue a request")
}

func TestHTTPStoreGetError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"no rows"}`, http.StatusNotAcceptable)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "",
		func(ctx context.Context) (string, error) { return "t", nil },
		5*time.Second)

	_, err := store.Get(context.Background(), "user-1")
	assert.Error(t, err)
}
