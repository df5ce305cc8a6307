package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/alexbarra-hub/coachtully/internal/domain"
)

const (
	maxBodyBytes    = 1 << 20
	maxMessages     = 100
	maxContentRunes = 10000
	maxTitleRunes   = 100
	maxGoalRunes    = 500
	maxSummaryRunes = 1000
)

// chatRequest is the closed request schema. Unknown fields anywhere in the
// payload are a hard rejection, not just a type mismatch.
type chatRequest struct {
	Messages    []domain.ChatMessage `json:"messages"`
	UserProfile *domain.UserProfile  `json:"userProfile"`
}

// decodeChatRequest parses and validates the request body. The returned error
// is for server-side logs; callers reply with a generic message.
func decodeChatRequest(body io.Reader) (*chatRequest, error) {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var req chatRequest
	if err := dec.Decode(&req); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON body")
	}
	if err := validateChatRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func validateChatRequest(req *chatRequest) error {
	if len(req.Messages) > maxMessages {
		return fmt.Errorf("too many messages: %d", len(req.Messages))
	}
	for i, m := range req.Messages {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			return fmt.Errorf("message %d: invalid role", i)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("message %d: empty content", i)
		}
		if utf8.RuneCountInString(m.Content) > maxContentRunes {
			return fmt.Errorf("message %d: content too long", i)
		}
	}
	if p := req.UserProfile; p != nil {
		if utf8.RuneCountInString(p.JobTitle) > maxTitleRunes {
			return errors.New("profile: job title too long")
		}
		if utf8.RuneCountInString(p.CurrentGoal) > maxGoalRunes {
			return errors.New("profile: current goal too long")
		}
		if utf8.RuneCountInString(p.LastSessionSummary) > maxSummaryRunes {
			return errors.New("profile: last session summary too long")
		}
	}
	return nil
}
