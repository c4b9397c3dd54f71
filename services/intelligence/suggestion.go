package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shutterbook/models"
	"shutterbook/services/advisory"

	"go.uber.org/zap"
)

const historyLimit = 10

// SuggestionProvider recommends a next session type for a client.
type SuggestionProvider interface {
	GetSessionSuggestion(ctx context.Context, userID string) advisory.Advice[models.Suggestion]
}

// BookingHistory lists a user's bookings, newest first.
type BookingHistory interface {
	ListBookingsByUser(ctx context.Context, userID string, limit int) ([]models.Booking, error)
}

// GeminiSuggestionService asks the model for a suggestion based on the
// client's booking history.
type GeminiSuggestionService struct {
	Generator    TextGenerator
	Cache        SuggestionCache
	History      BookingHistory
	SessionTypes []models.SessionType
	Timeout      time.Duration
	Now          func() time.Time
	Logger       *zap.Logger
}

func NewGeminiSuggestionService(gen TextGenerator, cache SuggestionCache, history BookingHistory, sessionTypes []models.SessionType, timeout time.Duration, logger *zap.Logger) *GeminiSuggestionService {
	return &GeminiSuggestionService{
		Generator:    gen,
		Cache:        cache,
		History:      history,
		SessionTypes: sessionTypes,
		Timeout:      timeout,
		Now:          time.Now,
		Logger:       logger,
	}
}

type modelSuggestion struct {
	SessionType string `json:"sessionType"`
	Reason      string `json:"reason"`
}

func (s *GeminiSuggestionService) GetSessionSuggestion(ctx context.Context, userID string) advisory.Advice[models.Suggestion] {
	if s.Generator == nil {
		return advisory.Unavailable[models.Suggestion]("suggestions disabled")
	}
	return advisory.Guard(ctx, s.Timeout, s.Logger, "suggestion", func(ctx context.Context) (models.Suggestion, error) {
		return s.suggest(ctx, userID)
	})
}

func (s *GeminiSuggestionService) suggest(ctx context.Context, userID string) (models.Suggestion, error) {
	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx, userID)
		if err != nil {
			s.Logger.Debug("Suggestion cache read failed", zap.String("userID", userID), zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	history, err := s.History.ListBookingsByUser(ctx, userID, historyLimit)
	if err != nil {
		return models.Suggestion{}, fmt.Errorf("load booking history: %w", err)
	}

	raw, err := s.Generator.GenerateContent(ctx, s.prompt(history))
	if err != nil {
		return models.Suggestion{}, err
	}
	var out modelSuggestion
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return models.Suggestion{}, fmt.Errorf("decode model reply: %w", err)
	}
	st := models.SessionType(strings.ToLower(strings.TrimSpace(out.SessionType)))
	if !s.known(st) {
		return models.Suggestion{}, fmt.Errorf("model suggested unknown session type %q", out.SessionType)
	}

	suggestion := models.Suggestion{
		UserID:      userID,
		SessionType: st,
		Reason:      strings.TrimSpace(out.Reason),
		GeneratedAt: s.Now(),
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, userID, &suggestion); err != nil {
			s.Logger.Debug("Suggestion cache write failed", zap.String("userID", userID), zap.Error(err))
		}
	}
	return suggestion, nil
}

func (s *GeminiSuggestionService) prompt(history []models.Booking) string {
	var sb strings.Builder
	sb.WriteString("You advise clients of a photography studio on their next session.\n")
	sb.WriteString("Choose exactly one session type from: ")
	for i, st := range s.SessionTypes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(st))
	}
	sb.WriteString(".\nReply with JSON {\"sessionType\": string, \"reason\": string}; keep the reason under 40 words.\n")
	if len(history) == 0 {
		sb.WriteString("The client has not booked before.\n")
		return sb.String()
	}
	sb.WriteString("Past sessions, newest first:\n")
	for _, b := range history {
		fmt.Fprintf(&sb, "- %s on %s (%s)\n", b.SessionType, b.StartTime.Format("2006-01-02"), b.Status)
	}
	return sb.String()
}

func (s *GeminiSuggestionService) known(st models.SessionType) bool {
	for _, k := range s.SessionTypes {
		if k == st {
			return true
		}
	}
	return false
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
