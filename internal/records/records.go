package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"minichess/internal/models"
)

var (
	ErrNotFound      = errors.New("game record not found")
	ErrInvalidRecord = errors.New("invalid game record")
)

// Store persists finished game records.
type Store interface {
	Create(ctx context.Context, rec *models.GameRecord) error
	List(ctx context.Context) ([]models.GameRecord, error)
	ListByUser(ctx context.Context, userID string) ([]models.GameRecord, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.GameRecord, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.RecordPatch) (*models.GameRecord, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ValidationError lists every problem found in a record, not just the first.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRecord, strings.Join(e.Messages, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

// Validate checks a record about to be created.
func Validate(rec *models.GameRecord) error {
	var msgs []string
	if strings.TrimSpace(rec.UserID) == "" {
		msgs = append(msgs, "User ID is required")
	}
	if rec.Result == "" {
		msgs = append(msgs, "Result is required")
	} else if !rec.Result.Valid() {
		msgs = append(msgs, "Result must be either win, lose, or draw")
	}
	msgs = append(msgs, validateHistory(rec.History)...)
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

// ValidatePatch checks the fields present in an update.
func ValidatePatch(patch models.RecordPatch) error {
	var msgs []string
	if patch.Result != nil && !patch.Result.Valid() {
		msgs = append(msgs, "Result must be either win, lose, or draw")
	}
	if patch.History != nil {
		msgs = append(msgs, validateHistory(*patch.History)...)
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

func validateHistory(history []models.HistoryEntry) []string {
	var msgs []string
	for i, h := range history {
		if strings.TrimSpace(h.Move) == "" {
			msgs = append(msgs, fmt.Sprintf("history[%d].move is required", i))
		}
	}
	return msgs
}
