package records

import (
	"errors"
	"reflect"
	"testing"

	"minichess/internal/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		rec  models.GameRecord
		want []string
	}{
		{
			name: "valid",
			rec:  models.GameRecord{UserID: "u1", Result: models.ResultWin, History: []models.HistoryEntry{{Move: "c3"}}},
		},
		{
			name: "missing everything",
			rec:  models.GameRecord{},
			want: []string{"User ID is required", "Result is required"},
		},
		{
			name: "bad result",
			rec:  models.GameRecord{UserID: "u1", Result: "resigned"},
			want: []string{"Result must be either win, lose, or draw"},
		},
		{
			name: "blank user and history move",
			rec:  models.GameRecord{UserID: "  ", Result: models.ResultDraw, History: []models.HistoryEntry{{Move: "a3"}, {Move: ""}}},
			want: []string{"User ID is required", "history[1].move is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.rec)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !errors.Is(err, ErrInvalidRecord) {
				t.Error("ValidationError should wrap ErrInvalidRecord")
			}
			if !reflect.DeepEqual(verr.Messages, tt.want) {
				t.Errorf("messages = %q, want %q", verr.Messages, tt.want)
			}
		})
	}
}

func TestValidatePatch(t *testing.T) {
	lose := models.ResultLose
	bad := models.GameResult("abandoned")
	history := []models.HistoryEntry{{Move: ""}}

	if err := ValidatePatch(models.RecordPatch{}); err != nil {
		t.Errorf("empty patch: %v", err)
	}
	if err := ValidatePatch(models.RecordPatch{Result: &lose}); err != nil {
		t.Errorf("valid result: %v", err)
	}
	if err := ValidatePatch(models.RecordPatch{Result: &bad}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("bad result: expected ErrInvalidRecord, got %v", err)
	}
	if err := ValidatePatch(models.RecordPatch{History: &history}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("bad history: expected ErrInvalidRecord, got %v", err)
	}
}
