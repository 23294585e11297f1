package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GameResult string

const (
	ResultWin  GameResult = "win"
	ResultLose GameResult = "lose"
	ResultDraw GameResult = "draw"
)

// Valid reports whether r is one of win, lose or draw.
func (r GameResult) Valid() bool {
	switch r {
	case ResultWin, ResultLose, ResultDraw:
		return true
	}
	return false
}

// HistoryEntry is one played move in notation, e.g. "Nxc4+".
type HistoryEntry struct {
	Move      string    `json:"move" bson:"move"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// StampHistory sets the timestamp of every entry posted without one to now.
func StampHistory(history []HistoryEntry, now time.Time) {
	for i := range history {
		if history[i].Timestamp.IsZero() {
			history[i].Timestamp = now
		}
	}
}

// GameRecord is a finished game as seen by one user. Result is relative to
// that user's side.
type GameRecord struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"user" bson:"user"`
	SessionID string             `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
	Side      string             `json:"side,omitempty" bson:"side,omitempty"` // "white" or "black"
	Result    GameResult         `json:"result" bson:"result"`
	Reason    string             `json:"reason,omitempty" bson:"reason,omitempty"` // "king captured", "no legal moves", "move limit"
	Plies     int                `json:"plies" bson:"plies"`
	History   []HistoryEntry     `json:"history" bson:"history"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// RecordPatch carries the fields a PATCH may change. Nil fields are left alone.
type RecordPatch struct {
	Result  *GameResult     `json:"result,omitempty"`
	History *[]HistoryEntry `json:"history,omitempty"`
}
