package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"minichess/internal/agent"
	"minichess/internal/game"
	"minichess/internal/models"
)

var (
	ErrNotYourTurn    = errors.New("it is the engine's turn")
	ErrGameInProgress = errors.New("game is still in progress")
)

// Event describes one accepted move. Observers use it to drive presentation
// effects (redraws, sounds, check highlights); they cannot alter the game.
type Event struct {
	Before   game.State
	After    game.State
	Move     game.Move
	Notation string
	Capture  bool
	ByEngine bool
}

// Observer is notified after every transition.
type Observer func(Event)

// Session owns the single current game state of one game between a human and,
// optionally, the engine. Each transition replaces the state wholesale.
// A Session is not safe for concurrent use.
type Session struct {
	ID        string
	human     game.Color
	player    *agent.Player
	state     game.State
	history   []models.HistoryEntry
	observers []Observer
	startedAt time.Time
}

// New starts a game from the initial layout. player may be nil for a game
// where both sides are entered by hand.
func New(human game.Color, player *agent.Player, maxPlies int) *Session {
	return &Session{
		ID:        uuid.NewString(),
		human:     human,
		player:    player,
		state:     game.NewState(game.InitialBoard(), game.White, 0, maxPlies),
		startedAt: time.Now(),
	}
}

// State returns the current game state.
func (s *Session) State() game.State { return s.state }

// Human returns the human's side.
func (s *Session) Human() game.Color { return s.human }

// Observe registers fn for all later transitions.
func (s *Session) Observe(fn Observer) {
	s.observers = append(s.observers, fn)
}

// History returns the notation of every move played so far.
func (s *Session) History() []string {
	moves := make([]string, len(s.history))
	for i, h := range s.history {
		moves[i] = h.Move
	}
	return moves
}

// EngineTurn reports whether the engine is due to move.
func (s *Session) EngineTurn() bool {
	return s.player != nil && !s.state.Terminal() && s.state.ToMove() == s.player.Color()
}

// LegalMoves lists the targets of the piece on sq for highlighting.
func (s *Session) LegalMoves(sq game.Square) ([]game.Square, error) {
	return s.state.LegalMoves(sq)
}

// Move plays a move entered by the human.
func (s *Session) Move(m game.Move) error {
	if s.EngineTurn() {
		return ErrNotYourTurn
	}
	return s.apply(m, false)
}

// EngineMove asks the engine for its move and plays it.
func (s *Session) EngineMove(ctx context.Context) error {
	if !s.EngineTurn() {
		if s.state.Terminal() {
			return game.ErrGameAlreadyOver
		}
		return agent.ErrNotEngineTurn
	}
	m, err := s.player.Play(ctx, s.state)
	if err != nil {
		return fmt.Errorf("engine move: %w", err)
	}
	return s.apply(m, true)
}

func (s *Session) apply(m game.Move, byEngine bool) error {
	before := s.state
	after, err := before.Apply(m)
	if err != nil {
		return err
	}

	b := before.Board()
	ev := Event{
		Before:   before,
		After:    after,
		Move:     m,
		Notation: game.Notation(before, m, after),
		Capture:  !b.At(m.To).Empty(),
		ByEngine: byEngine,
	}

	s.state = after
	s.history = append(s.history, models.HistoryEntry{Move: ev.Notation, Timestamp: time.Now()})
	for _, fn := range s.observers {
		fn(ev)
	}
	return nil
}

// Result returns the finished game's result from the human's side.
func (s *Session) Result() (models.GameResult, error) {
	if !s.state.Terminal() {
		return "", ErrGameInProgress
	}
	winner, ok := s.state.Outcome().Winner()
	switch {
	case !ok:
		return models.ResultDraw, nil
	case winner == s.human:
		return models.ResultWin, nil
	default:
		return models.ResultLose, nil
	}
}

// Record builds the persisted record of the finished game for userID.
func (s *Session) Record(userID string) (*models.GameRecord, error) {
	result, err := s.Result()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	history := make([]models.HistoryEntry, len(s.history))
	copy(history, s.history)
	return &models.GameRecord{
		UserID:    userID,
		SessionID: s.ID,
		Side:      s.human.String(),
		Result:    result,
		Reason:    s.state.Reason().String(),
		Plies:     s.state.Ply(),
		History:   history,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Duration is the wall time since the session started.
func (s *Session) Duration() time.Duration {
	return time.Since(s.startedAt)
}
