package game

import (
	"errors"
	"fmt"
)

// DefaultMaxPlies is the draw cap: 40 moves by each side.
const DefaultMaxPlies = 80

var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrEmptySquare     = errors.New("no piece on square")
	ErrGameAlreadyOver = errors.New("game already over")

	// ErrNotYourPiece wraps ErrIllegalMove.
	ErrNotYourPiece = fmt.Errorf("%w: piece belongs to the side not on move", ErrIllegalMove)
)

// Outcome is the result of a game.
type Outcome uint8

const (
	Ongoing Outcome = iota
	WhiteWins
	BlackWins
	Draw
)

// WinFor returns the outcome in which c wins.
func WinFor(c Color) Outcome {
	if c == White {
		return WhiteWins
	}
	return BlackWins
}

// Winner returns the winning color, if the outcome has one.
func (o Outcome) Winner() (Color, bool) {
	switch o {
	case WhiteWins:
		return White, true
	case BlackWins:
		return Black, true
	}
	return White, false
}

func (o Outcome) String() string {
	switch o {
	case WhiteWins:
		return "white wins"
	case BlackWins:
		return "black wins"
	case Draw:
		return "draw"
	}
	return "ongoing"
}

// Reason explains why a game ended.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonKingCaptured
	ReasonMoveLimit
	ReasonNoLegalMoves
)

func (r Reason) String() string {
	switch r {
	case ReasonKingCaptured:
		return "king captured"
	case ReasonMoveLimit:
		return "move limit"
	case ReasonNoLegalMoves:
		return "no legal moves"
	}
	return ""
}

// State is one immutable snapshot of a game. Apply returns a new State and
// never touches the receiver, so the host can hold a single current value and
// replace it wholesale on each transition.
type State struct {
	board    Board
	toMove   Color
	ply      int
	maxPlies int
	outcome  Outcome
	reason   Reason
	check    bool
}

// InitialState returns the starting layout, White to move, ply 0.
func InitialState() State {
	return NewState(InitialBoard(), White, 0, DefaultMaxPlies)
}

// NewState builds a state from an arbitrary position and classifies it.
// A maxPlies of zero or less selects DefaultMaxPlies.
func NewState(b Board, toMove Color, ply, maxPlies int) State {
	if maxPlies <= 0 {
		maxPlies = DefaultMaxPlies
	}
	s := State{board: b, toMove: toMove, ply: ply, maxPlies: maxPlies}
	s.classify()
	return s
}

func (s State) Board() Board { return s.board }
func (s State) ToMove() Color { return s.toMove }
func (s State) Ply() int { return s.ply }
func (s State) MaxPlies() int { return s.maxPlies }
func (s State) Outcome() Outcome { return s.outcome }
func (s State) Reason() Reason { return s.reason }
func (s State) Terminal() bool { return s.outcome != Ongoing }

// InCheck reports whether the side to move is in check. It is informational
// only and is always false once the game is over.
func (s State) InCheck() bool { return s.check }

// LegalMoves returns the legal targets of the piece on sq, for highlighting.
// Pieces of the side not to move have no targets.
func (s State) LegalMoves(sq Square) ([]Square, error) {
	if s.Terminal() {
		return nil, ErrGameAlreadyOver
	}
	piece := s.board.At(sq)
	if piece.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrEmptySquare, sq)
	}
	if piece.Color != s.toMove {
		return nil, nil
	}
	return LegalMoves(&s.board, sq), nil
}

// AllLegalMoves returns every legal move for the side to move.
func (s State) AllLegalMoves() []Move {
	if s.Terminal() {
		return nil
	}
	return AllLegalMoves(&s.board, s.toMove)
}

// Apply validates m for the side to move and returns the resulting state.
func (s State) Apply(m Move) (State, error) {
	if s.Terminal() {
		return s, ErrGameAlreadyOver
	}

	piece := s.board.At(m.From)
	if piece.Empty() {
		return s, fmt.Errorf("%w: %w: %s", ErrIllegalMove, ErrEmptySquare, m.From)
	}
	if piece.Color != s.toMove {
		return s, fmt.Errorf("%w: %s piece on %s but %s to move", ErrNotYourPiece, piece.Color, m.From, s.toMove)
	}

	mustInBounds(m.To)
	legal := false
	for _, to := range LegalMoves(&s.board, m.From) {
		if to == m.To {
			legal = true
			break
		}
	}
	if !legal {
		return s, fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	next := s
	next.board = s.board.Apply(m)
	next.ply++
	next.toMove = s.toMove.Opponent()
	next.classify()
	return next, nil
}

// classify evaluates terminality in priority order: king captured, move limit,
// then no legal moves for the side to move (which loses; there is no
// stalemate draw in this variant).
func (s *State) classify() {
	s.outcome, s.reason, s.check = Ongoing, ReasonNone, false

	for _, c := range []Color{s.toMove, s.toMove.Opponent()} {
		if _, found := s.board.FindKing(c); !found {
			s.outcome, s.reason = WinFor(c.Opponent()), ReasonKingCaptured
			return
		}
	}

	if s.ply >= s.maxPlies {
		s.outcome, s.reason = Draw, ReasonMoveLimit
		return
	}

	if !HasLegalMoves(&s.board, s.toMove) {
		s.outcome, s.reason = WinFor(s.toMove.Opponent()), ReasonNoLegalMoves
		return
	}

	s.check = InCheck(&s.board, s.toMove)
}
