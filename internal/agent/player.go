package agent

import (
	"context"
	"errors"
	"log"
	"time"

	"minichess/internal/game"
)

var ErrNotEngineTurn = errors.New("not the engine's turn")

// PlayerOptions configure the engine player.
type PlayerOptions struct {
	Depth       int           // maximum iterative-deepening depth
	ThinkDelay  time.Duration // pause before answering, for pacing
	MoveTimeout time.Duration // bound on thinking time; 0 means unbounded
}

// Player is the engine side of a game. It decides when the search runs and
// how long it may take; the search itself defines no timeout.
type Player struct {
	searcher *Searcher
	color    game.Color
	opts     PlayerOptions
}

// NewPlayer creates an engine player for color.
func NewPlayer(searcher *Searcher, color game.Color, opts PlayerOptions) *Player {
	if opts.Depth <= 0 {
		opts.Depth = 1
	}
	return &Player{searcher: searcher, color: color, opts: opts}
}

// Color returns the side the engine plays.
func (p *Player) Color() game.Color {
	return p.color
}

// Play picks the engine's move in state. After the think delay it deepens
// until MoveTimeout expires and keeps the deepest completed result; if not
// even depth 1 finished it falls back to the first legal move.
func (p *Player) Play(ctx context.Context, state game.State) (game.Move, error) {
	if state.Terminal() {
		return game.Move{}, game.ErrGameAlreadyOver
	}
	if state.ToMove() != p.color {
		return game.Move{}, ErrNotEngineTurn
	}

	if p.opts.ThinkDelay > 0 {
		select {
		case <-ctx.Done():
			return game.Move{}, ctx.Err()
		case <-time.After(p.opts.ThinkDelay):
		}
	}

	thinkCtx := ctx
	if p.opts.MoveTimeout > 0 {
		var cancel context.CancelFunc
		thinkCtx, cancel = context.WithTimeout(ctx, p.opts.MoveTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := p.searcher.Think(thinkCtx, state.Board(), p.color, p.opts.Depth)
	if err != nil || res.Move == nil {
		// The caller's own context ending is not a reason to move anyway
		if ctxErr := ctx.Err(); ctxErr != nil {
			return game.Move{}, ctxErr
		}
		moves := state.AllLegalMoves()
		if len(moves) == 0 {
			return game.Move{}, game.ErrIllegalMove
		}
		log.Printf("Agent: search did not complete (%v), falling back to %s", err, moves[0])
		return moves[0], nil
	}

	log.Printf("Agent: best move %s for %s (depth %d, score %.2f, %d nodes, %v)",
		res.Move, p.color, res.Depth, res.Score, res.Nodes, time.Since(start).Round(time.Millisecond))
	return *res.Move, nil
}
