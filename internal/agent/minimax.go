package agent

import (
	"context"
	"errors"
	"math"
	"sort"

	"minichess/internal/game"
)

var ErrInvalidDepth = errors.New("search depth must be positive")

// abortCheckInterval is how many nodes pass between context checks.
const abortCheckInterval = 1024

// Result is the outcome of a search. Move is nil when the side to move has no
// legal move; Score is from the searching side's perspective.
type Result struct {
	Move  *game.Move
	Score float64
	Depth int
	Nodes uint64
}

// Searcher runs depth-bounded minimax with alpha-beta pruning. It holds no
// per-search state, so one Searcher may serve concurrent calls.
type Searcher struct {
	eval    *Evaluator
	workers int
}

// NewSearcher creates a searcher. workers > 1 enables the parallel root split
// in SearchParallel and Think.
func NewSearcher(eval *Evaluator, workers int) *Searcher {
	if workers < 1 {
		workers = 1
	}
	return &Searcher{eval: eval, workers: workers}
}

// Evaluator returns the evaluator used at the leaves.
func (s *Searcher) Evaluator() *Evaluator {
	return s.eval
}

// search is the per-goroutine state of one tree walk.
type search struct {
	ctx     context.Context
	eval    *Evaluator
	root    game.Color
	nodes   uint64
	aborted bool
}

// Search finds the best move for side at the given depth. Depth 0 degrades to
// a static evaluation with no move.
func (s *Searcher) Search(b game.Board, side game.Color, depth int) (Result, error) {
	return s.searchRoot(context.Background(), b, side, depth)
}

func (s *Searcher) searchRoot(ctx context.Context, b game.Board, side game.Color, depth int) (Result, error) {
	if depth < 0 {
		return Result{}, ErrInvalidDepth
	}

	sr := &search{ctx: ctx, eval: s.eval, root: side}
	if depth == 0 {
		return Result{Score: s.eval.Evaluate(&b, side)}, nil
	}

	moves := game.AllLegalMoves(&b, side)
	if len(moves) == 0 {
		return Result{Score: s.eval.Evaluate(&b, side), Depth: depth}, nil
	}

	var best *game.Move
	bestScore := math.Inf(-1)
	alpha := math.Inf(-1)
	beta := math.Inf(1)

	for i := range moves {
		next := b.Apply(moves[i])
		score := sr.alphaBeta(&next, depth-1, alpha, beta, false)
		if sr.aborted {
			return Result{}, ctx.Err()
		}

		// Strict improvement keeps the first move in enumeration order on ties
		if best == nil || score > bestScore {
			best = &moves[i]
			bestScore = score
		}
		alpha = math.Max(alpha, bestScore)
	}

	return Result{Move: best, Score: bestScore, Depth: depth, Nodes: sr.nodes}, nil
}

// alphaBeta scores b from the root side's perspective. maximizing is true when
// the root side is to move at this node.
func (sr *search) alphaBeta(b *game.Board, depth int, alpha, beta float64, maximizing bool) float64 {
	sr.nodes++
	if sr.nodes%abortCheckInterval == 0 && sr.ctx.Err() != nil {
		sr.aborted = true
	}
	if sr.aborted {
		return 0
	}

	if depth == 0 || kingCaptured(b) {
		return sr.eval.Evaluate(b, sr.root)
	}

	active := sr.root
	if !maximizing {
		active = sr.root.Opponent()
	}

	moves := game.AllLegalMoves(b, active)
	if len(moves) == 0 {
		return sr.eval.Evaluate(b, sr.root)
	}
	orderKingCaptures(b, moves)

	if maximizing {
		best := math.Inf(-1)
		for _, m := range moves {
			next := b.Apply(m)
			best = math.Max(best, sr.alphaBeta(&next, depth-1, alpha, beta, false))
			alpha = math.Max(alpha, best)
			if beta <= alpha {
				break // beta cutoff
			}
		}
		return best
	}

	best := math.Inf(1)
	for _, m := range moves {
		next := b.Apply(m)
		best = math.Min(best, sr.alphaBeta(&next, depth-1, alpha, beta, true))
		beta = math.Min(beta, best)
		if beta <= alpha {
			break // alpha cutoff
		}
	}
	return best
}

// orderKingCaptures moves captures of the enemy king to the front, keeping
// enumeration order otherwise. Legal moves never leave the mover in check, so
// a king capture is the only reply worth hoisting. It is only applied below
// the root, where it changes how much is pruned but not the value found.
func orderKingCaptures(b *game.Board, moves []game.Move) {
	sort.SliceStable(moves, func(i, j int) bool {
		return b.At(moves[i].To).Kind == game.King && b.At(moves[j].To).Kind != game.King
	})
}

func kingCaptured(b *game.Board) bool {
	_, white := b.FindKing(game.White)
	_, black := b.FindKing(game.Black)
	return !white || !black
}

// BestMove is the engine's recommendation for the side to move in state. A
// finished game or a side without moves yields a Result with a nil Move.
func BestMove(state game.State, depth int) (Result, error) {
	if depth <= 0 {
		return Result{}, ErrInvalidDepth
	}
	s := NewSearcher(NewEvaluator(DefaultWeights()), 1)
	b := state.Board()
	if state.Terminal() {
		return Result{Score: s.eval.Evaluate(&b, state.ToMove())}, nil
	}
	return s.Search(b, state.ToMove(), depth)
}
