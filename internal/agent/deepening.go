package agent

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"minichess/internal/game"
)

// SearchParallel searches each root move on its own goroutine, up to the
// searcher's worker count. Each subtree gets a full window, so every root
// score is exact and merging in enumeration order picks the same move as the
// sequential search.
func (s *Searcher) SearchParallel(ctx context.Context, b game.Board, side game.Color, depth int) (Result, error) {
	if depth <= 1 || s.workers == 1 {
		return s.searchRoot(ctx, b, side, depth)
	}

	moves := game.AllLegalMoves(&b, side)
	if len(moves) == 0 {
		return Result{Score: s.eval.Evaluate(&b, side), Depth: depth}, nil
	}

	scores := make([]float64, len(moves))
	nodes := make([]uint64, len(moves))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range moves {
		i := i
		g.Go(func() error {
			sr := &search{ctx: gctx, eval: s.eval, root: side}
			next := b.Apply(moves[i])
			scores[i] = sr.alphaBeta(&next, depth-1, math.Inf(-1), math.Inf(1), false)
			nodes[i] = sr.nodes
			if sr.aborted {
				return gctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Depth: depth, Score: math.Inf(-1)}
	for i := range moves {
		res.Nodes += nodes[i]
		if res.Move == nil || scores[i] > res.Score {
			res.Move = &moves[i]
			res.Score = scores[i]
		}
	}
	return res, nil
}

// Think runs iterative deepening from depth 1 to maxDepth and returns the
// result of the deepest iteration that finished before ctx was done. It only
// fails if not even depth 1 completed.
func (s *Searcher) Think(ctx context.Context, b game.Board, side game.Color, maxDepth int) (Result, error) {
	if maxDepth <= 0 {
		return Result{}, ErrInvalidDepth
	}

	var best Result
	completed := false
	for depth := 1; depth <= maxDepth; depth++ {
		// Depth 1 always runs so there is a move to fall back on
		if depth > 1 && ctx.Err() != nil {
			break
		}
		res, err := s.SearchParallel(ctx, b, side, depth)
		if err != nil {
			if completed {
				return best, nil
			}
			return Result{}, err
		}
		best, completed = res, true

		// Nothing deeper to find without moves
		if res.Move == nil {
			break
		}
	}
	return best, nil
}
