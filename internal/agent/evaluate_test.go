package agent

import (
	"math"
	"testing"

	"minichess/internal/game"
)

func mustBoard(t *testing.T, position string) (game.Board, game.Color) {
	t.Helper()
	b, side, _, err := game.ParsePosition(position)
	if err != nil {
		t.Fatalf("ParsePosition(%q): %v", position, err)
	}
	return b, side
}

// mirror flips the board top to bottom and swaps the colors.
func mirror(b game.Board) game.Board {
	var out game.Board
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			p := b[r][c]
			if !p.Empty() {
				p.Color = p.Color.Opponent()
			}
			out[game.Rows-1-r][c] = p
		}
	}
	return out
}

var evalPositions = []string{
	"rnbqk/ppppp/5/5/PPPPP/RNBQK w 0",
	"r1b1k/pp1pp/2n2/1Q3/PP1PP/R1B1K b 6",
	"k4/5/5/5/5/R2rK w 0",
	"4k/P4/5/5/5/4K w 0",
	"k4/1p3/1p3/5/PP1P1/4K w 12",
}

func TestEvaluateInitialIsBalanced(t *testing.T) {
	b := game.InitialBoard()
	for _, w := range []Weights{MaterialWeights(), DefaultWeights()} {
		e := NewEvaluator(w)
		if got := e.Evaluate(&b, game.White); got != 0 {
			t.Errorf("initial position: expected 0, got %v", got)
		}
	}
}

func TestEvaluatePerspective(t *testing.T) {
	e := NewEvaluator(DefaultWeights())
	for _, pos := range evalPositions {
		b, _ := mustBoard(t, pos)
		white := e.Evaluate(&b, game.White)
		black := e.Evaluate(&b, game.Black)
		if white != -black {
			t.Errorf("%s: white %v, black %v", pos, white, black)
		}
	}
}

func TestEvaluateMirrorSymmetry(t *testing.T) {
	e := NewEvaluator(DefaultWeights())
	for _, pos := range evalPositions {
		b, _ := mustBoard(t, pos)
		m := mirror(b)
		orig, mirrored := e.Evaluate(&b, game.White), e.Evaluate(&m, game.Black)
		if math.Abs(orig-mirrored) > 1e-9 {
			t.Errorf("%s: %v vs mirrored %v", pos, orig, mirrored)
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	e := NewEvaluator(DefaultWeights())
	b, _ := mustBoard(t, evalPositions[1])
	first := e.Evaluate(&b, game.Black)
	for i := 0; i < 10; i++ {
		if got := e.Evaluate(&b, game.Black); got != first {
			t.Fatalf("evaluation changed between calls: %v vs %v", first, got)
		}
	}
}

func TestEvaluateTerms(t *testing.T) {
	tests := []struct {
		name     string
		position string
		weights  Weights
		want     float64
	}{
		{
			name:     "material only",
			position: "k4/5/5/5/5/RN2K w 0",
			weights:  Weights{Knight: 3, Rook: 5, King: 100},
			want:     8,
		},
		{
			name:     "missing black king",
			position: "5/5/5/5/5/4K w 0",
			weights:  Weights{King: 100},
			want:     100,
		},
		{
			// Two white pawns side by side: each is chained once, none isolated
			name:     "pawn chain",
			position: "k4/5/5/5/PP3/4K w 0",
			weights:  Weights{PawnChain: 1, IsolatedPawn: 1},
			want:     2,
		},
		{
			name:     "isolated pawn",
			position: "k4/5/5/5/P1P2/4K w 0",
			weights:  Weights{IsolatedPawn: 1},
			want:     -2,
		},
		{
			name:     "doubled pawn",
			position: "k4/5/5/P4/P4/4K w 0",
			weights:  Weights{DoubledPawn: 1},
			want:     -1,
		},
		{
			// The black pawn on b5 stops a2 and b3 but not d2
			name:     "passed pawns",
			position: "k4/1p3/5/1P3/P2P1/4K w 0",
			weights:  Weights{PassedPawn: 1},
			want:     1,
		},
		{
			name:     "check",
			position: "k3R/5/5/5/5/4K b 0",
			weights:  Weights{Check: 0.5},
			want:     0.5,
		},
		{
			name:     "king distance",
			position: "k4/5/5/5/5/4K w 0",
			weights:  Weights{KingSafety: 1},
			want:     4,
		},
		{
			name:     "center",
			position: "k4/5/2N2/5/5/4K w 0",
			weights:  Weights{Center: 1},
			want:     1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := mustBoard(t, tt.position)
			e := NewEvaluator(tt.weights)
			if got := e.Evaluate(&b, game.White); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}
