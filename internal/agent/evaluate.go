package agent

import (
	"minichess/internal/game"
)

// Weights holds the tunable coefficients of every evaluation term. A zero
// weight disables its term.
type Weights struct {
	// Material, per piece
	Pawn   float64
	Knight float64
	Bishop float64
	Rook   float64
	Queen  float64
	King   float64

	// Pawn structure, per pawn
	PawnCount    float64
	PawnChain    float64
	IsolatedPawn float64
	DoubledPawn  float64
	PassedPawn   float64

	// Positional
	Center     float64 // per piece on a central square
	Mobility   float64 // per legal move
	KingSafety float64 // per square of distance from the ideal king square

	// Check status
	Check float64
}

// MaterialWeights scores material, pawn structure and check status only.
func MaterialWeights() Weights {
	return Weights{
		Pawn:   1,
		Knight: 3,
		Bishop: 3.5,
		Rook:   5,
		Queen:  9,
		King:   100,

		PawnCount:    0.1,
		PawnChain:    0.2,
		IsolatedPawn: 0.3,
		DoubledPawn:  0.2,
		PassedPawn:   0.4,

		Check: 0.5,
	}
}

// DefaultWeights adds the positional terms to MaterialWeights.
func DefaultWeights() Weights {
	w := MaterialWeights()
	w.Center = 0.1
	w.Mobility = 0.05
	w.KingSafety = 0.1
	return w
}

// Ideal king squares: the starting squares, tucked into the back corner.
var idealKing = [2]game.Square{
	game.White: {Row: game.Rows - 1, Col: game.Cols - 1},
	game.Black: {Row: 0, Col: game.Cols - 1},
}

// Evaluator scores positions with a fixed set of weights.
type Evaluator struct {
	Weights Weights
}

// NewEvaluator creates an evaluator with the given weights.
func NewEvaluator(w Weights) *Evaluator {
	return &Evaluator{Weights: w}
}

func (e *Evaluator) pieceValue(k game.Kind) float64 {
	switch k {
	case game.Pawn:
		return e.Weights.Pawn
	case game.Knight:
		return e.Weights.Knight
	case game.Bishop:
		return e.Weights.Bishop
	case game.Rook:
		return e.Weights.Rook
	case game.Queen:
		return e.Weights.Queen
	case game.King:
		return e.Weights.King
	}
	return 0
}

// Evaluate returns a score for b where higher is better for perspective.
// Every term is computed per color and differenced White minus Black; the
// total is then signed for the perspective color. It is a pure function of
// its arguments.
func (e *Evaluator) Evaluate(b *game.Board, perspective game.Color) float64 {
	w := &e.Weights
	var material, center [2]float64

	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			piece := b[r][c]
			if piece.Empty() {
				continue
			}
			material[piece.Color] += e.pieceValue(piece.Kind)
			if piece.Kind != game.King && isCenter(r, c) {
				center[piece.Color]++
			}
		}
	}

	score := material[game.White] - material[game.Black]

	ps := pawnStructure(b)
	score += w.PawnCount * (ps[game.White].count - ps[game.Black].count)
	score += w.PawnChain * (ps[game.White].chains - ps[game.Black].chains)
	score -= w.IsolatedPawn * (ps[game.White].isolated - ps[game.Black].isolated)
	score -= w.DoubledPawn * (ps[game.White].doubled - ps[game.Black].doubled)
	score += w.PassedPawn * (ps[game.White].passed - ps[game.Black].passed)

	if w.Center != 0 {
		score += w.Center * (center[game.White] - center[game.Black])
	}
	if w.Mobility != 0 {
		white := len(game.AllLegalMoves(b, game.White))
		black := len(game.AllLegalMoves(b, game.Black))
		score += w.Mobility * float64(white-black)
	}
	if w.KingSafety != 0 {
		score -= w.KingSafety * (kingDistance(b, game.White) - kingDistance(b, game.Black))
	}

	if w.Check != 0 {
		if game.InCheck(b, game.White) {
			score -= w.Check
		}
		if game.InCheck(b, game.Black) {
			score += w.Check
		}
	}

	if perspective == game.Black {
		return -score
	}
	return score
}

func isCenter(row, col int) bool {
	return row >= 2 && row <= 3 && col >= 1 && col <= 3
}

// kingDistance is the Chebyshev distance of color's king from its ideal
// square, or zero once the king is gone (material already reflects that).
func kingDistance(b *game.Board, color game.Color) float64 {
	sq, found := b.FindKing(color)
	if !found {
		return 0
	}
	ideal := idealKing[color]
	return float64(max(abs(sq.Row-ideal.Row), abs(sq.Col-ideal.Col)))
}

type pawnStats struct {
	count    float64
	chains   float64
	isolated float64
	doubled  float64
	passed   float64
}

func isPawn(b *game.Board, row, col int, color game.Color) bool {
	if row < 0 || row >= game.Rows || col < 0 || col >= game.Cols {
		return false
	}
	p := b[row][col]
	return p.Kind == game.Pawn && p.Color == color
}

// pawnStructure gathers per-color pawn statistics. Chain and isolation look at
// the flanking squares on the same row; doubling looks one square behind; a
// passed pawn has no enemy pawn ahead of it on its own or an adjacent file.
func pawnStructure(b *game.Board) [2]pawnStats {
	var stats [2]pawnStats
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			p := b[r][c]
			if p.Kind != game.Pawn {
				continue
			}
			st := &stats[p.Color]
			st.count++

			left := isPawn(b, r, c-1, p.Color)
			right := isPawn(b, r, c+1, p.Color)
			if left {
				st.chains++
			}
			if right {
				st.chains++
			}
			if !left && !right {
				st.isolated++
			}

			forward := -1
			if p.Color == game.Black {
				forward = 1
			}
			if isPawn(b, r-forward, c, p.Color) {
				st.doubled++
			}
			if isPassed(b, r, c, p.Color, forward) {
				st.passed++
			}
		}
	}
	return stats
}

func isPassed(b *game.Board, row, col int, color game.Color, forward int) bool {
	enemy := color.Opponent()
	for r := row + forward; r >= 0 && r < game.Rows; r += forward {
		for dc := -1; dc <= 1; dc++ {
			if isPawn(b, r, col+dc, enemy) {
				return false
			}
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
