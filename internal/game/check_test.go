package game

import "testing"

func TestInitialLegalMoves(t *testing.T) {
	b := InitialBoard()
	for _, color := range []Color{White, Black} {
		if got := len(AllLegalMoves(&b, color)); got != 7 {
			t.Errorf("%s: expected 7 legal moves, got %d", color, got)
		}
	}

	moves := AllLegalMoves(&b, White)
	if moves[0] != (Move{From: sq(t, "a2"), To: sq(t, "a3")}) {
		t.Errorf("expected a2a3 first, got %s", moves[0])
	}
	last := moves[len(moves)-1]
	if last != (Move{From: sq(t, "b1"), To: sq(t, "c3")}) {
		t.Errorf("expected b1c3 last, got %s", last)
	}
}

func TestInCheck(t *testing.T) {
	tests := []struct {
		name     string
		position string
		color    Color
		want     bool
	}{
		{"initial white", "rnbqk/ppppp/5/5/PPPPP/RNBQK w 0", White, false},
		{"rook on the file", "k3r/5/5/5/5/4K w 0", White, true},
		{"rook blocked", "k3r/5/4p/5/5/4K w 0", White, false},
		{"knight check", "k4/5/5/5/2n2/4K w 0", White, true},
		{"pawn check", "k4/5/5/5/3p1/4K w 0", White, true},
		{"pawn straight ahead does not check", "k4/5/5/5/4p/4K w 0", White, false},
		{"king captured", "k4/5/5/5/5/R4 w 0", White, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, _ := mustPosition(t, tt.position)
			if got := InCheck(&b, tt.color); got != tt.want {
				t.Errorf("InCheck = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLegalMovesPinnedRook(t *testing.T) {
	b, _, _ := mustPosition(t, "k3r/5/5/5/4R/4K w 0")

	got := squareNames(LegalMoves(&b, sq(t, "e2")))
	want := []string{"e3", "e4", "e5", "e6"}
	if !equalNames(got, want) {
		t.Errorf("pinned rook: got %v, want %v", got, want)
	}
}

func TestLegalMovesKeepKingCapture(t *testing.T) {
	// White is in check from d1 but can take the black king on a6
	b, _, _ := mustPosition(t, "k4/5/5/5/5/R2rK w 0")

	got := squareNames(LegalMoves(&b, sq(t, "a1")))
	want := []string{"a6", "d1"}
	if !equalNames(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLegalMovesSubsetOfPseudoMoves(t *testing.T) {
	positions := []string{
		"rnbqk/ppppp/5/5/PPPPP/RNBQK w 0",
		"k3r/5/5/5/4R/4K w 0",
		"k4/5/5/5/5/R2rK w 0",
		"r1b1k/pp1pp/2n2/1Q3/PP1PP/R1B1K b 6",
	}
	for _, pos := range positions {
		b, _, _ := mustPosition(t, pos)
		for r := 0; r < Rows; r++ {
			for c := 0; c < Cols; c++ {
				from := Square{Row: r, Col: c}
				pseudo := make(map[Square]bool)
				for _, to := range PseudoMoves(&b, from) {
					pseudo[to] = true
				}
				for _, to := range LegalMoves(&b, from) {
					if !pseudo[to] {
						t.Errorf("%s: legal move %s%s is not a pseudo-move", pos, from, to)
					}
				}
			}
		}
	}
}

func TestHasLegalMoves(t *testing.T) {
	b, _, _ := mustPosition(t, "k4/5/1Q3/5/5/4K b 0")
	if HasLegalMoves(&b, Black) {
		t.Error("black king should have no legal moves")
	}
	if !HasLegalMoves(&b, White) {
		t.Error("white should have legal moves")
	}
}

// TestPseudoMovesAndCheckAlongGame walks a fixed line of play from the
// initial position and checks every square of every board on the way.
func TestPseudoMovesAndCheckAlongGame(t *testing.T) {
	s := InitialState()
	for ply := 0; ply < 60 && !s.Terminal(); ply++ {
		b := s.Board()
		for r := 0; r < Rows; r++ {
			for c := 0; c < Cols; c++ {
				from := Square{Row: r, Col: c}
				piece := b.At(from)
				for _, to := range PseudoMoves(&b, from) {
					if dest := b.At(to); !dest.Empty() && dest.Color == piece.Color {
						t.Errorf("ply %d: %s%s lands on its own %c", ply, from, to, dest.Letter())
					}
				}
			}
		}
		for _, color := range []Color{White, Black} {
			if first, second := InCheck(&b, color), InCheck(&b, color); first != second {
				t.Errorf("ply %d: InCheck(%s) returned %v then %v", ply, color, first, second)
			}
		}

		moves := s.AllLegalMoves()
		next, err := s.Apply(moves[(ply*7+3)%len(moves)])
		if err != nil {
			t.Fatalf("ply %d: %v", ply, err)
		}
		s = next
	}
}
