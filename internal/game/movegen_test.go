package game

import (
	"sort"
	"testing"
)

func mustPosition(t *testing.T, s string) (Board, Color, int) {
	t.Helper()
	b, side, ply, err := ParsePosition(s)
	if err != nil {
		t.Fatalf("ParsePosition(%q): %v", s, err)
	}
	return b, side, ply
}

func sq(t *testing.T, s string) Square {
	t.Helper()
	out, err := ParseSquare(s)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", s, err)
	}
	return out
}

func squareNames(squares []Square) []string {
	names := make([]string, len(squares))
	for i, s := range squares {
		names[i] = s.String()
	}
	sort.Strings(names)
	return names
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPseudoMoves(t *testing.T) {
	tests := []struct {
		name     string
		position string
		from     string
		want     []string
	}{
		{
			name:     "rook blocked by own pawn",
			position: "k4/5/5/5/P4/R3K w 0",
			from:     "a1",
			want:     []string{"b1", "c1", "d1"},
		},
		{
			name:     "rook stops on enemy piece",
			position: "k4/5/p4/5/5/R3K w 0",
			from:     "a1",
			want:     []string{"a2", "a3", "a4", "b1", "c1", "d1"},
		},
		{
			name:     "pawn push",
			position: "k4/5/5/2P2/5/4K w 0",
			from:     "c3",
			want:     []string{"c4"},
		},
		{
			name:     "pawn blocked forward",
			position: "k4/5/2p2/2P2/5/4K w 0",
			from:     "c3",
			want:     nil,
		},
		{
			name:     "pawn captures diagonally only onto enemies",
			position: "k4/5/1p1N1/2P2/5/4K w 0",
			from:     "c3",
			want:     []string{"b4", "c4"},
		},
		{
			name:     "black pawn moves down the board",
			position: "k4/2p2/1P3/5/5/4K b 0",
			from:     "c5",
			want:     []string{"b4", "c4"},
		},
		{
			name:     "knight in the corner",
			position: "k4/5/5/5/5/N3K w 0",
			from:     "a1",
			want:     []string{"b3", "c2"},
		},
		{
			name:     "bishop moves diagonally",
			position: "k4/5/5/2B2/5/4K w 0",
			from:     "c3",
			want:     []string{"a1", "a5", "b2", "b4", "d2", "d4", "e5"},
		},
		{
			name:     "king boxed in by own pieces",
			position: "k4/5/5/5/3PP/RNBQK w 0",
			from:     "e1",
			want:     nil,
		},
		{
			name:     "queen in the center",
			position: "k4/5/5/2Q2/5/4K w 0",
			from:     "c3",
			want: []string{
				"a1", "a3", "a5", "b2", "b3", "b4", "c1", "c2", "c4", "c5", "c6",
				"d2", "d3", "d4", "e3", "e5",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, _ := mustPosition(t, tt.position)
			got := squareNames(PseudoMoves(&b, sq(t, tt.from)))
			want := append([]string(nil), tt.want...)
			sort.Strings(want)
			if !equalNames(got, want) {
				t.Errorf("PseudoMoves(%s) = %v, want %v", tt.from, got, want)
			}
		})
	}
}

func TestPseudoMovesEmptySquare(t *testing.T) {
	b := InitialBoard()
	if got := PseudoMoves(&b, sq(t, "c3")); got != nil {
		t.Errorf("expected nil for empty square, got %v", got)
	}
}

func TestBoardPanicsOffBoard(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-bounds square")
		}
	}()
	b := InitialBoard()
	b.At(Square{Row: -1, Col: 0})
}

func TestApplyCapturesAndPromotes(t *testing.T) {
	b, _, _ := mustPosition(t, "1r2k/P4/5/5/5/4K w 0")

	next := b.Apply(Move{From: sq(t, "a5"), To: sq(t, "b6")})
	if got := next.At(sq(t, "b6")); got != (Piece{Color: White, Kind: Queen}) {
		t.Errorf("expected white queen on b6, got %c", got.Letter())
	}
	if !next.At(sq(t, "a5")).Empty() {
		t.Error("origin square should be empty")
	}
	if got := b.At(sq(t, "a5")); got.Kind != Pawn {
		t.Error("Apply modified the original board")
	}
}
