package game

var bishopDirs = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
var queenDirs = [][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var kingOffsets = queenDirs
var knightOffsets = [][2]int{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}

// pawnDirection is the row delta of a forward pawn step.
func pawnDirection(c Color) int {
	if c == White {
		return -1
	}
	return 1
}

// PseudoMoves returns the squares the piece on sq could move to, ignoring
// whether the move exposes its own king. An empty square yields nil.
func PseudoMoves(b *Board, sq Square) []Square {
	piece := b.At(sq)
	if piece.Empty() {
		return nil
	}

	switch piece.Kind {
	case Pawn:
		return pawnMoves(b, sq, piece.Color)
	case Knight:
		return stepMoves(b, sq, piece.Color, knightOffsets)
	case Bishop:
		return slidingMoves(b, sq, piece.Color, bishopDirs)
	case Rook:
		return slidingMoves(b, sq, piece.Color, rookDirs)
	case Queen:
		return slidingMoves(b, sq, piece.Color, queenDirs)
	case King:
		return stepMoves(b, sq, piece.Color, kingOffsets)
	}
	return nil
}

func pawnMoves(b *Board, from Square, color Color) []Square {
	var moves []Square
	dir := pawnDirection(color)

	// Forward one, never a capture
	to := Square{Row: from.Row + dir, Col: from.Col}
	if to.InBounds() && b.At(to).Empty() {
		moves = append(moves, to)
	}

	// Diagonal captures only onto enemy pieces
	for _, dc := range []int{-1, 1} {
		to = Square{Row: from.Row + dir, Col: from.Col + dc}
		if !to.InBounds() {
			continue
		}
		if dest := b.At(to); !dest.Empty() && dest.Color != color {
			moves = append(moves, to)
		}
	}
	return moves
}

func stepMoves(b *Board, from Square, color Color, offsets [][2]int) []Square {
	var moves []Square
	for _, off := range offsets {
		to := Square{Row: from.Row + off[0], Col: from.Col + off[1]}
		if !to.InBounds() {
			continue
		}
		if dest := b.At(to); !dest.Empty() && dest.Color == color {
			continue
		}
		moves = append(moves, to)
	}
	return moves
}

// slidingMoves walks outward one step at a time per direction and stops at the
// first occupied square: included if it holds an enemy, excluded if a friend.
func slidingMoves(b *Board, from Square, color Color, dirs [][2]int) []Square {
	var moves []Square
	for _, d := range dirs {
		to := Square{Row: from.Row + d[0], Col: from.Col + d[1]}
		for to.InBounds() {
			dest := b.At(to)
			if !dest.Empty() && dest.Color == color {
				break // own piece
			}
			moves = append(moves, to)
			if !dest.Empty() {
				break // captured enemy piece, stop sliding
			}
			to.Row += d[0]
			to.Col += d[1]
		}
	}
	return moves
}
