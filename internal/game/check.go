package game

// InCheck reports whether color's king is attacked on b. A captured king is
// never "in check"; king capture is detected separately by the state machine.
//
// Attacks are computed from pseudo-moves: legality depends on check, so check
// must not depend on legality.
func InCheck(b *Board, color Color) bool {
	kingPos, found := b.FindKing(color)
	if !found {
		return false
	}

	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			piece := b[r][c]
			if piece.Empty() || piece.Color == color {
				continue
			}
			for _, to := range PseudoMoves(b, Square{Row: r, Col: c}) {
				if to == kingPos {
					return true
				}
			}
		}
	}
	return false
}

// LegalMoves filters the pseudo-moves of the piece on sq down to those that do
// not leave its own king in check. Taking the enemy king ends the game on the
// spot, so such a capture is always kept.
func LegalMoves(b *Board, sq Square) []Square {
	piece := b.At(sq)
	if piece.Empty() {
		return nil
	}

	var legal []Square
	for _, to := range PseudoMoves(b, sq) {
		if dest := b.At(to); dest.Kind == King && dest.Color != piece.Color {
			legal = append(legal, to)
			continue
		}
		next := b.Apply(Move{From: sq, To: to})
		if !InCheck(&next, piece.Color) {
			legal = append(legal, to)
		}
	}
	return legal
}

// AllLegalMoves enumerates every legal move for color, scanning the board
// row-major and each piece's targets in generator order.
func AllLegalMoves(b *Board, color Color) []Move {
	var moves []Move
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			piece := b[r][c]
			if piece.Empty() || piece.Color != color {
				continue
			}
			from := Square{Row: r, Col: c}
			for _, to := range LegalMoves(b, from) {
				moves = append(moves, Move{From: from, To: to})
			}
		}
	}
	return moves
}

// HasLegalMoves reports whether color has at least one legal move.
func HasLegalMoves(b *Board, color Color) bool {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			piece := b[r][c]
			if piece.Empty() || piece.Color != color {
				continue
			}
			if len(LegalMoves(b, Square{Row: r, Col: c})) > 0 {
				return true
			}
		}
	}
	return false
}
