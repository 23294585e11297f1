package game

import "strings"

// Notation renders m, played from before and resulting in after, in short
// algebraic form: "c3", "Nxa4", "bxc4", "a6=Q", with "+" when the side to
// move in after is in check and "#" when the move ended the game with a win.
func Notation(before State, m Move, after State) string {
	b := before.Board()
	piece := b.At(m.From)
	isCapture := !b.At(m.To).Empty()

	var notation strings.Builder
	if piece.Kind != Pawn {
		notation.WriteByte(piece.Kind.Letter())
	} else if isCapture {
		notation.WriteByte(byte('a' + m.From.Col))
	}
	if isCapture {
		notation.WriteByte('x')
	}
	notation.WriteString(m.To.String())

	if piece.Kind == Pawn && m.To.Row == promotionRow(piece.Color) {
		notation.WriteString("=Q")
	}

	if _, won := after.Outcome().Winner(); won {
		notation.WriteByte('#')
	} else if after.InCheck() {
		notation.WriteByte('+')
	}
	return notation.String()
}
