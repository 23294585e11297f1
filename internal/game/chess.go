package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Board dimensions
const (
	Rows = 6
	Cols = 5
)

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Kind is a piece type. The zero value means "no piece".
type Kind uint8

const (
	None Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindLetters = [...]byte{None: '.', Pawn: 'P', Knight: 'N', Bishop: 'B', Rook: 'R', Queen: 'Q', King: 'K'}

// Letter returns the uppercase letter for the kind ('.' for None).
func (k Kind) Letter() byte {
	return kindLetters[k]
}

// Piece is an immutable (color, kind) value. The zero Piece is an empty cell.
type Piece struct {
	Color Color
	Kind  Kind
}

// Empty reports whether the cell holds no piece.
func (p Piece) Empty() bool {
	return p.Kind == None
}

// Letter returns the piece letter: uppercase = white, lowercase = black, '.' = empty.
func (p Piece) Letter() byte {
	l := p.Kind.Letter()
	if p.Color == Black && p.Kind != None {
		l += 'a' - 'A'
	}
	return l
}

func pieceFromLetter(c byte) (Piece, bool) {
	color := White
	if c >= 'a' && c <= 'z' {
		color = Black
		c -= 'a' - 'A'
	}
	for k := Pawn; k <= King; k++ {
		if kindLetters[k] == c {
			return Piece{Color: color, Kind: k}, true
		}
	}
	return Piece{}, false
}

// Square is a board coordinate. Row 0 is Black's back rank, row 5 is White's.
type Square struct {
	Row int
	Col int
}

// InBounds reports whether the square lies on the 5x6 board.
func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < Rows && s.Col >= 0 && s.Col < Cols
}

// String converts the square to a..e / 1..6 notation, rank 1 at the bottom.
func (s Square) String() string {
	if !s.InBounds() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%c", 'a'+s.Col, '0'+Rows-s.Row)
}

// ParseSquare converts notation like "a1" to a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return Square{}, fmt.Errorf("invalid square: %q", s)
	}
	sq := Square{Row: Rows - int(s[1]-'0'), Col: int(s[0] - 'a')}
	if s[1] < '1' || !sq.InBounds() {
		return Square{}, fmt.Errorf("invalid square: %q", s)
	}
	return sq, nil
}

func mustInBounds(s Square) {
	if !s.InBounds() {
		panic(fmt.Sprintf("game: square out of bounds: row=%d col=%d", s.Row, s.Col))
	}
}

// Move is a from/to pair. Promotion needs no field: pawns always become queens.
type Move struct {
	From Square
	To   Square
}

func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// Board is a fixed 6x5 grid indexed [row][col]. It is a value type: assigning
// a Board copies it, so lookahead never aliases the live position.
type Board [Rows][Cols]Piece

// At returns the piece on sq. It panics if sq is off the board.
func (b *Board) At(sq Square) Piece {
	mustInBounds(sq)
	return b[sq.Row][sq.Col]
}

// Set places p on sq. It panics if sq is off the board.
func (b *Board) Set(sq Square, p Piece) {
	mustInBounds(sq)
	b[sq.Row][sq.Col] = p
}

// FindKing returns the square of color's king, or false if it has been captured.
func (b *Board) FindKing(color Color) (Square, bool) {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if p := b[r][c]; p.Kind == King && p.Color == color {
				return Square{Row: r, Col: c}, true
			}
		}
	}
	return Square{}, false
}

// promotionRow is the far rank a pawn of the given color promotes on.
func promotionRow(c Color) int {
	if c == White {
		return 0
	}
	return Rows - 1
}

// Apply returns a copy of the board with m played. Whatever stood on m.To is
// captured, and a pawn reaching the far rank becomes a queen.
func (b Board) Apply(m Move) Board {
	piece := b.At(m.From)
	mustInBounds(m.To)
	if piece.Kind == Pawn && m.To.Row == promotionRow(piece.Color) {
		piece.Kind = Queen
	}
	b[m.To.Row][m.To.Col] = piece
	b[m.From.Row][m.From.Col] = Piece{}
	return b
}

// InitialBoard returns the starting layout: back rank Rook-Knight-Bishop-Queen-King
// for both sides with a full pawn rank in front.
func InitialBoard() Board {
	var b Board
	back := [Cols]Kind{Rook, Knight, Bishop, Queen, King}
	for c := 0; c < Cols; c++ {
		b[0][c] = Piece{Color: Black, Kind: back[c]}
		b[1][c] = Piece{Color: Black, Kind: Pawn}
		b[Rows-2][c] = Piece{Color: White, Kind: Pawn}
		b[Rows-1][c] = Piece{Color: White, Kind: back[c]}
	}
	return b
}

// String renders the placement as rows top to bottom separated by '/', with
// runs of empty cells collapsed to digits.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		empty := 0
		for c := 0; c < Cols; c++ {
			p := b[r][c]
			if p.Empty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if r < Rows-1 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// ParseBoard parses the placement field produced by Board.String.
func ParseBoard(s string) (Board, error) {
	var b Board
	rows := strings.Split(s, "/")
	if len(rows) != Rows {
		return b, fmt.Errorf("invalid placement: expected %d rows, got %d", Rows, len(rows))
	}
	for r, row := range rows {
		c := 0
		for i := 0; i < len(row); i++ {
			ch := row[i]
			if ch >= '1' && ch <= '9' {
				c += int(ch - '0')
				continue
			}
			p, ok := pieceFromLetter(ch)
			if !ok {
				return b, fmt.Errorf("invalid placement: unknown piece %q in row %d", ch, r)
			}
			if c >= Cols {
				return b, fmt.Errorf("invalid placement: row %d overflows", r)
			}
			b[r][c] = p
			c++
		}
		if c != Cols {
			return b, fmt.Errorf("invalid placement: row %d has %d cells", r, c)
		}
	}
	return b, nil
}

// ParsePosition parses "<placement> <w|b> <ply>" into its parts.
func ParsePosition(s string) (Board, Color, int, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return Board{}, White, 0, fmt.Errorf("invalid position: expected 3 fields, got %d", len(parts))
	}
	b, err := ParseBoard(parts[0])
	if err != nil {
		return Board{}, White, 0, err
	}
	var toMove Color
	switch parts[1] {
	case "w":
		toMove = White
	case "b":
		toMove = Black
	default:
		return Board{}, White, 0, fmt.Errorf("invalid position: side %q", parts[1])
	}
	ply, err := strconv.Atoi(parts[2])
	if err != nil || ply < 0 {
		return Board{}, White, 0, fmt.Errorf("invalid position: ply %q", parts[2])
	}
	return b, toMove, ply, nil
}

// FormatPosition is the inverse of ParsePosition.
func FormatPosition(b Board, toMove Color, ply int) string {
	side := "w"
	if toMove == Black {
		side = "b"
	}
	return fmt.Sprintf("%s %s %d", b.String(), side, ply)
}
