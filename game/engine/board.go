package engine

import "errors"

// Board dimensions. The classic game is fixed at six rows by seven columns.
const (
	Rows    = 6
	Columns = 7
)

var (
	ErrInvalidColumn = errors.New("column out of range")
	ErrColumnFull    = errors.New("column is full")
)

// Mark identifies the owner of a cell.
type Mark uint8

const (
	MarkEmpty Mark = iota
	MarkRed
	MarkYellow
)

// String returns a short human-readable name for the mark.
func (m Mark) String() string {
	switch m {
	case MarkRed:
		return "red"
	case MarkYellow:
		return "yellow"
	default:
		return "empty"
	}
}

// Move is one executed move. Moves are recorded in play order; the row is
// re-derived by replay, so only player and column are stored.
type Move struct {
	PlayerName string `json:"player_name"`
	Column     int    `json:"column"`
}

// Board is a 6x7 Connect-Four grid. Row 0 is the top row.
type Board struct {
	cells [Rows][Columns]Mark
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Cell returns the mark at the given position. Out-of-range coordinates
// return MarkEmpty.
func (b *Board) Cell(row, column int) Mark {
	if row < 0 || row >= Rows || column < 0 || column >= Columns {
		return MarkEmpty
	}
	return b.cells[row][column]
}

// Place drops a mark into the given column and returns the row it settled
// in. It fails with ErrInvalidColumn if the column is out of range and with
// ErrColumnFull if the column's top cell is already occupied. The grid is
// unchanged on failure.
func (b *Board) Place(mark Mark, column int) (int, error) {
	if column < 0 || column >= Columns {
		return -1, ErrInvalidColumn
	}
	if b.cells[0][column] != MarkEmpty {
		return -1, ErrColumnFull
	}

	for row := Rows - 1; row >= 0; row-- {
		if b.cells[row][column] == MarkEmpty {
			b.cells[row][column] = mark
			return row, nil
		}
	}

	// Unreachable: the top cell was empty.
	return -1, ErrColumnFull
}

// ColumnPlayable reports whether a mark can be placed in the column.
func (b *Board) ColumnPlayable(column int) bool {
	if column < 0 || column >= Columns {
		return false
	}
	return b.cells[0][column] == MarkEmpty
}

// Full reports whether every column's top cell is occupied.
func (b *Board) Full() bool {
	for column := 0; column < Columns; column++ {
		if b.cells[0][column] == MarkEmpty {
			return false
		}
	}
	return true
}

// Grid returns a copy of the cell matrix for snapshots.
func (b *Board) Grid() [Rows][Columns]Mark {
	return b.cells
}
