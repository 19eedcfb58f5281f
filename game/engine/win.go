package engine

// HasWinAt reports whether the given mark completes a line of four or more
// through the cell at (row, column). The four directions are checked in
// order and the first satisfied one short-circuits; all four must be
// candidates because the last placed mark can complete any of them.
func (b *Board) HasWinAt(mark Mark, row, column int) bool {
	return b.lineLength(mark, row, column, 0, 1) >= 4 || // horizontal
		b.lineLength(mark, row, column, 1, 0) >= 4 || // vertical
		b.lineLength(mark, row, column, 1, 1) >= 4 || // down-right diagonal
		b.lineLength(mark, row, column, 1, -1) >= 4 // down-left diagonal
}

// lineLength counts the contiguous run of mark through (row, column) along
// the (dRow, dCol) axis, walking both directions. The origin cell is counted
// once even when it does not yet hold the mark on the board, mirroring a
// just-placed mark.
func (b *Board) lineLength(mark Mark, row, column, dRow, dCol int) int {
	count := 1

	for r, c := row+dRow, column+dCol; r >= 0 && r < Rows && c >= 0 && c < Columns; r, c = r+dRow, c+dCol {
		if b.cells[r][c] != mark {
			break
		}
		count++
	}
	for r, c := row-dRow, column-dCol; r >= 0 && r < Rows && c >= 0 && c < Columns; r, c = r-dRow, c-dCol {
		if b.cells[r][c] != mark {
			break
		}
		count++
	}

	return count
}

// Replay rebuilds a board from an ordered move log. The first player in
// players places MarkRed, the second MarkYellow; any other name is skipped.
// Invalid moves in the log are skipped as well, matching the rule that only
// validated moves are ever recorded.
func Replay(moves []Move, players [2]string) *Board {
	board := NewBoard()
	for _, move := range moves {
		mark := MarkEmpty
		switch move.PlayerName {
		case players[0]:
			mark = MarkRed
		case players[1]:
			mark = MarkYellow
		}
		if mark == MarkEmpty {
			continue
		}
		_, _ = board.Place(mark, move.Column)
	}
	return board
}
