// Package engine provides the core Connect-Four board logic.
//
// The engine package implements:
//   - A fixed 6x7 grid with gravity-based mark placement
//   - Column validation (range and fullness checks)
//   - Win detection through the last placed cell
//   - Full-board detection
//   - Board reconstruction from an ordered move log
//
// Core Types:
//
// Board holds the grid state. Mark identifies which player occupies a cell
// (MarkRed for the first player slot, MarkYellow for the second). Move is a
// single executed move, kept in order so spectators joining late can replay
// the game.
//
// Coordinates:
//
// Row 0 is the top of the board. A column is playable exactly while its top
// cell is empty; a placed mark never moves or changes.
//
// Usage:
//
//	board := engine.NewBoard()
//	row, err := board.Place(engine.MarkRed, 3)
//	if err != nil {
//		// engine.ErrColumnFull or engine.ErrInvalidColumn
//	}
//	if board.HasWinAt(engine.MarkRed, row, 3) {
//		// red wins
//	}
//
// The package is purely computational: no goroutines, no locks, no I/O.
// Callers that share a Board across goroutines must serialize access.
package engine
