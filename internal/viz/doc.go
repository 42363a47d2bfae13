// Package viz renders propagation results in the terminal: lipgloss panels
// for summaries, asciigraph altitude plots, a braille orbit canvas and the
// bubbletea model behind the watch command.
//
// # Watch key bindings
//
//	Space - Pause/Resume propagation
//	+/-   - Double/halve simulated time per frame
//	T     - Cycle color themes
//	R     - Restart from the initial state
//	Q     - Quit
package viz
