// Package viz draws particle states in the terminal.
//
// [Canvas] is a Braille pixel grid and [Projection] maps a simulation
// boundary onto it. [Model] is a Bubble Tea program that steps a solver live.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset to the initial state
//	Up/K  - Raise reference density (+5%)
//	Down/J - Lower reference density (-5%)
//	+/-   - More or fewer steps per frame
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	Q     - Quit
package viz
