// Package viz renders a running simulation in the terminal.
//
// The live view is a Bubble Tea program: a braille [Canvas] shows the
// primary, the top of the atmosphere, falling bodies with their trails and
// impact sites, and a HUD lists the simulation statistics and the local
// atmosphere at the nearest body.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	+ / - - Change time scale
//	S     - Spawn a body
//	R     - Clear and respawn
//	?     - Show help overlay
//	Q     - Quit
package viz
