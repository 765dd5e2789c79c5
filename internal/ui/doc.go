// Package ui groups the terminal UI components for steamfix output.
//
// The subpackages use the Charm libraries (lipgloss, bubbletea, bubbles)
// for styled terminal output:
//
//   - static: non-interactive tables for issue, result, and backup listings
//   - progress: spinner shown while scanning on a terminal
//   - prompt: the y/N confirmation before applying fixes
//   - styles: the shared color palette, themed from the config file
//
// All interactive output renders on stderr so stdout stays pipeable.
package ui
