// Package ui holds the colour themes shared by the command-line and terminal
// front ends. Themes come in two shapes: ANSI escape sequences for plain
// writers and lipgloss colours for styled rendering.
package ui
