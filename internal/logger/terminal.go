package logger

import "github.com/mattn/go-isatty"

// isTerminal reports whether fd is attached to a terminal, so that the text
// handler only emits ANSI colors when someone is watching.
func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
