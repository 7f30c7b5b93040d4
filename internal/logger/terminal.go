package logger

import "golang.org/x/term"

// isTerminal reports whether fd is attached to a terminal; color output is
// enabled only then.
func isTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}
