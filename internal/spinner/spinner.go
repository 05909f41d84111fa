// Package spinner shows progress of long batch passes on a terminal.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const interval = 80 * time.Millisecond

// Start displays an animated spinner with the given message on w.
// Call the returned function to stop the spinner and clear the line.
func Start(w io.Writer, message string) (stop func()) {
	done := make(chan struct{})
	cleared := make(chan struct{})
	var stopOnce sync.Once
	width := runewidth.StringWidth(message) + 2

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-done:
				fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", width)) //nolint:errcheck
				close(cleared)
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], message) //nolint:errcheck
				i++
			}
		}
	}()
	return func() {
		stopOnce.Do(func() {
			close(done)
		})
		<-cleared
	}
}

// StartOnTerminal starts a spinner on f only when f is a terminal, so
// redirected logs stay clean. Otherwise the returned stop does nothing.
func StartOnTerminal(f *os.File, message string) (stop func()) {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return func() {}
	}
	return Start(f, message)
}
