// Package output provides terminal output utilities: a removal progress
// bar and plain-text tables for plans, backups, and run history.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// writerIsTTY reports whether w is an interactive terminal. Plain writers
// such as *bytes.Buffer are never TTYs.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// ProgressBar renders removal progress, e.g.
// [=========>          ] 45% Removing overlay files...
// It is safe for concurrent use, though the removal loop itself is
// single-threaded.
type ProgressBar struct {
	mu          sync.Mutex
	total       int
	current     int
	description string
	width       int
	writer      io.Writer
}

// NewProgress creates a progress bar over total steps.
func NewProgress(total int, description string) *ProgressBar {
	return &ProgressBar{
		total:       total,
		description: description,
		width:       40,
		writer:      os.Stdout,
	}
}

// SetWriter redirects output, which tests use to capture rendering.
func (p *ProgressBar) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = w
}

// Increment advances the bar by one step.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current < p.total {
		p.current++
	}
	p.render()
}

// Finish forces the bar to completion and terminates the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	p.render()
	if writerIsTTY(p.writer) {
		fmt.Fprintln(p.writer)
	}
}

func (p *ProgressBar) render() {
	pct := 100
	if p.total > 0 {
		pct = p.current * 100 / p.total
	}

	filled := 0
	if p.total > 0 {
		filled = p.current * p.width / p.total
	}
	if filled > p.width {
		filled = p.width
	}

	bar := strings.Repeat("=", filled)
	if filled < p.width {
		bar += ">" + strings.Repeat(" ", p.width-filled-1)
	}

	if writerIsTTY(p.writer) {
		fmt.Fprintf(p.writer, "\r[%s] %3d%% %s", bar, pct, p.description)
		return
	}

	// Non-TTY output gets one line per render only at completion, so logs
	// stay readable when output is piped.
	if p.current == p.total {
		fmt.Fprintf(p.writer, "[%s] %3d%% %s\n", bar, pct, p.description)
	}
}
