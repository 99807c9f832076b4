// Package feedback carries user-facing progress output. Components emit
// through an injected Emitter instead of writing to stdout, so command
// wiring decides the transport and tests can capture it.
package feedback

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Emitter receives progress and warning lines as an operation runs.
type Emitter interface {
	Emit(message string)
	Emitf(format string, args ...any)
	Warnf(format string, args ...any)
}

var warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

// Console writes feedback to a writer, styling warnings.
type Console struct {
	Out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{Out: out}
}

func (c *Console) Emit(message string) {
	// A trailing backslash means "progress tick": print without a newline.
	if strings.HasSuffix(message, `\`) {
		fmt.Fprint(c.Out, message[:len(message)-1])
		return
	}
	fmt.Fprintln(c.Out, message)
}

func (c *Console) Emitf(format string, args ...any) {
	c.Emit(fmt.Sprintf(format, args...))
}

func (c *Console) Warnf(format string, args ...any) {
	fmt.Fprintln(c.Out, warnStyle.Render("Warning: "+fmt.Sprintf(format, args...)))
}

// Buffer records emitted lines for assertions in tests.
type Buffer struct {
	mu    sync.Mutex
	lines []string
}

func (b *Buffer) Emit(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, message)
}

func (b *Buffer) Emitf(format string, args ...any) {
	b.Emit(fmt.Sprintf(format, args...))
}

func (b *Buffer) Warnf(format string, args ...any) {
	b.Emit("Warning: " + fmt.Sprintf(format, args...))
}

// Lines returns a copy of everything emitted so far.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// Contains reports whether any emitted line contains substr.
func (b *Buffer) Contains(substr string) bool {
	for _, line := range b.Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// Discard drops all feedback.
type Discard struct{}

func (Discard) Emit(string) {}

func (Discard) Emitf(string, ...any) {}

func (Discard) Warnf(string, ...any) {}
