package feedback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleEmitsLines(t *testing.T) {
	var out strings.Builder
	c := NewConsole(&out)

	c.Emit("starting...")
	c.Emitf("started. (%d)", 42)
	assert.Equal(t, "starting...\nstarted. (42)\n", out.String())
}

func TestConsoleProgressTick(t *testing.T) {
	var out strings.Builder
	c := NewConsole(&out)

	c.Emit(`.\`)
	c.Emit(`.\`)
	c.Emit("done")
	assert.Equal(t, "..done\n", out.String())
}

func TestBufferRecords(t *testing.T) {
	b := &Buffer{}
	b.Emit("one")
	b.Warnf("bad %s", "thing")

	assert.Equal(t, []string{"one", "Warning: bad thing"}, b.Lines())
	assert.True(t, b.Contains("bad"))
	assert.False(t, b.Contains("missing"))
}
