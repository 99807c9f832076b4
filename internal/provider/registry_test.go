package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{ name string }

func (s stubProvider) Name() string      { return s.name }
func (s stubProvider) Fields() []Field   { return nil }
func (s stubProvider) SignupURI() string { return "" }

func TestRegisterAndGet(t *testing.T) {
	Register(stubProvider{name: "zeta"})
	Register(stubProvider{name: "alpha"})
	t.Cleanup(func() {
		Unregister("zeta")
		Unregister("alpha")
	})

	p, ok := Get("zeta")
	require.True(t, ok)
	assert.Equal(t, "zeta", p.Name())

	_, ok = Get("missing")
	assert.False(t, ok)
}

func TestNamesSorted(t *testing.T) {
	Register(stubProvider{name: "zeta"})
	Register(stubProvider{name: "alpha"})
	t.Cleanup(func() {
		Unregister("zeta")
		Unregister("alpha")
	})

	names := Names()
	require.Contains(t, names, "alpha")
	require.Contains(t, names, "zeta")
	assert.IsIncreasing(t, names)
}

func TestRegisterSkipsEmptyName(t *testing.T) {
	before := len(Names())
	Register(stubProvider{name: ""})
	Register(nil)
	assert.Len(t, Names(), before)
}
