package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/encyclopedia/pkg/core"
)

func TestBacklog_CollapsesPerKey(t *testing.T) {
	var b backlog
	b.push(core.Event{Type: core.EventCreate, Key: "python"})
	b.push(core.Event{Type: core.EventModify, Key: "git"})
	b.push(core.Event{Type: core.EventModify, Key: "python"})
	b.push(core.Event{Type: core.EventDelete, Key: "python"})

	require.Equal(t, 2, b.len())
	assert.Equal(t, core.Event{Type: core.EventDelete, Key: "python"}, b.peek())
	b.pop()
	assert.Equal(t, core.Event{Type: core.EventModify, Key: "git"}, b.peek())
	b.pop()
	assert.Equal(t, 0, b.len())

	b.push(core.Event{Type: core.EventCreate, Key: "python"})
	assert.Equal(t, core.EventCreate, b.peek().Type)
}
