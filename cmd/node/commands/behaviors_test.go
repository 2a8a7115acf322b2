package commands

import (
	"testing"

	"github.com/mosaicnetworks/stdionode/src/behavior/echo"
	"github.com/mosaicnetworks/stdionode/src/behavior/generate"
	"github.com/mosaicnetworks/stdionode/src/common"
	"github.com/mosaicnetworks/stdionode/src/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBehavior(t *testing.T) {
	logger := common.NewTestEntry(t, common.TestLogLevel)

	b, err := newBehavior(echo.Name, logger)
	require.NoError(t, err)
	assert.IsType(t, &echo.Behavior{}, b)

	b, err = newBehavior(generate.Name, logger)
	require.NoError(t, err)
	assert.IsType(t, &generate.Behavior{}, b)

	registry, err := node.NewRegistry(b)
	require.NoError(t, err)
	_, ok := registry.Lookup(generate.GenerateType)
	assert.True(t, ok)

	_, err = newBehavior("raft", logger)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "echo, generate")
}

func TestBehaviorNames(t *testing.T) {
	assert.Equal(t, []string{"echo", "generate"}, behaviorNames())
}
