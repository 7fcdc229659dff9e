package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayrun/enact/internal/resource"
)

func packedFields(fields map[string]any) resource.PackedResource {
	return resource.PackedResource{Fields: fields}
}

func TestLoadBuiltinRegistersDiceAndChatShapes(t *testing.T) {
	reg, err := LoadBuiltin()
	require.NoError(t, err)
	require.True(t, reg.Has("enact.examples.dice.RollDie"))
	require.True(t, reg.Has("enact.examples.dice.RollDice"))
	require.True(t, reg.Has("enact.examples.chat.Chat"))
	require.False(t, reg.Has("enact.examples.nonexistent.Thing"))
}

func TestValidateResourceAcceptsWellFormedRollDice(t *testing.T) {
	reg, err := LoadBuiltin()
	require.NoError(t, err)

	err = reg.ValidatePacked("enact.examples.dice.RollDice", packedFields(map[string]any{
		"sides": int64(6),
		"count": int64(3),
		"seed":  int64(1),
	}))
	require.NoError(t, err)
}

func TestValidateResourceRejectsTooFewSides(t *testing.T) {
	reg, err := LoadBuiltin()
	require.NoError(t, err)

	err = reg.ValidatePacked("enact.examples.dice.RollDice", packedFields(map[string]any{
		"sides": int64(1),
		"count": int64(3),
		"seed":  int64(1),
	}))
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}
