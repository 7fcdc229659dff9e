package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayrun/enact/examples/dice"
	"github.com/relayrun/enact/internal/resource"
)

func writeResourceFile(t *testing.T, r resource.Resource) string {
	t.Helper()
	packed, err := resource.Pack(r)
	require.NoError(t, err)
	data, err := resource.Encode(packed)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "resource.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestInvokeCommandPrintsPackedOutput(t *testing.T) {
	path := writeResourceFile(t, &dice.RollDice{Sides: 6, Count: 3, Seed: 42})
	indexPath := filepath.Join(t.TempDir(), "journal.db")

	buf := &bytes.Buffer{}
	cmd := NewInvokeCommand(&RootOptions{Format: "json", ConfigPath: writeIndexConfig(t, indexPath)})
	cmd.SetOut(buf)
	cmd.SetContext(context.Background())
	cmd.SetArgs([]string{"--invokable", path, "--input", path})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestInvokeCommandRequiresFlags(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewInvokeCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{})

	require.Error(t, cmd.Execute())
}

func TestLoadResourceFileRejectsMissingPath(t *testing.T) {
	_, err := loadResourceFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
