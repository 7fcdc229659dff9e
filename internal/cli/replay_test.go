package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayrun/enact/examples/dice"
	"github.com/relayrun/enact/internal/invoke"
	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

func writeStoreConfig(t *testing.T, storeDir string) string {
	t.Helper()
	indexDir := t.TempDir()
	path := filepath.Join(t.TempDir(), "enact.yaml")
	contents := "store:\n  backend: file\n  path: " + storeDir + "\n" +
		"index:\n  path: " + filepath.Join(indexDir, "journal.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReplayCommandReExecutesJournaledInvocation(t *testing.T) {
	ctx := context.Background()
	storeDir := t.TempDir()

	backend, err := store.NewFileBackend(storeDir)
	require.NoError(t, err)
	st := store.New(backend, resource.Default)

	roll := &dice.RollDice{Sides: 6, Count: 3, Seed: 7}
	inv, err := invoke.Invoke(ctx, st, roll, roll)
	require.NoError(t, err)
	invocationRef, err := st.Commit(ctx, inv)
	require.NoError(t, err)

	cfgPath := writeStoreConfig(t, storeDir)

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "json", ConfigPath: cfgPath})
	cmd.SetOut(buf)
	cmd.SetContext(ctx)
	cmd.SetArgs([]string{"--invocation", invocationRef.Digest})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), `"successful": true`)
}

func TestReplayCommandRequiresInvocationFlag(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.Error(t, cmd.Execute())
}
