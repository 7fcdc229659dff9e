package httpadapter

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayrun/enact/examples/dice"
	"github.com/relayrun/enact/internal/invoke"
	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

func newTestServer() *Server {
	st := store.New(store.NewMemoryBackend(), resource.Default)
	server := New(st, nil)
	server.Register("rolldice", func(body map[string]any) (invoke.Invokable, resource.Resource, error) {
		sides, _ := body["sides"].(float64)
		count, _ := body["count"].(float64)
		seed, _ := body["seed"].(float64)
		roll := &dice.RollDice{Sides: int64(sides), Count: int64(count), Seed: int64(seed)}
		return roll, roll, nil
	})
	return server
}

func TestHandleInvokeReturnsOutputForRegisteredRoute(t *testing.T) {
	server := newTestServer()

	body, err := json.Marshal(map[string]any{"sides": 6, "count": 3, "seed": 9})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/invoke/rolldice", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
}

func TestHandleInvokeReturnsNotFoundForUnknownRoute(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest("POST", "/invoke/nonexistent", bytes.NewReader([]byte("{}")))
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, 404, rec.Code)
}

func TestHandleInvokeRejectsNonPost(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest("GET", "/invoke/rolldice", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, 405, rec.Code)
}
