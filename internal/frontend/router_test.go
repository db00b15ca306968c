// Copyright 2025 James Ross
package frontend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joltworks/go-brew-queue/internal/config"
	"github.com/joltworks/go-brew-queue/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testServer() *Server {
	cfg := &config.Config{
		Menu:           config.Menu{Milks: []string{"Oat", "No Milk"}, Textures: []string{"Dry"}},
		SearchDepth:    5,
		MaxBatchVolume: 5,
	}
	engine := queue.NewEngine(cfg, nil, nil, zap.NewNop())
	hub := NewHub(zap.NewNop())
	return NewServer(engine, hub, zap.NewNop())
}

func TestHandleReceiveAcceptsValidOrder(t *testing.T) {
	s := testServer()
	body := []byte(`{"orderID":1,"customer":"Jeff","drinks":[{"drink":"Espresso","milk":"No Milk","shots":2}]}`)

	req := httptest.NewRequest(http.MethodPost, "/receive", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	snap := s.engine.Snapshot()
	assert.Equal(t, 1, snap.TotalDrinks)
}

func TestHandleReceiveRejectsInvalidOrderWithoutMutating(t *testing.T) {
	s := testServer()
	body := []byte(`{"orderID":1,"drinks":[]}`)

	req := httptest.NewRequest(http.MethodPost, "/receive", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	snap := s.engine.Snapshot()
	assert.Equal(t, 0, snap.TotalDrinks)
}

func TestHandleIndexRendersSnapshot(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body, "orders")
	assert.Contains(t, body, "totalOrders")
}
