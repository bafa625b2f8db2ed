// ABOUTME: Tests for the send, health and logout operator commands
// ABOUTME: Runs them against httptest servers and a temporary session directory

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/config"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/gateway"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/session"
	"github.com/shyguyrymakesai/WhatsApp-AI-Agent/internal/whatsapp"
)

func TestAPIBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000", apiBaseURL("localhost:3000"))
	assert.Equal(t, "http://localhost:3000", apiBaseURL(":3000"))
	assert.Equal(t, "http://localhost:3000", apiBaseURL("0.0.0.0:3000"))
	assert.Equal(t, "http://127.0.0.1:4000", apiBaseURL("127.0.0.1:4000"))
}

func TestRunSend(t *testing.T) {
	var got gateway.SendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, runSend(context.Background(), srv.URL, "15551234567", "hello there", &out))

	assert.Equal(t, gateway.SendRequest{Number: "15551234567", Message: "hello there"}, got)
	assert.Contains(t, out.String(), "sent to 15551234567")
}

func TestRunSend_NotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Client not ready or session inactive."}`))
	}))
	defer srv.Close()

	err := runSend(context.Background(), srv.URL, "1", "x", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Client not ready or session inactive.")
	assert.Contains(t, err.Error(), "503")
}

func healthServer(ready bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			_ = json.NewEncoder(w).Encode(gateway.HealthResponse{Status: "ok", Phase: session.PhaseAwaitingLogin})
		case "/health/ready":
			resp := gateway.ReadyResponse{Ready: ready, Phase: session.PhaseAwaitingLogin}
			if ready {
				resp.Phase = session.PhaseReady
				resp.Identity = "15550000000@c.us"
			} else {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRunHealth(t *testing.T) {
	srv := healthServer(true)
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, runHealth(context.Background(), srv.URL, true, &out))
	assert.Contains(t, out.String(), "phase:    ready")
	assert.Contains(t, out.String(), "identity: 15550000000@c.us")
}

func TestRunHealth_NotReady(t *testing.T) {
	srv := healthServer(false)
	defer srv.Close()

	var out bytes.Buffer
	require.NoError(t, runHealth(context.Background(), srv.URL, false, &out))
	assert.Contains(t, out.String(), "phase:    awaiting_login")

	err := runHealth(context.Background(), srv.URL, true, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
}

func TestRunHealth_Unreachable(t *testing.T) {
	srv := healthServer(true)
	srv.Close()

	err := runHealth(context.Background(), srv.URL, false, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}

func TestRunLogout(t *testing.T) {
	cfg := config.Default()
	cfg.Session.Dir = t.TempDir()
	dbPath := filepath.Join(cfg.Session.Dir, whatsapp.StoreFile)
	require.NoError(t, os.WriteFile(dbPath, []byte("device"), 0600))

	var out bytes.Buffer
	require.NoError(t, runLogout(cfg, &out))

	_, err := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, out.String(), "Session cleared")
}
