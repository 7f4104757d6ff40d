package brain

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig()
	cfg.ServerURL = srv.URL
	cfg.Timeout = 2 * time.Second
	return srv, NewClient(cfg, zerolog.Nop())
}

func TestClient_Ask(t *testing.T) {
	var got askRequest
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(askResponse{Text: "Hello back!"})
	})

	reply, err := client.Ask(context.Background(), "hello", "Previous conversation:\nUser: hi\n")
	require.NoError(t, err)
	assert.Equal(t, "Hello back!", reply)

	assert.Equal(t, client.SessionID(), got.SessionID)
	assert.NotEmpty(t, got.RequestID)
	assert.Equal(t, "hello", got.Text)
	assert.Contains(t, got.Context, "User: hi")
	assert.Equal(t, "luma", got.PersonaID)
	assert.True(t, client.IsConnected())
}

func TestClient_RequestIDsDiffer(t *testing.T) {
	var ids []string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		json.NewDecoder(r.Body).Decode(&req)
		ids = append(ids, req.RequestID)
		json.NewEncoder(w).Encode(askResponse{Text: "ok"})
	})

	_, err := client.Ask(context.Background(), "one", "")
	require.NoError(t, err)
	_, err = client.Ask(context.Background(), "two", "")
	require.NoError(t, err)

	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestClient_EmptyReply(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(askResponse{})
	})

	_, err := client.Ask(context.Background(), "hello", "")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestClient_ServiceError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(askResponse{Error: "persona not found"})
	})

	_, err := client.Ask(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persona not found")
}

func TestClient_HTTPError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	var reported error
	client.SetErrorHandler(func(err error) { reported = err })

	_, err := client.Ask(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Error(t, reported)
}

func TestClient_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server starts its background read and can
		// observe the client disconnect, cancelling the request context.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Ask(ctx, "hello", "")
		done <- err
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Ask did not return after cancellation")
	}
}

func TestClient_StatusHandler(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(askResponse{Text: "ok"})
	})

	var statuses []bool
	client.SetStatusHandler(func(connected bool) { statuses = append(statuses, connected) })

	_, err := client.Ask(context.Background(), "hello", "")
	require.NoError(t, err)
	_, err = client.Ask(context.Background(), "again", "")
	require.NoError(t, err)

	// Only the transition fires the handler, not every success.
	assert.Equal(t, []bool{true}, statuses)
}
