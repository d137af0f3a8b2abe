package mcp

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil ports returns error", func(t *testing.T) {
		server, err := NewServer(nil, "")
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingAnswerService)
	})

	t.Run("missing search service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Answer: &mockAnswerService{}}, "")
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingSearchService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Answer: &mockAnswerService{},
			Search: &mockSearchService{},
		}, "1.2.3")
		require.NoError(t, err)
		assert.NotNil(t, server)
	})

	t.Run("with document service", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Answer:   &mockAnswerService{},
			Search:   &mockSearchService{},
			Document: &mockDocumentService{},
		}, "")
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestServer_ServeHTTP_StopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{Answer: &mockAnswerService{}, Search: &mockSearchService{}}, "")
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.ServeHTTP(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
