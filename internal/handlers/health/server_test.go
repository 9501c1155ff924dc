package health

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleLiveness(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handleLiveness(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "alive", string(body))
}

func TestServerStartStop(t *testing.T) {
	srv := NewServer("127.0.0.1:0")

	done := make(chan error, 1)
	go func() {
		done <- srv.Start()
	}()

	require.NoError(t, srv.Stop(t.Context()))
	assert.NoError(t, <-done)
}
