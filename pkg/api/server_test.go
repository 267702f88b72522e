package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/gse2/pkg/codec"
	"github.com/ssargent/gse2/pkg/gse2"
)

func TestServe_Shutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, l, NewServer(nil, ServerConfig{Read: gse2.DefaultReadOptions()}))
	}()

	url := fmt.Sprintf("http://%s/api/v1/health", l.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStartServer_BadAddress(t *testing.T) {
	err := StartServer(context.Background(), nil, ServerConfig{Bind: "256.0.0.1", Port: 1})
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := setupTestServer(t, "")

	doRequest(h, "POST", "/api/v1/traces", testContainer(t, "AAA", "BBB"), nil)
	doRequest(h, "POST", "/api/v1/traces", []byte("WID2 nonsense\n"), nil)
	doRequest(h, "POST", "/api/v1/convert", testContainer(t, "AAA"), nil)

	w := doRequest(h, "GET", "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "gse2_records_decoded_total 3")
	assert.Contains(t, text, "gse2_records_encoded_total 1")
	assert.Contains(t, text, `gse2_container_failures_total{kind="framing",operation="read"} 1`)
	assert.Contains(t, text, `gse2_http_requests_total{endpoint="/api/v1/traces",method="POST",status_code="422"} 1`)
}

func TestNewServer_IndependentRegistries(t *testing.T) {
	// each server registers its own collectors, so several can coexist
	a := NewServer(nil, ServerConfig{})
	b := NewServer(nil, ServerConfig{})
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestFailureKind(t *testing.T) {
	tests := map[string]error{
		failureFraming:     fmt.Errorf("record 2: %w", gse2.ErrFraming),
		failureChecksum:    gse2.ErrChecksum,
		failureMapping:     fmt.Errorf("%w: station", gse2.ErrFieldMapping),
		failureTimestamp:   gse2.ErrTimestamp,
		failureSampleRange: gse2.ErrSampleRange,
		failureDataType:    codec.ErrUnsupportedDataType,
		failureFieldWidth:  codec.ErrFieldWidth,
		failureOther:       errors.New("boom"),
	}

	for want, err := range tests {
		assert.Equal(t, want, failureKind(err), "error %v", err)
	}
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusForError(gse2.ErrFraming))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusForError(fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 1})))
	assert.Equal(t, http.StatusBadRequest, statusForError(errors.New("unexpected EOF")))
	assert.True(t, strings.HasPrefix(http.StatusText(statusForError(gse2.ErrChecksum)), "Unprocessable"))
}
