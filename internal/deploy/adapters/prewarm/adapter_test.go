package prewarm

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

// flakyServer fails the first `failures` requests with 503.
func flakyServer(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		if calls.Add(1) <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			//nolint:errcheck // test server
			_, _ = w.Write([]byte("machine is starting"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestAdapter_Prewarm(t *testing.T) {
	tests := []struct {
		name         string
		failures     int32
		wantCalls    int32
		wantErr      bool
		wantWarnings int
	}{
		{name: "first attempt succeeds", failures: 0, wantCalls: 1},
		{name: "succeeds after retries", failures: 3, wantCalls: 4, wantWarnings: 3},
		{name: "succeeds on the last attempt", failures: 4, wantCalls: 5, wantWarnings: 4},
		{name: "fails after the attempt budget", failures: 10, wantCalls: 5, wantErr: true, wantWarnings: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := flakyServer(t, tt.failures)
			logger, logs := bufferLogger()

			err := New(logger).Prewarm(context.Background(), srv.URL)

			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.Equal(t, tt.wantWarnings, strings.Count(logs.String(), "level=WARN"))
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var pErr *domain.PrewarmError
			require.True(t, errors.As(err, &pErr))
			assert.Equal(t, http.StatusServiceUnavailable, pErr.StatusCode)
			assert.Equal(t, "machine is starting", pErr.Body)
			assert.Equal(t, 5, pErr.Attempts)
			assert.Equal(t, "could not make a prewarm call: 503 machine is starting", err.Error())
		})
	}
}

func TestAdapter_Prewarm_CustomAttempts(t *testing.T) {
	srv, calls := flakyServer(t, 100)
	logger, _ := bufferLogger()

	err := New(logger, WithAttempts(2)).Prewarm(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAdapter_Prewarm_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	logger, _ := bufferLogger()
	err := New(logger, WithAttempts(2), WithTimeout(time.Second)).Prewarm(context.Background(), url)

	var pErr *domain.PrewarmError
	require.True(t, errors.As(err, &pErr))
	assert.Error(t, pErr.Err)
	assert.Zero(t, pErr.StatusCode)
}

func TestAdapter_Prewarm_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	logger, _ := bufferLogger()
	err := New(logger, WithAttempts(1), WithTimeout(50*time.Millisecond)).Prewarm(context.Background(), srv.URL)
	assert.True(t, domain.IsPrewarmError(err))
}

func TestAdapter_Prewarm_Cancelled(t *testing.T) {
	srv, calls := flakyServer(t, 100)
	logger, _ := bufferLogger()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(logger).Prewarm(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, calls.Load(), int32(1))
}
