package bridge

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIsConnectionError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"dns error", &net.DNSError{Name: "nope.invalid"}, true},
		{"wrapped message", errors.New("dial tcp: connection refused"), true},
		{"unrelated", errors.New("bad request"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsConnectionError(tc.err); got != tc.want {
				t.Errorf("IsConnectionError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsServerRunning(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if !IsServerRunning(ts.URL) {
		t.Error("healthy server should report running")
	}

	ts.Close()
	if IsServerRunning(ts.URL) {
		t.Error("closed server should not report running")
	}
}

func TestWaitForServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if err := WaitForServer(context.Background(), ts.URL, 2*time.Second); err != nil {
		t.Errorf("WaitForServer against a live server: %v", err)
	}

	if err := WaitForServer(context.Background(), "http://127.0.0.1:1", 300*time.Millisecond); err == nil {
		t.Error("WaitForServer against a dead port should time out")
	}
}
