package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetJSONWithRetryRecovers(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[1,2,3]}`))
	}))
	defer srv.Close()

	var out struct {
		Data []int `json:"data"`
	}
	err := NewClient().GetJSONWithRetry(context.Background(), srv.URL, &out, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("GetJSONWithRetry: %v", err)
	}
	if len(out.Data) != 3 || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("data=%v calls=%d", out.Data, calls)
	}
}

func TestGetJSONWithRetryExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient().GetJSONWithRetry(context.Background(), srv.URL, nil, 2, time.Millisecond)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Fatalf("err = %v, want StatusError 500", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestGetJSONDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("accept = %q", r.Header.Get("Accept"))
		}
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var out map[string]interface{}
	if err := NewClient(WithTimeout(time.Second)).GetJSON(context.Background(), srv.URL, &out); err == nil {
		t.Fatal("expected decode error")
	}
}
