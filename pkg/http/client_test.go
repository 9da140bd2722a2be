package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestSendAndParseJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing auth header")
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var calls int
	c := NewClient(WithName("test"), WithObserver(func(name string, status int, _ time.Duration, err error) {
		calls++
		if name != "test" || status != 200 || err != nil {
			t.Errorf("unexpected observation %s %d %v", name, status, err)
		}
	}))

	var out struct{ OK bool }
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:  MethodPost,
		URL:     srv.URL,
		Headers: map[string]string{"Authorization": "Bearer k"},
		Body:    map[string]int{"a": 1},
	}, &out)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !out.OK || calls != 1 {
		t.Fatalf("unexpected result ok=%v calls=%d", out.OK, calls)
	}
}

func TestSendAndParseStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized || se.Body != "nope" {
		t.Fatalf("expected 401 status error, got %v", err)
	}
}

func TestFormBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		v, _ := url.ParseQuery(string(b))
		if v.Get("grant_type") != "password" {
			t.Errorf("unexpected form %s", b)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method:  MethodPost,
		URL:     srv.URL,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    map[string]string{"grant_type": "password"},
	}, nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
}
