package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestSender_SendsOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.Header.Get("SOAPAction"); got != "getLead" {
			t.Errorf("expected SOAPAction getLead, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "<ping/>" {
			t.Errorf("unexpected body %q", body)
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<fault/>"))
	}))
	defer srv.Close()

	c := NewClientWithLogger(zaptest.NewLogger(t), time.Second, 5)
	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("<ping/>"))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("SOAPAction", "getLead")

	resp, err := c.Sender().Do(req)
	if err != nil {
		t.Fatalf("expected response, got error %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusInternalServerError || string(body) != "<fault/>" {
		t.Errorf("unexpected response %d %q", resp.StatusCode, body)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestDo_PostIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClientWithLogger(zaptest.NewLogger(t), time.Second, 3)
	_, err := c.Do(RequestOptions{
		Method:          http.MethodPost,
		URL:             srv.URL,
		Body:            []byte("<requestCampaign/>"),
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected POST to be sent once, got %d calls", got)
	}
}

func TestGet_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClientWithLogger(zaptest.NewLogger(t), time.Second, 1)
	if _, err := c.Get(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("expected error for 502")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestGet_RetriesWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClientWithLogger(zaptest.NewLogger(t), time.Second, 3)
	resp, err := c.Do(RequestOptions{
		Method:          http.MethodGet,
		URL:             srv.URL,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestGet_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClientWithLogger(zaptest.NewLogger(t), time.Second, 5)
	if _, err := c.Get(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("expected error for 404")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call for permanent error, got %d", got)
	}
}

func TestBuildURL(t *testing.T) {
	got, err := BuildURL("https://na-i.marketo.com", "/soap/mktows/2_2", "WSDL")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if want := "https://na-i.marketo.com/soap/mktows/2_2?WSDL"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if _, err := BuildURL("na-i.marketo.com", "/x", ""); err == nil {
		t.Error("expected error for URL without scheme")
	}
}
