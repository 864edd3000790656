package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSubmitAccepted(t *testing.T) {
	var got SendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"accepted": true})
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL, "VOICEDESK", 5*time.Second)
	err := c.Submit(context.Background(), SendRequest{MessageID: "m-1", To: "+15551234567", Body: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sender != "VOICEDESK" {
		t.Fatalf("sender not set: %+v", got)
	}
	if got.To != "+15551234567" {
		t.Fatalf("unexpected recipient: %s", got.To)
	}
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"accepted": false, "detail": "invalid recipient"})
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL, "", 5*time.Second)
	err := c.Submit(context.Background(), SendRequest{MessageID: "m-2", To: "bogus", Body: "x"})
	if err == nil {
		t.Fatal("expected rejection error")
	}
}

func TestSubmitServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewGatewayClient(srv.URL, "", 5*time.Second)
	if err := c.Submit(context.Background(), SendRequest{MessageID: "m-3", To: "+1555", Body: "x"}); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestSubmitNoURL(t *testing.T) {
	c := NewGatewayClient("", "", 0)
	if err := c.Submit(context.Background(), SendRequest{MessageID: "m-4"}); err == nil {
		t.Fatal("expected error when url unset")
	}
}
