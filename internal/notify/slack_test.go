package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendPostsMessage(t *testing.T) {
	var got postMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer xoxb-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	slack := NewSlack("xoxb-test", "#updates", server.URL)
	if err := slack.Send(context.Background(), "*Work Started*\n- <u|A>\n"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got.Channel != "#updates" {
		t.Fatalf("posted channel = %q, want #updates", got.Channel)
	}
	if got.Text != "*Work Started*\n- <u|A>\n" {
		t.Fatalf("posted text = %q", got.Text)
	}
}

func TestSendSkipsWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request without token")
	}))
	defer server.Close()

	slack := NewSlack("", "#updates", server.URL)
	if err := slack.Send(context.Background(), "message"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestSendSkipsEmptyMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request for empty message")
	}))
	defer server.Close()

	slack := NewSlack("xoxb-test", "#updates", server.URL)
	if err := slack.Send(context.Background(), ""); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
}

func TestSendSurfacesAPIRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error":"channel_not_found"}`)
	}))
	defer server.Close()

	slack := NewSlack("xoxb-test", "#nope", server.URL)
	err := slack.Send(context.Background(), "message")
	if err == nil {
		t.Fatal("Send() error = nil, want API rejection")
	}
}
