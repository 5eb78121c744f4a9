package tagger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatClientCompletes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "deepseek-chat" || len(req.Messages) != 2 || req.Messages[1].Content != "hello" {
			t.Errorf("unexpected request payload: %+v", req)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"ok\":true}  "}}]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewChatClient(ChatConfig{APIBase: srv.URL, APIKey: "sk-test"}, srv.Client())
	out, err := client.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("expected trimmed content, got %q", out)
	}
}

func TestChatClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	client := NewChatClient(ChatConfig{}, nil)
	if _, err := client.Complete(context.Background(), "hello"); err == nil || !strings.Contains(err.Error(), "api key missing") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestChatClientSurfacesHTTPErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client := NewChatClient(ChatConfig{APIBase: srv.URL, APIKey: "sk-test"}, srv.Client())
	if _, err := client.Complete(context.Background(), "hello"); err == nil || !strings.Contains(err.Error(), "chat http 429") {
		t.Fatalf("expected http error, got %v", err)
	}
}

func TestChatClientRejectsEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewChatClient(ChatConfig{APIBase: srv.URL, APIKey: "sk-test"}, srv.Client())
	if _, err := client.Complete(context.Background(), "hello"); err == nil || !strings.Contains(err.Error(), "chat response empty") {
		t.Fatalf("expected empty response error, got %v", err)
	}
}
