package gemini

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/waffieu/nyxie/internal/config"
	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/pkg/retry"
)

func testProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.GeminiConfig{
		APIKey:          "test-key",
		Model:           "gemini-2.0-flash",
		Temperature:     0.9,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 256,
		Timeout:         5 * time.Second,
	}
	p := NewProvider(cfg)
	p.baseURL = srv.URL
	return p, srv
}

func TestProviderGenerate(t *testing.T) {
	p, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query: %s", r.URL.String())
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hey there"}]},"finishReason":"STOP"}]}`))
	})

	got, err := p.Generate(context.Background(), core.PromptContext{Incoming: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hey there" {
		t.Errorf("got %q, want %q", got, "hey there")
	}
}

func TestProviderGenerate_SafetyBlockIsPermanent(t *testing.T) {
	p, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`))
	})

	_, err := p.Generate(context.Background(), core.PromptContext{Incoming: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !retry.IsPermanent(err) {
		t.Errorf("safety block should be permanent, got %v", err)
	}
	if !errors.Is(err, core.ErrUpstream) {
		t.Errorf("expected core.ErrUpstream, got %v", err)
	}
}

func TestProviderGenerate_PromptBlockIsPermanent(t *testing.T) {
	p, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	})

	_, err := p.Generate(context.Background(), core.PromptContext{Incoming: "hi"})
	if !retry.IsPermanent(err) {
		t.Errorf("prompt block should be permanent, got %v", err)
	}
}

func TestProviderGenerate_ServerErrorIsRetryable(t *testing.T) {
	p, _ := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := p.Generate(context.Background(), core.PromptContext{Incoming: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if retry.IsPermanent(err) {
		t.Errorf("5xx should be retryable, got %v", err)
	}
	if !errors.Is(err, core.ErrUpstream) {
		t.Errorf("expected core.ErrUpstream, got %v", err)
	}
}

func TestBuildContents(t *testing.T) {
	pc := core.PromptContext{
		ShortTerm: []core.ConversationRecord{
			{Speaker: core.SpeakerUser, Text: "hello"},
			{Speaker: core.SpeakerBot, Text: "hi!"},
		},
		Recall: []core.ConversationRecord{
			{Speaker: core.SpeakerUser, Text: "old message"},
		},
		Incoming: "how are you?",
	}

	contents := buildContents(pc)
	if len(contents) != 4 {
		t.Fatalf("got %d contents, want 4", len(contents))
	}
	if contents[0].Parts[0].Text != "old message" {
		t.Errorf("recall should come first, got %q", contents[0].Parts[0].Text)
	}
	if contents[2].Role != "model" {
		t.Errorf("bot record should map to model role, got %q", contents[2].Role)
	}
	last := contents[len(contents)-1]
	if last.Role != "user" || last.Parts[0].Text != "how are you?" {
		t.Errorf("incoming message should be the final user turn, got %+v", last)
	}
}
