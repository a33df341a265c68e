package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllama_Generate(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
				t.Errorf("decode payload: %v", err)
			}
			json.NewEncoder(w).Encode(map[string]string{"response": "four"})
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	o := NewOllama("qwen3:8b", srv.URL)
	if !o.Available(context.Background()) {
		t.Error("Available = false against live server")
	}

	got, err := o.Generate(context.Background(), Request{Prompt: "2+2?", System: "be terse"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "four" {
		t.Errorf("response = %q, want %q", got, "four")
	}
	if gotPayload["system"] != "be terse" {
		t.Errorf("system not forwarded: %v", gotPayload)
	}
	if gotPayload["stream"] != false {
		t.Error("streaming must be disabled")
	}
}

func TestOllama_Unavailable(t *testing.T) {
	o := NewOllama("", "http://127.0.0.1:1")
	if o.Available(context.Background()) {
		t.Error("Available = true for unreachable daemon")
	}
}

func TestVLLM_Generate(t *testing.T) {
	var gotPayload map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/completions":
			gotAuth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&gotPayload)
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{{"text": "completion text"}},
			})
		case "/health":
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	v := NewVLLM(srv.URL, "qwen3-8b", "secret")
	if !v.Available(context.Background()) {
		t.Error("Available = false against live server")
	}

	got, err := v.Generate(context.Background(), Request{Prompt: "hello", System: "sys"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "completion text" {
		t.Errorf("response = %q", got)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	// System text folds into the flat prompt.
	if gotPayload["prompt"] != "sys\n\nhello" {
		t.Errorf("prompt = %q", gotPayload["prompt"])
	}
}

func TestLiteLLM_Generate(t *testing.T) {
	var gotPayload struct {
		Messages []map[string]string `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat/completions":
			json.NewDecoder(r.Body).Decode(&gotPayload)
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"content": "chat reply"}},
				},
			})
		case "/health":
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	l := NewLiteLLM(srv.URL, "qwen3-8b", "")
	got, err := l.Generate(context.Background(), Request{Prompt: "hi", System: "sys"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "chat reply" {
		t.Errorf("response = %q", got)
	}
	if len(gotPayload.Messages) != 2 || gotPayload.Messages[0]["role"] != "system" {
		t.Errorf("messages = %v, want system then user", gotPayload.Messages)
	}
}

func TestHTTPProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := NewOllama("", srv.URL)
	if _, err := o.Generate(context.Background(), Request{Prompt: "hi"}); err == nil {
		t.Error("expected error for 500 response")
	}
}
