package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func chatServer(t *testing.T, handler func(payload chatPayload) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var payload chatPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		status, content := handler(payload)
		w.WriteHeader(status)
		if status < 400 {
			resp := chatResponse{}
			resp.Choices = append(resp.Choices, struct {
				Message struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"message"`
			}{})
			resp.Choices[0].Message.Role = "assistant"
			resp.Choices[0].Message.Content = content
			_ = json.NewEncoder(w).Encode(resp)
		}
	}))
}

func TestClient_Complete(t *testing.T) {
	srv := chatServer(t, func(p chatPayload) (int, string) {
		if p.Model != "alpha/one" {
			t.Errorf("model = %q", p.Model)
		}
		if len(p.Messages) != 2 || p.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", p.Messages)
		}
		return 200, "the answer"
	})
	defer srv.Close()

	c, err := NewClient(srv.URL, "test-key")
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Complete(context.Background(), CompletionRequest{
		Model:     "alpha/one",
		System:    "you are concise",
		User:      "question",
		MaxTokens: 100,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "the answer" {
		t.Errorf("Complete = %q", got)
	}
}

func TestClient_HTTPError(t *testing.T) {
	srv := chatServer(t, func(chatPayload) (int, string) { return 502, "" })
	defer srv.Close()

	c, _ := NewClient(srv.URL, "test-key")
	if _, err := c.Complete(context.Background(), CompletionRequest{Model: "m", User: "q"}); err == nil {
		t.Error("expected error on http 502")
	}
}

func TestClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, "test-key")
	_, err := c.Complete(context.Background(), CompletionRequest{Model: "m", User: "q"})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("err = %v, want ErrEmptyCompletion", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, "test-key")
	start := time.Now()
	_, err := c.Complete(context.Background(), CompletionRequest{
		Model: "m", User: "q", Timeout: 50 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout not honored, took %v", elapsed)
	}
}

func TestClient_CompleteStructured(t *testing.T) {
	srv := chatServer(t, func(p chatPayload) (int, string) {
		if p.ResponseFormat == nil {
			t.Error("expected response_format in payload")
		}
		var format struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(p.ResponseFormat, &format)
		if format.Type != "json_schema" {
			t.Errorf("response_format.type = %q", format.Type)
		}
		return 200, `{"decision":"Needs Revision"}`
	})
	defer srv.Close()

	c, _ := NewClient(srv.URL, "test-key")
	raw, err := c.CompleteStructured(context.Background(), CompletionRequest{Model: "m", User: "q"},
		"verdict", json.RawMessage(`{"type":"object"}`))
	if err != nil {
		t.Fatalf("CompleteStructured: %v", err)
	}
	if !json.Valid(raw) {
		t.Errorf("structured output not valid JSON: %s", raw)
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient("http://x", ""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}
