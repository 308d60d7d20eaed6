package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(b)
}

func newTestClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	client, err := NewHTTPClient(HTTPClientOpts{
		BaseURL:    baseURL,
		Model:      "test-model",
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewHTTPClient_RequiredFields(t *testing.T) {
	tests := []struct {
		name string
		opts HTTPClientOpts
	}{
		{"missing base URL", HTTPClientOpts{Model: "m", APIKey: "k"}},
		{"missing model", HTTPClientOpts{BaseURL: "http://x", APIKey: "k"}},
		{"missing API key", HTTPClientOpts{BaseURL: "http://x", Model: "m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHTTPClient(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHTTPClient_Complete(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		fmt.Fprint(w, completionBody(`{"response": "hello", "summary": "unknown"}`))
	})

	client := newTestClient(t, srv.URL)
	out, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"response": "hello", "summary": "unknown"}` {
		t.Errorf("unexpected completion %q", out)
	}
}

func TestHTTPClient_RetriesOn429(t *testing.T) {
	var calls int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, completionBody("ok"))
	})

	client := newTestClient(t, srv.URL)
	out, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "ok" {
		t.Errorf("unexpected completion %q", out)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
}

func TestHTTPClient_ExhaustsRetries(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := newTestClient(t, srv.URL)
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestHTTPClient_BadRequestNoRetry(t *testing.T) {
	var calls int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})

	client := newTestClient(t, srv.URL)
	_, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("400 should not map to ErrServiceUnavailable: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestParseEnvelope_StructuredData(t *testing.T) {
	raw := `{"response": {"serial_number": "SN200", "device_type": "laptop"}, "summary": "create_ticket"}`
	result, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.Kind != KindStructuredData {
		t.Errorf("expected structured data, got %q", result.Kind)
	}
	if result.Fields.SerialNumber != "SN200" || result.Fields.DeviceType != "laptop" {
		t.Errorf("unexpected fields: %+v", result.Fields)
	}
	if result.Summary != "create_ticket" {
		t.Errorf("unexpected summary %q", result.Summary)
	}
}

func TestParseEnvelope_FreeText(t *testing.T) {
	raw := `{"response": "What device is having trouble?", "summary": "awaiting_confirmation"}`
	result, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.Kind != KindFreeText {
		t.Errorf("expected free text, got %q", result.Kind)
	}
	if result.Text != "What device is having trouble?" {
		t.Errorf("unexpected text %q", result.Text)
	}
}

func TestParseEnvelope_Command(t *testing.T) {
	tests := []struct {
		summary string
		want    Command
	}{
		{"create_ticket", CommandCreate},
		{"edit_ticket", CommandEdit},
		{"exit", CommandExit},
		{"unknown", CommandUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			raw := fmt.Sprintf(`{"response": "ok", "summary": %q}`, tt.summary)
			result, err := ParseEnvelope(raw)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if result.Kind != KindCommand {
				t.Fatalf("expected command, got %q", result.Kind)
			}
			if result.Command != tt.want {
				t.Errorf("expected %q, got %q", tt.want, result.Command)
			}
		})
	}
}

func TestParseEnvelope_StripsCodeFences(t *testing.T) {
	raw := "Here you go:\n```json\n{\"response\": \"hi\", \"summary\": \"unknown\"}\n```\nLet me know."
	result, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result.Kind != KindCommand || result.Command != CommandUnknown {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestParseEnvelope_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "sorry, I cannot help with that"},
		{"missing response", `{"summary": "yes"}`},
		{"missing summary free text", `{"response": "hello there"}`},
		{"missing summary structured", `{"response": {"serial_number": "SN200"}}`},
		{"response is number", `{"response": 42, "summary": "yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEnvelope(tt.raw)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

type stubClient struct {
	reply string
	err   error
	seen  []Message
}

func (s *stubClient) Complete(_ context.Context, messages []Message) (string, error) {
	s.seen = messages
	return s.reply, s.err
}

func TestGateway_Extract_MessageOrder(t *testing.T) {
	stub := &stubClient{reply: `{"response": "hi", "summary": "unknown"}`}
	gw, err := NewGateway(stub)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}

	history := []Message{
		{Role: "user", Content: "earlier turn"},
		{Role: "assistant", Content: "earlier reply"},
	}
	if _, err := gw.Extract(context.Background(), "stage instructions", history, "latest"); err != nil {
		t.Fatalf("extract: %v", err)
	}

	if len(stub.seen) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(stub.seen))
	}
	if stub.seen[0].Role != "system" || stub.seen[0].Content != "stage instructions" {
		t.Errorf("system message not first: %+v", stub.seen[0])
	}
	if stub.seen[3].Role != "user" || stub.seen[3].Content != "latest" {
		t.Errorf("user turn not last: %+v", stub.seen[3])
	}
}

func TestGateway_Extract_ClientError(t *testing.T) {
	stub := &stubClient{err: fmt.Errorf("connection refused")}
	gw, _ := NewGateway(stub)
	_, err := gw.Extract(context.Background(), "instr", nil, "hi")
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}
