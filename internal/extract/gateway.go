package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse means the model's reply could not be parsed into
// the expected envelope even after one cleanup attempt. The turn should
// be surfaced to the user as a polite failure, not retried.
var ErrMalformedResponse = errors.New("extract: malformed model response")

// ErrServiceUnavailable means the completion endpoint could not be
// reached after the client's retry budget was spent.
var ErrServiceUnavailable = errors.New("extract: service unavailable")

// envelope is the wire shape the system prompts instruct the model to
// produce: {"response": <object or string>, "summary": "<intent tag>"}.
type envelope struct {
	Response json.RawMessage `json:"response"`
	Summary  string          `json:"summary"`
}

// Gateway turns raw model completions into typed Results.
type Gateway struct {
	client Client
}

// NewGateway creates a Gateway. The client is required.
func NewGateway(client Client) (*Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("extract: client is required")
	}
	return &Gateway{client: client}, nil
}

// Extract sends the stage instructions, conversation history, and the
// user's latest turn to the model and parses the reply.
func (g *Gateway) Extract(ctx context.Context, stageInstructions string, history []Message, userText string) (*Result, error) {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: stageInstructions})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userText})

	raw, err := g.client.Complete(ctx, messages)
	if err != nil {
		if errors.Is(err, ErrServiceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	result, err := ParseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ParseEnvelope parses a model reply into a Result. If the reply is not
// valid JSON it makes one cleanup pass stripping markdown code fences
// and surrounding prose before giving up with ErrMalformedResponse.
func ParseEnvelope(raw string) (*Result, error) {
	env, err := parseOnce(raw)
	if err != nil {
		cleaned := stripFences(raw)
		if cleaned == raw {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		env, err = parseOnce(cleaned)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return envelopeToResult(env)
}

func parseOnce(raw string) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, err
	}
	if len(env.Response) == 0 {
		return nil, fmt.Errorf("missing response field")
	}
	if env.Summary == "" {
		return nil, fmt.Errorf("missing summary field")
	}
	return &env, nil
}

// stripFences removes a markdown code fence wrapper and any prose
// before or after the outermost JSON object.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

func envelopeToResult(env *envelope) (*Result, error) {
	trimmed := strings.TrimSpace(string(env.Response))

	if strings.HasPrefix(trimmed, "{") {
		var fields Fields
		if err := json.Unmarshal(env.Response, &fields); err != nil {
			return nil, fmt.Errorf("%w: response object: %v", ErrMalformedResponse, err)
		}
		return &Result{Kind: KindStructuredData, Fields: fields, Summary: env.Summary}, nil
	}

	var text string
	if err := json.Unmarshal(env.Response, &text); err != nil {
		return nil, fmt.Errorf("%w: response is neither object nor string", ErrMalformedResponse)
	}

	if cmd, ok := commandFromSummary(env.Summary); ok {
		return &Result{Kind: KindCommand, Command: cmd, Text: text, Summary: env.Summary}, nil
	}
	return &Result{Kind: KindFreeText, Text: text, Summary: env.Summary}, nil
}

// commandFromSummary maps intent tags that carry control meaning onto
// Commands. Conversational tags like "yes" or "awaiting_confirmation"
// pass through as free text.
func commandFromSummary(summary string) (Command, bool) {
	switch strings.ToLower(strings.TrimSpace(summary)) {
	case "create_ticket":
		return CommandCreate, true
	case "edit_ticket", "update_ticket":
		return CommandEdit, true
	case "exit", "quit", "end":
		return CommandExit, true
	case "unknown":
		return CommandUnknown, true
	}
	return "", false
}
