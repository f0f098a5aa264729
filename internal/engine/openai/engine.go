// Package openai implements the reasoning engine boundary on top of
// any OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/scholaris/scholaris-backend/internal/engine"
)

// Config holds the engine connection settings.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
}

// Engine talks to an OpenAI-compatible completion endpoint.
type Engine struct {
	client *openai.Client
	cfg    Config
}

// New creates the engine. A missing API key is a construction error so
// that startup fails instead of the first turn.
func New(cfg Config) (*Engine, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("engine API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("engine model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Engine{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Invoke performs a blocking completion.
func (e *Engine) Invoke(ctx context.Context, history []engine.Message, userMessage string) (*engine.Result, error) {
	req := e.buildRequest(history, userMessage)

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("engine returned no choices")
	}

	choice := resp.Choices[0]
	result := &engine.Result{
		Content:     choice.Message.Content,
		ToolCalls:   convertToolCalls(choice.Message.ToolCalls),
		ToolResults: map[string]string{},
	}

	return result, nil
}

// Stream performs a streaming completion. Content deltas are forwarded
// as non-final fragments; tool-call deltas are assembled internally and
// emitted once on the terminal fragment.
func (e *Engine) Stream(ctx context.Context, history []engine.Message, userMessage string) (<-chan engine.Fragment, error) {
	req := e.buildRequest(history, userMessage)
	req.Stream = true

	stream, err := e.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	fragments := make(chan engine.Fragment)

	go func() {
		defer close(fragments)
		defer stream.Close()

		calls := newToolCallAssembler()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				fragments <- engine.Fragment{IsFinal: true, ToolCalls: calls.finish()}
				return
			}
			if err != nil {
				fragments <- engine.Fragment{Err: err}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}

			delta := resp.Choices[0].Delta
			if delta.Content != "" {
				fragments <- engine.Fragment{Content: delta.Content}
			}
			for _, tc := range delta.ToolCalls {
				calls.add(tc)
			}
		}
	}()

	return fragments, nil
}

func (e *Engine) buildRequest(history []engine.Message, userMessage string) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)

	if e.cfg.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: e.cfg.SystemPrompt,
		})
	}

	for _, msg := range history {
		m := openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
		calls := toolCallsFromPayload(msg.ToolCalls)
		m.ToolCalls = calls
		messages = append(messages, m)

		// A stored assistant message carries its tool results inline;
		// the API wants them back as separate tool messages.
		messages = append(messages, toolResultMessages(calls, msg.ToolResults)...)
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})

	return openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		Messages:    messages,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	}
}

// toolCallsFromPayload restores the stored tool-call payload of a
// message to the API shape. Payloads are opaque to the store, so a
// malformed one is skipped rather than failing the turn.
func toolCallsFromPayload(payload string) []openai.ToolCall {
	if payload == "" {
		return nil
	}
	var calls []engine.ToolCall
	if err := json.Unmarshal([]byte(payload), &calls); err != nil || len(calls) == 0 {
		return nil
	}

	out := make([]openai.ToolCall, len(calls))
	for i, c := range calls {
		out[i] = openai.ToolCall{
			ID:   c.ID,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      c.Name,
				Arguments: c.Arguments,
			},
		}
	}
	return out
}

// toolResultMessages expands a stored tool-results payload into one
// tool message per result, ordered by the calls that produced them.
// Results whose call id is not among the descriptors follow in id order.
func toolResultMessages(calls []openai.ToolCall, payload string) []openai.ChatCompletionMessage {
	if payload == "" {
		return nil
	}
	var results map[string]string
	if err := json.Unmarshal([]byte(payload), &results); err != nil || len(results) == 0 {
		return nil
	}

	out := make([]openai.ChatCompletionMessage, 0, len(results))
	for _, call := range calls {
		if content, ok := results[call.ID]; ok {
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    content,
			})
			delete(results, call.ID)
		}
	}

	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			ToolCallID: id,
			Content:    results[id],
		})
	}
	return out
}

func convertToolCalls(calls []openai.ToolCall) []engine.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]engine.ToolCall, len(calls))
	for i, tc := range calls {
		out[i] = engine.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}
	}
	return out
}

// toolCallAssembler folds streamed tool-call deltas back into whole
// calls. Deltas for one call share an index; argument text arrives in
// pieces and is concatenated.
type toolCallAssembler struct {
	byIndex map[int]*engine.ToolCall
	indexes []int
}

func newToolCallAssembler() *toolCallAssembler {
	return &toolCallAssembler{byIndex: make(map[int]*engine.ToolCall)}
}

func (a *toolCallAssembler) add(delta openai.ToolCall) {
	index := 0
	if delta.Index != nil {
		index = *delta.Index
	}

	call, ok := a.byIndex[index]
	if !ok {
		call = &engine.ToolCall{}
		a.byIndex[index] = call
		a.indexes = append(a.indexes, index)
	}

	if delta.ID != "" {
		call.ID = delta.ID
	}
	if delta.Function.Name != "" {
		call.Name = delta.Function.Name
	}
	call.Arguments += delta.Function.Arguments
}

func (a *toolCallAssembler) finish() []engine.ToolCall {
	if len(a.indexes) == 0 {
		return nil
	}
	sort.Ints(a.indexes)
	out := make([]engine.ToolCall, 0, len(a.indexes))
	for _, index := range a.indexes {
		out = append(out, *a.byIndex[index])
	}
	return out
}
