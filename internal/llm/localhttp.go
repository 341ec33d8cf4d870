package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LocalHTTP is a Backend talking to an Ollama-style local inference
// server over the exact endpoint set of spec.md §6: /api/generate,
// /api/chat, /api/embeddings, /api/tags, /api/pull, /api/show,
// /api/delete. Request/response struct shapes and the bare http.Client
// usage follow wingthing's OpenAI provider (timeout-bounded client,
// bytes.NewReader request bodies, io.ReadAll + json.Unmarshal responses,
// status-code-to-error mapping).
type LocalHTTP struct {
	baseURL string
	client  *http.Client
}

// NewLocalHTTP builds a LocalHTTP backend against baseURL (e.g.
// "http://localhost:11434"), bounding every non-streaming call by
// timeout.
func NewLocalHTTP(baseURL string, timeout time.Duration) *LocalHTTP {
	return &LocalHTTP{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ndjsonGenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
	Metrics
}

// Metrics is the subset of an Ollama terminal response carrying usage
// accounting, embedded into the final streamed chunk.
type Metrics struct {
	TotalDuration      int64 `json:"total_duration,omitempty"`
	PromptEvalCount    int   `json:"prompt_eval_count,omitempty"`
	EvalCount          int   `json:"eval_count,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ndjsonChatChunk struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
	Metrics
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name       string `json:"name"`
		Size       int64  `json:"size"`
		ModifiedAt string `json:"modified_at"`
		Digest     string `json:"digest"`
	} `json:"models"`
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

type showRequest struct {
	Name string `json:"name"`
}

type showResponse struct {
	Details struct {
		Size   int64  `json:"size"`
		Digest string `json:"digest"`
	} `json:"details"`
	Error string `json:"error,omitempty"`
}

type deleteRequest struct {
	Name string `json:"name"`
}

func (b *LocalHTTP) doJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &InferenceError{Kind: ProtocolMismatch, Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &InferenceError{Kind: Unreachable, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &InferenceError{Kind: ProtocolMismatch, Cause: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return &InferenceError{Kind: ModelUnavailable, Cause: fmt.Errorf("%s", data)}
	}
	if resp.StatusCode >= 500 {
		return &InferenceError{Kind: Unreachable, Cause: fmt.Errorf("status %d: %s", resp.StatusCode, data)}
	}
	if resp.StatusCode >= 400 {
		return &InferenceError{Kind: ProtocolMismatch, Cause: fmt.Errorf("status %d: %s", resp.StatusCode, data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &InferenceError{Kind: ProtocolMismatch, Cause: err}
	}
	return nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &InferenceError{Kind: Cancelled, Cause: ctx.Err()}
	}
	return &InferenceError{Kind: Unreachable, Cause: err}
}

func (b *LocalHTTP) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	var out ndjsonGenerateChunk
	req := generateRequest{Model: opts.Model, Prompt: prompt, Stream: false, Options: opts.Options}
	if err := b.doJSON(ctx, "/api/generate", req, &out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", &InferenceError{Kind: ModelUnavailable, Model: opts.Model, Cause: fmt.Errorf("%s", out.Error)}
	}
	return out.Response, nil
}

func (b *LocalHTTP) Chat(ctx context.Context, messages []Message, opts ChatOptions) (Message, error) {
	var out ndjsonChatChunk
	req := chatRequest{Model: opts.Model, Messages: toWireMessages(messages), Stream: false, Options: opts.Options}
	if err := b.doJSON(ctx, "/api/chat", req, &out); err != nil {
		return Message{}, err
	}
	if out.Error != "" {
		return Message{}, &InferenceError{Kind: ModelUnavailable, Model: opts.Model, Cause: fmt.Errorf("%s", out.Error)}
	}
	return Message{Role: Role(out.Message.Role), Content: out.Message.Content}, nil
}

func (b *LocalHTTP) Embed(ctx context.Context, text, model string) ([]float32, error) {
	var out embedResponse
	req := embedRequest{Model: model, Prompt: text}
	if err := b.doJSON(ctx, "/api/embeddings", req, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, &InferenceError{Kind: ModelUnavailable, Model: model, Cause: fmt.Errorf("%s", out.Error)}
	}
	return out.Embedding, nil
}

func (b *LocalHTTP) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, &InferenceError{Kind: Unreachable, Cause: err}
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	var out tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &InferenceError{Kind: ProtocolMismatch, Cause: err}
	}
	models := make([]ModelInfo, 0, len(out.Models))
	for _, m := range out.Models {
		models = append(models, ModelInfo{Name: m.Name, Size: m.Size, ModifiedAt: m.ModifiedAt, Digest: m.Digest})
	}
	return models, nil
}

func (b *LocalHTTP) PullModel(ctx context.Context, name string) error {
	return b.doJSON(ctx, "/api/pull", pullRequest{Name: name, Stream: false}, nil)
}

func (b *LocalHTTP) DeleteModel(ctx context.Context, name string) error {
	return b.doJSON(ctx, "/api/delete", deleteRequest{Name: name}, nil)
}

func (b *LocalHTTP) ShowModel(ctx context.Context, name string) (ModelInfo, error) {
	var out showResponse
	if err := b.doJSON(ctx, "/api/show", showRequest{Name: name}, &out); err != nil {
		return ModelInfo{}, err
	}
	if out.Error != "" {
		return ModelInfo{}, &InferenceError{Kind: ModelUnavailable, Model: name, Cause: fmt.Errorf("%s", out.Error)}
	}
	return ModelInfo{Name: name, Size: out.Details.Size, Digest: out.Details.Digest}, nil
}

func toWireMessages(messages []Message) []chatMessage {
	wire := make([]chatMessage, len(messages))
	for i, m := range messages {
		wire[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}
	return wire
}

// GenerateStream issues a streaming /api/generate request and decodes the
// NDJSON body line by line into Chunks, closing the channel once Done or
// the context is cancelled.
func (b *LocalHTTP) GenerateStream(ctx context.Context, prompt string, opts GenerateOptions) (<-chan Chunk, error) {
	req := generateRequest{Model: opts.Model, Prompt: prompt, Stream: true, Options: opts.Options}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &InferenceError{Kind: ProtocolMismatch, Cause: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, &InferenceError{Kind: Unreachable, Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, &InferenceError{Kind: ModelUnavailable, Model: opts.Model}
	}

	out := make(chan Chunk)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			var raw ndjsonGenerateChunk
			if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
				continue
			}
			chunk := Chunk{Content: raw.Response, Done: raw.Done}
			if raw.Done {
				chunk.Usage = Usage{TotalDuration: raw.TotalDuration, PromptEvalCount: raw.PromptEvalCount, EvalCount: raw.EvalCount}
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
			if raw.Done {
				return
			}
		}
	}()
	return out, nil
}

// ChatStream mirrors GenerateStream over /api/chat.
func (b *LocalHTTP) ChatStream(ctx context.Context, messages []Message, opts ChatOptions) (<-chan Chunk, error) {
	req := chatRequest{Model: opts.Model, Messages: toWireMessages(messages), Stream: true, Options: opts.Options}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &InferenceError{Kind: ProtocolMismatch, Cause: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &InferenceError{Kind: Unreachable, Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, &InferenceError{Kind: ModelUnavailable, Model: opts.Model}
	}

	out := make(chan Chunk)
	go func() {
		defer resp.Body.Close()
		defer close(out)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			var raw ndjsonChatChunk
			if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
				continue
			}
			chunk := Chunk{Content: raw.Message.Content, Done: raw.Done}
			if raw.Done {
				chunk.Usage = Usage{TotalDuration: raw.TotalDuration, PromptEvalCount: raw.PromptEvalCount, EvalCount: raw.EvalCount}
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
			if raw.Done {
				return
			}
		}
	}()
	return out, nil
}
