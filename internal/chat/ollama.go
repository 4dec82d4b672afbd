// Package chat provides the chat-completion contract used by the answer
// orchestrator and query-expansion components, plus an Ollama-backed
// implementation.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rag-engine/ragctl/internal/errors"
)

// Message is one turn in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client generates a single non-streaming completion from a message list.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// OllamaChat implements Client against Ollama's /api/chat.
type OllamaChat struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaChat creates a chat client with a generous timeout, since
// generation against a local model can take well over the default client
// timeout on modest hardware.
func NewOllamaChat(baseURL, model string) *OllamaChat {
	return &OllamaChat{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Generate sends messages to Ollama and returns the assistant's reply.
func (c *OllamaChat) Generate(ctx context.Context, messages []Message) (string, error) {
	reqBody := chatRequest{Model: c.model, Messages: messages, Stream: false}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInternal, "marshal chat request")
	}

	url := fmt.Sprintf("%s/api/chat", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInternal, "create chat request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.ChatUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", errors.New(errors.ErrorTypeExternal, fmt.Sprintf("Ollama chat returned %d: %s", resp.StatusCode, string(body)))
	}

	var res chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInternal, "decode chat response")
	}
	return res.Message.Content, nil
}
