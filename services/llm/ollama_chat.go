// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaChatClient implements ChatClient on top of a local Ollama server.
//
// Description:
//
//	Wraps langchaingo's Ollama binding. The defaultModel is used as a
//	fallback when ChatOptions.Model is empty.
//
// Thread Safety: OllamaChatClient is safe for concurrent use.
type OllamaChatClient struct {
	llm          *ollama.LLM
	defaultModel string
}

// ResolveOllamaURL returns the Ollama base URL from the environment.
//
// Description:
//
//	Reads OLLAMA_BASE_URL, falling back to the standard local endpoint.
//	Centralized so every component resolves the URL the same way.
func ResolveOllamaURL() string {
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		return strings.TrimRight(url, "/")
	}
	return "http://localhost:11434"
}

// NewOllamaChatClient creates a new OllamaChatClient.
//
// Inputs:
//   - serverURL: Ollama base URL (e.g. "http://localhost:11434"). Must not be empty.
//   - defaultModel: Fallback model when ChatOptions.Model is empty. May be empty
//     if the caller always provides a model in ChatOptions.
//
// Outputs:
//   - *OllamaChatClient: The configured client.
//   - error: Non-nil if the underlying binding cannot be constructed.
func NewOllamaChatClient(serverURL, defaultModel string) (*OllamaChatClient, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("NewOllamaChatClient: serverURL must not be empty")
	}

	opts := []ollama.Option{ollama.WithServerURL(serverURL)}
	if defaultModel != "" {
		opts = append(opts, ollama.WithModel(defaultModel))
	}

	client, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("NewOllamaChatClient: %w", err)
	}

	return &OllamaChatClient{llm: client, defaultModel: defaultModel}, nil
}

// Chat implements ChatClient by delegating to the Ollama chat endpoint.
func (c *OllamaChatClient) Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error) {
	if c.llm == nil {
		return "", fmt.Errorf("Ollama client is nil")
	}

	model := opts.Model
	if model == "" {
		model = c.defaultModel
	}
	if model == "" {
		return "", fmt.Errorf("model must be specified in ChatOptions or at client construction")
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	callOpts := []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := c.llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama chat: empty response")
	}
	return resp.Choices[0].Content, nil
}

// chatMessageType maps a Message role to the langchaingo message type.
func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
