// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm defines the provider-agnostic chat interface used by the
// classifier's escalation hook and the QA answer synthesizer. The engine only
// needs simple chat (no tool calls, no streaming), so the interface stays
// minimal and adapters are trivial for any provider.
//
// Thread Safety:
//
//	All interfaces in this package must be implemented as safe for concurrent use.
package llm

import "context"

// Message roles understood by ChatClient implementations.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged conversation message.
type Message struct {
	// Role is one of RoleSystem, RoleUser, RoleAssistant.
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ChatOptions holds provider-agnostic options for a chat request.
type ChatOptions struct {
	// Temperature controls randomness (0.0-1.0). The Go zero value (0.0) is
	// treated as an explicit "most deterministic" setting.
	Temperature float64

	// MaxTokens limits the response length. Zero uses the provider default.
	MaxTokens int

	// Model specifies the model for this request. If empty, falls back to
	// the default model set at client construction time.
	Model string
}

// ChatClient is the minimal generate(messages) -> text collaborator.
//
// Description:
//
//	The classifier treats the language model as a black box: a list of
//	role-tagged messages in, generated text out. Model selection,
//	temperature policy, and retries belong to the implementation.
//
// Thread Safety: Implementations must be safe for concurrent use.
type ChatClient interface {
	// Chat sends messages and returns the assistant's response text.
	//
	// Inputs:
	//   - ctx: Context for cancellation and timeout.
	//   - messages: Conversation messages (system, user, assistant).
	//   - opts: Provider-agnostic chat options.
	//
	// Outputs:
	//   - string: The assistant's response text.
	//   - error: Non-nil on failure.
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (string, error)
}
