// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package qa

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxQuestionLength bounds request size; longer questions are almost always
// pasted junk, and phrase scoring over them is wasted work.
const maxQuestionLength = 2048

// ErrorResponse is the JSON error body for all qa endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// AskRequest is the body for POST /v1/qa/ask and POST /v1/qa/classify.
type AskRequest struct {
	Question string `json:"question"`
}

// Handlers holds the HTTP handlers for the qa service.
type Handlers struct {
	service *Service
	logger  *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(service *Service, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{service: service, logger: logger}
}

// getOrCreateRequestID returns the inbound X-Request-ID or mints one.
func getOrCreateRequestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// bindQuestion validates the shared request shape. Writes the error response
// itself and returns ok=false on failure.
func bindQuestion(c *gin.Context) (string, bool) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "request body must be JSON with a question field",
			Code:  "INVALID_BODY",
		})
		return "", false
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "question must not be empty",
			Code:  "MISSING_QUESTION",
		})
		return "", false
	}
	if len(question) > maxQuestionLength {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "question exceeds maximum length",
			Code:  "QUESTION_TOO_LONG",
		})
		return "", false
	}
	return question, true
}

// HandleAsk handles POST /v1/qa/ask.
//
// Response:
//
//	200 OK: Answer
//	400 Bad Request: Missing or oversized question
//	502 Bad Gateway: A backend (catalog, embedder, vector store) failed
func (h *Handlers) HandleAsk(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleAsk")

	question, ok := bindQuestion(c)
	if !ok {
		return
	}

	answer, err := h.service.Ask(c.Request.Context(), question)
	if err != nil {
		logger.Error("ask failed", "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "answer backend unavailable",
			Code:  "BACKEND_FAILED",
		})
		return
	}

	logger.Info("question answered",
		slog.String("intent", string(answer.Intent)),
		slog.String("method", string(answer.Method)),
	)
	c.JSON(http.StatusOK, answer)
}

// HandleClassify handles POST /v1/qa/classify.
//
// Description:
//
//	Returns the full classification breakdown without executing either
//	answer path. Useful for debugging phrase lists and for UIs that show
//	confidence detail.
//
// Response:
//
//	200 OK: classifier.Result
//	400 Bad Request: Missing or oversized question
func (h *Handlers) HandleClassify(c *gin.Context) {
	question, ok := bindQuestion(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.Classify(c.Request.Context(), question))
}

// HandleHealth handles GET /v1/qa/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleReady handles GET /v1/qa/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
