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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all qa routes with the router group.
//
// Description:
//
//	Registers all /v1/qa/* endpoints. The router group should already have
//	any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/qa/ask - Answer a catalog question (both paths)
//	POST /v1/qa/classify - Classification breakdown only
//	GET  /v1/qa/health - Health check
//	GET  /v1/qa/ready - Readiness check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	qa := rg.Group("/qa")
	{
		qa.POST("/ask", handlers.HandleAsk)
		qa.POST("/classify", handlers.HandleClassify)

		qa.GET("/health", handlers.HandleHealth)
		qa.GET("/ready", handlers.HandleReady)
	}
}
