package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aholston/watchdogai/internal/engine/extractor"
	"github.com/aholston/watchdogai/internal/normalize"
	"github.com/aholston/watchdogai/internal/vectorstore"
)

// writePipelineError maps pipeline errors onto HTTP statuses: caller mistakes
// are 4xx, upstream capability failures are 502/503, the rest 500.
func writePipelineError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, normalize.ErrUnknownFormat):
		status = http.StatusBadRequest
	case errors.Is(err, extractor.ErrInferenceUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, vectorstore.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
