package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studycards/internal/repository"
)

// respondInternal responde 503 si el backend no esta disponible y 500 en otro caso.
// El error se reporta a Sentry cuando el middleware esta activo.
func respondInternal(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, repository.ErrBackendUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	logger.Error(msg, zap.Error(err), zap.Int("status", status))
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
