package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/stridekernd/stridekernd/internal/kernel"
	"github.com/stridekernd/stridekernd/internal/snapshot"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// defaultWaitTimeout bounds how long a Wait call blocks the HTTP
// request before returning 408; the caller can override it with
// ?timeout=<duration>.
const defaultWaitTimeout = 30 * time.Second

// WaitHandler serves init's Wait, the only blocking admin-API call.
type WaitHandler struct {
	log  *zap.Logger
	k    *kernel.Kernel
	snap *snapshot.Service
}

func NewWaitHandler(log *zap.Logger, k *kernel.Kernel, snap *snapshot.Service) *WaitHandler {
	return &WaitHandler{log.Named("wait"), k, snap}
}

// Wait blocks until a child of init becomes ZOMBIE, reaps it, and
// returns the reaped record. Honors the request's context and an
// optional ?timeout= duration.
func (h *WaitHandler) Wait(c *gin.Context) {
	timeout := defaultWaitTimeout
	if q := c.Query("timeout"); q != "" {
		if d, err := time.ParseDuration(q); err == nil && d > 0 {
			timeout = d
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	p, err := h.k.Wait(ctx)
	switch {
	case errors.Is(err, kernel.ErrNoChildren):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.JSON(http.StatusRequestTimeout, gin.H{"message": "wait timed out"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	h.snap.Invalidate()
	c.JSON(http.StatusOK, p)
}
