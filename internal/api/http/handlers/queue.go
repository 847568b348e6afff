package handlers

import (
	"net/http"

	"github.com/stridekernd/stridekernd/internal/snapshot"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QueueHandler serves the runnable-queue snapshot.
type QueueHandler struct {
	log  *zap.Logger
	snap *snapshot.Service
}

func NewQueueHandler(log *zap.Logger, snap *snapshot.Service) *QueueHandler {
	return &QueueHandler{log.Named("queue"), snap}
}

// List returns the runnable queue's pids in dispatch order — the pass
// order that Rebase/enqueue maintain (spec.md §4.2).
func (h *QueueHandler) List(c *gin.Context) {
	result, err := h.snap.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": result.Snapshot.Queue})
}
