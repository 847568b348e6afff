package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/stridekernd/stridekernd/internal/kernel"
	"github.com/stridekernd/stridekernd/internal/http/middleware"
	"github.com/stridekernd/stridekernd/internal/snapshot"
	"github.com/stridekernd/stridekernd/pkg/jsonx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProcHandler serves the process-table endpoints: listing, single-pid
// lookup, spawning, tickets, kill and log tailing.
type ProcHandler struct {
	log  *zap.Logger
	k    *kernel.Kernel
	snap *snapshot.Service
}

func NewProcHandler(log *zap.Logger, k *kernel.Kernel, snap *snapshot.Service) *ProcHandler {
	return &ProcHandler{log.Named("procs"), k, snap}
}

// List returns the cached snapshot's process entries.
func (h *ProcHandler) List(c *gin.Context) {
	result, err := h.snap.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result.Snapshot.Procs)
}

// Get returns a single process record by pid.
func (h *ProcHandler) Get(c *gin.Context) {
	pid := middleware.PID(c)
	p, ok := h.k.ByPID(pid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "no such pid"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// Logs returns the most recent lines written by pid's workload, newest
// first. ?n= caps the number of lines (default 100).
func (h *ProcHandler) Logs(c *gin.Context) {
	pid := middleware.PID(c)
	if _, ok := h.k.ByPID(pid); !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "no such pid"})
		return
	}

	n := 100
	if q := c.Query("n"); q != "" {
		if v, err := strconv.Atoi(q); err == nil && v > 0 {
			n = v
		}
	}

	lines := h.k.Table.Logs.Get(pid).Read(n)
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

type forkRequest struct {
	Name     string   `json:"name"`
	Tickets  int      `json:"tickets"`
	EndTicks int64    `json:"end_ticks,omitempty"`
	Argv     []string `json:"argv,omitempty"`
}

// Fork spawns a new process, logical or real-workload depending on
// whether argv is given, as a child of init.
func (h *ProcHandler) Fork(c *gin.Context) {
	var req forkRequest
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	p, err := h.k.Fork(req.Name, req.Tickets, req.EndTicks, req.Argv)
	switch {
	case errors.Is(err, kernel.ErrInvalidTickets):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	case errors.Is(err, kernel.ErrTableFull):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": err.Error()})
		return
	case errors.Is(err, kernel.ErrSpawnFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	h.snap.Invalidate()
	c.JSON(http.StatusCreated, p)
}

type setTicketsRequest struct {
	Tickets  int   `json:"tickets"`
	EndTicks int64 `json:"end_ticks,omitempty"`
}

// SetTickets changes pid's ticket allocation (and derived stride).
func (h *ProcHandler) SetTickets(c *gin.Context) {
	pid := middleware.PID(c)

	var req setTicketsRequest
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	err := h.k.SetTickets(pid, req.Tickets, req.EndTicks)
	switch {
	case errors.Is(err, kernel.ErrNoSuchPID):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	case errors.Is(err, kernel.ErrInvalidTickets):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	h.snap.Invalidate()
	c.Status(http.StatusNoContent)
}

// Kill marks pid killed: a sleeping process is requeued, and the
// scheduler moves the process to ZOMBIE when its workload exits or at
// the end of its next quantum. POST /api/wait reaps it.
func (h *ProcHandler) Kill(c *gin.Context) {
	pid := middleware.PID(c)

	err := h.k.Kill(pid)
	switch {
	case errors.Is(err, kernel.ErrNoSuchPID):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	h.snap.Invalidate()
	c.Status(http.StatusNoContent)
}
