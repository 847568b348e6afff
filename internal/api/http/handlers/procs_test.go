package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stridekernd/stridekernd/internal/http/middleware"
	"github.com/stridekernd/stridekernd/internal/kernel"
	"github.com/stridekernd/stridekernd/internal/snapshot"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestProcHandler(t *testing.T) (*gin.Engine, *ProcHandler) {
	t.Helper()
	log := zap.NewNop()
	k := kernel.NewKernel(kernel.Config{NProc: 8, NCPU: 1}, log)
	snap := snapshot.NewService(log, k, nil, snapshot.Options{})
	h := NewProcHandler(log, k, snap)

	r := gin.New()
	r.POST("/procs", h.Fork)
	r.GET("/procs/:pid", middleware.RequireValidPID(), h.Get)
	r.POST("/procs/:pid/tickets", middleware.RequireValidPID(), h.SetTickets)
	r.POST("/procs/:pid/kill", middleware.RequireValidPID(), h.Kill)
	return r, h
}

func TestForkRejectsInvalidTicketsWith400(t *testing.T) {
	cases := []string{
		`{"name":"x","tickets":0}`,
		`{"name":"x","tickets":2000000}`,
	}
	for _, body := range cases {
		r, _ := newTestProcHandler(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/procs", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want %d, body=%s", body, w.Code, http.StatusBadRequest, w.Body.String())
		}
	}
}

func TestForkSucceedsWith201(t *testing.T) {
	r, _ := newTestProcHandler(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/procs", bytes.NewBufferString(`{"name":"x","tickets":10}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}
}

func TestGetUnknownPIDReturns404(t *testing.T) {
	r, _ := newTestProcHandler(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/procs/999", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetInvalidPIDReturns400(t *testing.T) {
	r, _ := newTestProcHandler(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/procs/not-a-number", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestSetTicketsUnknownPIDReturns404(t *testing.T) {
	r, _ := newTestProcHandler(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/procs/999/tickets", bytes.NewBufferString(`{"tickets":5}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d, body=%s", w.Code, http.StatusNotFound, w.Body.String())
	}
}

func TestKillUnknownPIDReturns404(t *testing.T) {
	r, _ := newTestProcHandler(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/procs/999/kill", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestForkThenKillSucceeds(t *testing.T) {
	r, h := newTestProcHandler(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/procs", bytes.NewBufferString(`{"name":"x","tickets":10}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("fork status = %d, body=%s", w.Code, w.Body.String())
	}

	var pid int64
	for _, p := range h.k.Snapshot() {
		if p.Name == "x" {
			pid = p.PID
		}
	}
	if pid == 0 {
		t.Fatal("forked record not found in snapshot")
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/procs/"+strconv.FormatInt(pid, 10)+"/kill", nil)
	r.ServeHTTP(w2, req2)
	if w2.Code != http.StatusNoContent {
		t.Errorf("kill status = %d, want %d, body=%s", w2.Code, http.StatusNoContent, w2.Body.String())
	}
}
