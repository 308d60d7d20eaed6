// Package api exposes the conversation engine and the ticket store
// over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/switchboard/internal/backend"
	"github.com/zulandar/switchboard/internal/engine"
	"github.com/zulandar/switchboard/internal/stage"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Engine *engine.Router
	Store  *backend.Store
	Port   int
	Out    io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Engine == nil {
		return fmt.Errorf("api: engine is required")
	}
	if opts.Store == nil {
		return fmt.Errorf("api: store is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	h := &handlers{
		engine:   opts.Engine,
		store:    opts.Store,
		sessions: make(map[string]*sessionSlot),
	}
	h.register(router)

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// sessionSlot pairs a session with a busy flag so a second turn
// arriving mid-turn is rejected instead of queued.
type sessionSlot struct {
	session *engine.Session
	busy    sync.Mutex
}

type handlers struct {
	engine *engine.Router
	store  *backend.Store

	mu       sync.RWMutex
	sessions map[string]*sessionSlot
}

func (h *handlers) register(r *gin.Engine) {
	apiGroup := r.Group("/api")
	apiGroup.POST("/sessions", h.createSession)
	apiGroup.GET("/sessions/:id", h.getSession)
	apiGroup.POST("/sessions/:id/turns", h.postTurn)
	apiGroup.GET("/tickets", h.listTickets)
	apiGroup.GET("/tickets/:id", h.getTicket)
}

func (h *handlers) createSession(c *gin.Context) {
	s := engine.NewSession()
	h.mu.Lock()
	h.sessions[s.ID] = &sessionSlot{session: s}
	h.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"session_id": s.ID,
		"stage":      string(s.Stage),
	})
}

func (h *handlers) slot(id string) (*sessionSlot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	slot, ok := h.sessions[id]
	return slot, ok
}

func (h *handlers) getSession(c *gin.Context) {
	slot, ok := h.slot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	status := "active"
	if slot.session.Stage == stage.Terminated {
		status = "ended"
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": slot.session.ID,
		"stage":      string(slot.session.Stage),
		"status":     status,
	})
}

type turnRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *handlers) postTurn(c *gin.Context) {
	slot, ok := h.slot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	// A turn already in flight means the caller must retry, not queue.
	if !slot.busy.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "a turn is already being processed for this session"})
		return
	}
	defer slot.busy.Unlock()

	reply, err := h.engine.HandleTurn(c.Request.Context(), slot.session, req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response": reply,
		"stage":    string(slot.session.Stage),
	})
}

func (h *handlers) listTickets(c *gin.Context) {
	filters := backend.ListFilters{
		Status:       c.Query("status"),
		SerialNumber: c.Query("serial_number"),
	}
	tickets, err := h.store.ListTickets(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (h *handlers) getTicket(c *gin.Context) {
	ticket, err := h.store.FindTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ticket)
}
