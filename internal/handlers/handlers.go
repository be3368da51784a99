package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bettyarega/Flash-CDC/internal/listener"
	"github.com/bettyarega/Flash-CDC/internal/salesforce"
	"github.com/bettyarega/Flash-CDC/pkg/logging"
	"github.com/bettyarega/Flash-CDC/pkg/models"
)

// ConnectionProbe authenticates a client and checks topic visibility.
type ConnectionProbe func(ctx context.Context, clientID int64) (string, error)

// Handlers is the listener control surface consumed by the admin API.
type Handlers struct {
	manager *listener.Manager
	probe   ConnectionProbe
	logger  logging.Logger
}

func NewHandlers(manager *listener.Manager, probe ConnectionProbe, logger logging.Logger) *Handlers {
	return &Handlers{manager: manager, probe: probe, logger: logger}
}

// RegisterRoutes mounts the listener endpoints on the router.
func (h *Handlers) RegisterRoutes(router gin.IRouter) {
	listeners := router.Group("/listeners")
	{
		listeners.GET("", h.ListListeners)
		listeners.GET("/:id", h.GetListener)
		listeners.POST("/:id/start", h.StartListener)
		listeners.POST("/:id/stop", h.StopListener)
		listeners.POST("/:id/restart", h.RestartListener)
		listeners.POST("/start-active", h.StartActive)
		listeners.POST("/test", h.TestConnection)
	}
}

func parseClientID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return 0, false
	}
	return id, true
}

// bindHint reads an optional replay hint from the request body.
func bindHint(c *gin.Context) (*models.ReplayHint, bool) {
	if c.Request.ContentLength == 0 {
		return nil, true
	}
	var hint models.ReplayHint
	if err := c.ShouldBindJSON(&hint); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid replay hint: " + err.Error()})
		return nil, false
	}
	if hint.Mode == "" {
		return nil, true
	}
	switch hint.Mode {
	case models.ReplayStored, models.ReplayLatest, models.ReplayEarliest, models.ReplayCustom, models.ReplaySince:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown replay mode: " + string(hint.Mode)})
		return nil, false
	}
	return &hint, true
}

// ListListeners returns every known listener's status.
func (h *Handlers) ListListeners(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"listeners": h.manager.StatusAll()})
}

// GetListener returns one listener's status. Unknown ids report stopped.
func (h *Handlers) GetListener(c *gin.Context) {
	id, ok := parseClientID(c)
	if !ok {
		return
	}
	status, _ := h.manager.Status(id)
	c.JSON(http.StatusOK, status)
}

// StartListener launches a listener, optionally with a replay hint.
func (h *Handlers) StartListener(c *gin.Context) {
	id, ok := parseClientID(c)
	if !ok {
		return
	}
	hint, ok := bindHint(c)
	if !ok {
		return
	}
	if err := h.manager.Start(c.Request.Context(), id, hint); err != nil {
		h.writeStartError(c, err)
		return
	}
	status, _ := h.manager.Status(id)
	c.JSON(http.StatusOK, status)
}

// StopListener shuts a listener down; absent listeners report stopped.
func (h *Handlers) StopListener(c *gin.Context) {
	id, ok := parseClientID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.manager.Stop(id))
}

// RestartListener is stop followed by start with an optional hint.
func (h *Handlers) RestartListener(c *gin.Context) {
	id, ok := parseClientID(c)
	if !ok {
		return
	}
	hint, ok := bindHint(c)
	if !ok {
		return
	}
	if err := h.manager.Restart(c.Request.Context(), id, hint); err != nil {
		h.writeStartError(c, err)
		return
	}
	status, _ := h.manager.Status(id)
	c.JSON(http.StatusOK, status)
}

// StartActive launches every active client.
func (h *Handlers) StartActive(c *gin.Context) {
	started, err := h.manager.AutostartActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"started": started})
}

type testConnectionRequest struct {
	ClientID int64 `json:"client_id" binding:"required"`
}

// TestConnection authenticates the client and checks the topic is visible,
// without subscribing or touching stored cursors.
func (h *Handlers) TestConnection(c *gin.Context) {
	var req testConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	schemaID, err := h.probe(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, listener.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
			return
		}
		status := http.StatusBadGateway
		if salesforce.IsFatal(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "schema_id": schemaID})
}

func (h *Handlers) writeStartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, listener.ErrClientNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, listener.ErrClientInactive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
