package handler

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/middleware"
	"github.com/stemsi/coderunner-dash/internal/model"
	"github.com/stemsi/coderunner-dash/internal/moodle"
	"github.com/stemsi/coderunner-dash/internal/response"
	"github.com/stemsi/coderunner-dash/internal/service"
)

// wsMessage is the envelope for sync stream frames.
type wsMessage struct {
	Type    string      `json:"type"` // progress | report | warning | error
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live sync progress: one frame per student as the
// scraper walks the review pages, then the final report.
type WSHandler struct {
	syncService *service.SyncService
	upgrader    websocket.Upgrader
	log         zerolog.Logger
}

func NewWSHandler(syncService *service.SyncService, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		syncService: syncService,
		upgrader:    buildUpgrader(allowedOrigins),
		log:         log.With().Str("component", "ws_handler").Logger(),
	}
}

// SyncStream godoc
// GET /ws/v1/sync/stream?token=<session token>
func (h *WSHandler) SyncStream(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(msg wsMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(msg); err != nil {
			h.log.Debug().Err(err).Msg("WebSocket write failed")
		}
	}

	progress := func(ev model.ProgressEvent) {
		send(wsMessage{Type: "progress", Data: ev})
	}

	report, err := h.syncService.Sync(c.Request.Context(), sess, progress)
	if err != nil {
		switch {
		case errors.Is(err, moodle.ErrEmptyResult):
			send(wsMessage{Type: "warning", Code: string(response.ErrNoSubmissions), Message: response.GetMessage(response.ErrNoSubmissions)})
			send(wsMessage{Type: "report", Data: report})
		case errors.Is(err, moodle.ErrAuthentication):
			send(wsMessage{Type: "error", Code: string(response.ErrInvalidCredentials), Message: response.GetMessage(response.ErrInvalidCredentials)})
		default:
			send(wsMessage{Type: "error", Code: string(response.ErrFetchFailed), Message: response.GetMessage(response.ErrFetchFailed)})
		}
		return
	}

	if report.SkippedRecords > 0 {
		send(wsMessage{Type: "warning", Code: string(response.ErrMalformedRecords), Message: response.GetMessage(response.ErrMalformedRecords)})
	}
	send(wsMessage{Type: "report", Data: report})
}
