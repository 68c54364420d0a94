package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/config"
	"github.com/stemsi/coderunner-dash/internal/middleware"
	"github.com/stemsi/coderunner-dash/internal/moodle"
	"github.com/stemsi/coderunner-dash/internal/response"
	"github.com/stemsi/coderunner-dash/internal/service"
	"github.com/stemsi/coderunner-dash/internal/session"
	"github.com/stemsi/coderunner-dash/internal/validator"
)

// CreateSessionRequest is the sidebar form payload. Every field may be
// empty; the environment defaults fill the gaps during resolution.
type CreateSessionRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	QuizID   string `json:"quiz_id"`
}

// AutoSyncRequest updates the session's auto-sync preference.
type AutoSyncRequest struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"interval_minutes" binding:"omitempty,min=2,max=10"`
}

// SessionHandler manages dashboard session lifecycle.
type SessionHandler struct {
	cfg         *config.Config
	syncService *service.SyncService
	store       *session.Store
	log         zerolog.Logger
}

func NewSessionHandler(cfg *config.Config, syncService *service.SyncService, store *session.Store, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		cfg:         cfg,
		syncService: syncService,
		store:       store,
		log:         log.With().Str("component", "session_handler").Logger(),
	}
}

// CreateSession godoc
// POST /api/v1/session
//
// Resolves credentials (form over env), logs in against Moodle and returns
// a bearer token for the new dashboard session. The token only references
// the session; credentials stay server-side in memory.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	creds, err := h.syncService.ResolveCredentials(req.Username, req.Password, req.QuizID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingQuizID):
			response.Fail(c, http.StatusBadRequest, response.ErrMissingQuizID)
		case errors.Is(err, service.ErrInvalidQuizID):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidQuizID)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	client := h.syncService.NewMoodleClient(creds)
	if err := client.Login(c.Request.Context()); err != nil {
		if errors.Is(err, moodle.ErrAuthentication) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		h.log.Warn().Err(err).Msg("Moodle unreachable during login")
		response.Fail(c, http.StatusBadGateway, response.ErrFetchFailed)
		return
	}

	sess := h.store.Create(creds.Username, creds.QuizID, client, h.cfg.AutoSyncDefault)

	token, err := session.IssueToken(h.cfg.JWTSecret, sess.ID, h.cfg.SessionTTL)
	if err != nil {
		h.store.Delete(sess.ID)
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"token":      token,
		"username":   sess.Username,
		"quiz_id":    sess.QuizID,
		"expires_in": int(h.cfg.SessionTTL.Seconds()),
	})
}

// GetDefaults godoc
// GET /api/v1/session/defaults
//
// Returns the environment pre-fill values for the sidebar form. The
// password itself is never echoed, only whether one is configured.
func (h *SessionHandler) GetDefaults(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"username":     h.cfg.MoodleUser,
		"quiz_id":      h.cfg.MoodleQuizID,
		"has_password": h.cfg.MoodlePass != "",
	})
}

// DeleteSession godoc
// DELETE /api/v1/session
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	h.store.Delete(sess.ID)
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// UpdateAutoSync godoc
// PUT /api/v1/session/autosync
func (h *SessionHandler) UpdateAutoSync(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req AutoSyncRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	interval := h.cfg.AutoSyncDefault
	if req.IntervalMinutes != 0 {
		interval = time.Duration(req.IntervalMinutes) * time.Minute
	}
	sess.SetAutoSync(req.Enabled, interval)

	response.Success(c, http.StatusOK, gin.H{
		"enabled":          req.Enabled,
		"interval_minutes": int(interval.Minutes()),
	})
}
