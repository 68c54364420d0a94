package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/middleware"
	"github.com/stemsi/coderunner-dash/internal/model"
	"github.com/stemsi/coderunner-dash/internal/response"
	"github.com/stemsi/coderunner-dash/internal/service"
)

// HistoryHandler exposes the stored snapshot timeline for the session's
// quiz: listing, regression metrics and the danger-zone reset.
type HistoryHandler struct {
	syncService *service.SyncService
	log         zerolog.Logger
}

func NewHistoryHandler(syncService *service.SyncService, log zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		syncService: syncService,
		log:         log.With().Str("component", "history_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/history
func (h *HistoryHandler) List(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	metas, err := h.syncService.History(c.Request.Context(), sess.QuizID)
	if err != nil {
		h.log.Error().Err(err).Msg("History list failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if metas == nil {
		metas = []model.SnapshotMeta{}
	}
	response.Success(c, http.StatusOK, metas)
}

// Regressions godoc
// GET /api/v1/history/regressions
func (h *HistoryHandler) Regressions(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	entries, err := h.syncService.Regressions(c.Request.Context(), sess.QuizID)
	if err != nil {
		h.log.Error().Err(err).Msg("Regression computation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if entries == nil {
		entries = []model.RegressionEntry{}
	}
	response.Success(c, http.StatusOK, entries)
}

// Reset godoc
// DELETE /api/v1/history
func (h *HistoryHandler) Reset(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	deleted, err := h.syncService.ResetHistory(c.Request.Context(), sess.QuizID)
	if err != nil {
		h.log.Error().Err(err).Msg("History reset failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	h.log.Info().Str("quiz_id", sess.QuizID).Int64("deleted", deleted).Msg("History reset")
	response.Success(c, http.StatusOK, gin.H{"deleted_snapshots": deleted})
}
