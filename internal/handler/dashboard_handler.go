package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/coderunner-dash/internal/middleware"
	"github.com/stemsi/coderunner-dash/internal/moodle"
	"github.com/stemsi/coderunner-dash/internal/response"
	"github.com/stemsi/coderunner-dash/internal/service"
)

// DashboardHandler serves the sync action and the aggregate views.
type DashboardHandler struct {
	syncService *service.SyncService
	log         zerolog.Logger
}

func NewDashboardHandler(syncService *service.SyncService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		syncService: syncService,
		log:         log.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Sync godoc
// POST /api/v1/sync
//
// Runs one blocking fetch→aggregate pass and returns the fresh report.
// Soft failures (empty quiz, skipped malformed rows) return data with a
// warning; hard fetch failures keep the previous snapshot and fail.
func (h *DashboardHandler) Sync(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	report, err := h.syncService.Sync(c.Request.Context(), sess, nil)
	if err != nil {
		switch {
		case errors.Is(err, moodle.ErrEmptyResult):
			response.SuccessWithWarning(c, http.StatusOK, report, response.ErrNoSubmissions)
		case errors.Is(err, moodle.ErrAuthentication):
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		default:
			response.Fail(c, http.StatusBadGateway, response.ErrFetchFailed)
		}
		return
	}

	if report.SkippedRecords > 0 {
		response.SuccessWithWarning(c, http.StatusOK, report, response.ErrMalformedRecords)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// GetDashboard godoc
// GET /api/v1/dashboard
//
// Returns the session's current report. Before the first sync the data is
// null with a NO_SNAPSHOT notice so the UI shows the empty state, not an
// error screen.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	report := sess.Report()
	if report == nil {
		response.SuccessWithWarning(c, http.StatusOK, nil, response.ErrNoSnapshot)
		return
	}

	switch {
	case report.Stale:
		response.SuccessWithWarning(c, http.StatusOK, report, response.ErrStaleSnapshot)
	case report.SkippedRecords > 0:
		response.SuccessWithWarning(c, http.StatusOK, report, response.ErrMalformedRecords)
	default:
		response.Success(c, http.StatusOK, report)
	}
}

// GetCached godoc
// GET /api/v1/dashboard/cached
//
// Recomputes the report from the last cached snapshot for the session's
// quiz ("load last sync") without touching Moodle.
func (h *DashboardHandler) GetCached(c *gin.Context) {
	sess := middleware.GetSession(c)
	if sess == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	report, err := h.syncService.CachedReport(c.Request.Context(), sess.QuizID)
	if err != nil {
		if errors.Is(err, service.ErrNoSnapshot) {
			response.Fail(c, http.StatusNotFound, response.ErrNoSnapshot)
			return
		}
		h.log.Error().Err(err).Msg("Cached report lookup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, report)
}
