package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/brightspace"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/response"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/service"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/validator"
)

// SyncHandler exposes the sync triggers. Runs execute inline in the request;
// a large term can take minutes, which the dashboard's polling UI expects.
type SyncHandler struct {
	syncService    *service.SyncService
	catalogService *service.CatalogService
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(syncService *service.SyncService, catalogService *service.CatalogService) *SyncHandler {
	return &SyncHandler{syncService: syncService, catalogService: catalogService}
}

// SyncTerms godoc
// POST /api/v1/sync/terms
// Pulls the semester list from upstream and reconciles the local rows.
func (h *SyncHandler) SyncTerms(c *gin.Context) {
	count, err := h.syncService.SyncTerms(c.Request.Context())
	if err != nil {
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"terms_synced": count})
}

// SyncClassesRequest is the payload for triggering a class sync.
type SyncClassesRequest struct {
	TermOrgUnitID int    `json:"term_org_unit_id" binding:"required,min=1"`
	Force         bool   `json:"force"`
	Program       string `json:"program" binding:"omitempty,alpha,max=10"`
}

// SyncClasses godoc
// POST /api/v1/sync/classes
// Runs a full class sync for one term, optionally forced or filtered by
// program code.
func (h *SyncHandler) SyncClasses(c *gin.Context) {
	var req SyncClassesRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	termID, err := h.catalogService.ResolveTerm(c.Request.Context(), req.TermOrgUnitID)
	if err != nil {
		if errors.Is(err, service.ErrTermNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrTermNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	result, err := h.syncService.SyncTerm(c.Request.Context(), termID, req.TermOrgUnitID, req.Force, req.Program)
	if err != nil {
		if errors.Is(err, service.ErrSyncInProgress) {
			response.Fail(c, http.StatusConflict, response.ErrSyncInProgress)
			return
		}
		failUpstream(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// PurgeCacheRequest is the payload for the manual cache purge.
type PurgeCacheRequest struct {
	OlderThanHours int `json:"older_than_hours" binding:"omitempty,min=1"`
}

// PurgeCache godoc
// POST /api/v1/sync/purge
// Removes raw detail payloads older than the given age (default 24h).
func (h *SyncHandler) PurgeCache(c *gin.Context) {
	req := PurgeCacheRequest{OlderThanHours: 24}
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
		if req.OlderThanHours == 0 {
			req.OlderThanHours = 24
		}
	}

	deleted := h.syncService.PurgeCacheOlderThan(c.Request.Context(), req.OlderThanHours)
	response.Success(c, http.StatusOK, gin.H{"deleted": deleted})
}

// SyncStatus godoc
// GET /api/v1/sync/status
// Returns the last-sync marker and the most recent run logs.
func (h *SyncHandler) SyncStatus(c *gin.Context) {
	lastSync, err := h.catalogService.LastSyncAt(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	logs, err := h.catalogService.RecentSyncRuns(c.Request.Context(), 10)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"last_sync": lastSync,
		"runs":      logs,
	})
}

// failUpstream maps the upstream error taxonomy onto HTTP statuses.
func failUpstream(c *gin.Context, err error) {
	var authErr *brightspace.AuthError
	if errors.As(err, &authErr) {
		response.Fail(c, http.StatusBadGateway, response.ErrUpstreamAuth)
		return
	}
	var upErr *brightspace.UpstreamError
	if errors.As(err, &upErr) {
		response.Fail(c, http.StatusBadGateway, response.ErrUpstreamFailed)
		return
	}
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
