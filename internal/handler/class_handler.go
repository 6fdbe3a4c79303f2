package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/repository"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/response"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/service"
)

// ClassHandler serves the cached class read path and single-class refresh.
type ClassHandler struct {
	syncService *service.SyncService
	classRepo   *repository.ClassRepository
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(syncService *service.SyncService, classRepo *repository.ClassRepository) *ClassHandler {
	return &ClassHandler{syncService: syncService, classRepo: classRepo}
}

// ListByTerm godoc
// GET /api/v1/terms/:id/classes?program=ISC
// Lists a term's cached classes, optionally filtered by program code. Reads
// storage only; it never reaches upstream.
func (h *ClassHandler) ListByTerm(c *gin.Context) {
	termID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	classes, err := h.syncService.ReadCachedClasses(c.Request.Context(), termID, c.Query("program"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes, "count": len(classes)})
}

// GetClass godoc
// GET /api/v1/classes/:id
func (h *ClassHandler) GetClass(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	class, err := h.classRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if class == nil {
		response.Fail(c, http.StatusNotFound, response.ErrClassNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"class": class})
}

// RefreshClass godoc
// POST /api/v1/classes/:id/refresh
// Forces a detail re-fetch for a single class, bypassing staleness checks.
func (h *ClassHandler) RefreshClass(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	class, err := h.classRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if class == nil {
		response.Fail(c, http.StatusNotFound, response.ErrClassNotFound)
		return
	}

	if err := h.syncService.RefreshClass(c.Request.Context(), class.ID, class.OrgUnitID); err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrClassNotFound)
			return
		}
		failUpstream(c, err)
		return
	}

	refreshed, err := h.classRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"class": refreshed})
}
