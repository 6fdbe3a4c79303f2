package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/response"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/service"
)

// TermHandler serves the term and program catalog.
type TermHandler struct {
	catalogService *service.CatalogService
}

// NewTermHandler creates a new TermHandler.
func NewTermHandler(catalogService *service.CatalogService) *TermHandler {
	return &TermHandler{catalogService: catalogService}
}

// ListTerms godoc
// GET /api/v1/terms?active=true
func (h *TermHandler) ListTerms(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	terms, err := h.catalogService.ListTerms(c.Request.Context(), activeOnly)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"terms": terms})
}

// ListPrograms godoc
// GET /api/v1/programs
func (h *TermHandler) ListPrograms(c *gin.Context) {
	programs, err := h.catalogService.ListPrograms(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"programs": programs})
}

// ListProgramsByTerm godoc
// GET /api/v1/terms/:id/programs
// Lists only the programs that actually have classes in the term.
func (h *TermHandler) ListProgramsByTerm(c *gin.Context) {
	termID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	programs, err := h.catalogService.ListProgramsByTerm(c.Request.Context(), termID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"programs": programs})
}
