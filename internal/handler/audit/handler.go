package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/records-api/internal/handler"
	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/service/audit"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/audit")
	{
		grp.GET("/stats", h.GetStats)
		grp.GET("/:patient", h.GetAuditTrail)
		grp.GET("/:patient/verify", h.VerifyTrail)
	}
}

func (h *Handler) GetAuditTrail(c *gin.Context) {
	patient := model.Principal(c.Param("patient"))

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid offset"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid limit"))
		return
	}

	entries, err := h.service.GetAuditTrail(c.Request.Context(), patient, offset, limit)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"patient": patient,
		"offset":  offset,
		"entries": entries,
	}))
}

func (h *Handler) VerifyTrail(c *gin.Context) {
	patient := model.Principal(c.Param("patient"))

	intact, err := h.service.VerifyTrail(c.Request.Context(), patient)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"patient": patient,
		"intact":  intact,
	}))
}

func (h *Handler) GetStats(c *gin.Context) {
	total, err := h.service.GetTotalEntries(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"total_audit_entries": total}))
}
