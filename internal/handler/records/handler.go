package records

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/records-api/internal/handler"
	"github.com/jwalitptl/records-api/internal/middleware"
	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/service/records"
)

type Handler struct {
	service *records.Service
}

func NewHandler(service *records.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/records")
	{
		grp.POST("", h.AddDocument)
		grp.GET("/stats", h.GetStats)
		grp.GET("/:id", h.GetDocument)
		grp.GET("/:id/tags", h.GetDocumentTags)
	}
	r.GET("/patients/:principal/records", h.GetPatientDocuments)
}

type addDocumentRequest struct {
	Patient      string   `json:"patient" binding:"required"`
	ContentHash  string   `json:"content_hash" binding:"required"`
	DocumentType string   `json:"document_type" binding:"required"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
}

func (h *Handler) AddDocument(c *gin.Context) {
	caller, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing caller principal"))
		return
	}

	var req addDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	id, err := h.service.AddDocument(c.Request.Context(), caller, model.Principal(req.Patient),
		req.ContentHash, req.DocumentType, req.Description, req.Tags)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{"id": id}))
}

func (h *Handler) GetDocument(c *gin.Context) {
	caller, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing caller principal"))
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid document id"))
		return
	}

	doc, err := h.service.GetDocument(c.Request.Context(), caller, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doc))
}

func (h *Handler) GetDocumentTags(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid document id"))
		return
	}

	tags, err := h.service.GetDocumentTags(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"id": id, "tags": tags}))
}

func (h *Handler) GetPatientDocuments(c *gin.Context) {
	patient := model.Principal(c.Param("principal"))

	ids, err := h.service.GetPatientDocuments(c.Request.Context(), patient)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"patient":   patient,
		"documents": ids,
	}))
}

func (h *Handler) GetStats(c *gin.Context) {
	total, err := h.service.GetTotalDocuments(c.Request.Context())
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"total_documents": total}))
}
