package access

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/records-api/internal/handler"
	"github.com/jwalitptl/records-api/internal/middleware"
	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/service/access"
)

type Handler struct {
	service        *access.Service
	registrarGuard gin.HandlerFunc
}

// NewHandler creates the policy store handler. registrarGuard, when not nil,
// is applied to the administrative registration route.
func NewHandler(service *access.Service, registrarGuard gin.HandlerFunc) *Handler {
	return &Handler{
		service:        service,
		registrarGuard: registrarGuard,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/access")
	{
		grp.POST("/patients", h.RegisterPatient)
		if h.registrarGuard != nil {
			grp.POST("/entities", h.registrarGuard, h.RegisterEntity)
		} else {
			grp.POST("/entities", h.RegisterEntity)
		}
		grp.GET("/entities/:principal", h.GetEntityType)
		grp.POST("/grants", h.GrantAccess)
		grp.DELETE("/grants/:grantee", h.RevokeAccess)
		grp.GET("/check", h.CheckPermission)
	}
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	caller, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing caller principal"))
		return
	}

	if err := h.service.RegisterPatient(c.Request.Context(), caller); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{
		"principal":   caller,
		"entity_type": model.EntityTypePatient.String(),
	}))
}

type registerEntityRequest struct {
	Principal  string `json:"principal" binding:"required"`
	EntityType int    `json:"entity_type" binding:"required"`
}

func (h *Handler) RegisterEntity(c *gin.Context) {
	caller, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing caller principal"))
		return
	}

	var req registerEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entityType := model.EntityType(req.EntityType)
	if err := h.service.RegisterEntity(c.Request.Context(), caller, model.Principal(req.Principal), entityType); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{
		"principal":   req.Principal,
		"entity_type": entityType.String(),
	}))
}

func (h *Handler) GetEntityType(c *gin.Context) {
	principal := model.Principal(c.Param("principal"))

	entityType, err := h.service.GetEntityType(c.Request.Context(), principal)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"principal":   principal,
		"entity_type": int(entityType),
		"registered":  entityType != model.EntityTypeUnregistered,
	}))
}

type grantAccessRequest struct {
	Grantee   string `json:"grantee" binding:"required"`
	Level     int    `json:"level"`
	ExpiresAt int64  `json:"expires_at"`
	Purpose   string `json:"purpose"`
}

func (h *Handler) GrantAccess(c *gin.Context) {
	caller, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing caller principal"))
		return
	}

	var req grantAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	err := h.service.GrantAccess(c.Request.Context(), caller, model.Principal(req.Grantee),
		model.AccessLevel(req.Level), req.ExpiresAt, req.Purpose)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{
		"patient": caller,
		"grantee": req.Grantee,
		"level":   model.AccessLevel(req.Level).String(),
	}))
}

func (h *Handler) RevokeAccess(c *gin.Context) {
	caller, ok := middleware.Principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing caller principal"))
		return
	}

	grantee := model.Principal(c.Param("grantee"))
	if err := h.service.RevokeAccess(c.Request.Context(), caller, grantee); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"patient": caller,
		"grantee": grantee,
		"revoked": true,
	}))
}

func (h *Handler) CheckPermission(c *gin.Context) {
	patient := model.Principal(c.Query("patient"))
	grantee := model.Principal(c.Query("grantee"))
	if patient == "" || grantee == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("patient and grantee are required"))
		return
	}

	level, err := strconv.Atoi(c.DefaultQuery("level", "0"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid level"))
		return
	}

	allowed, err := h.service.CheckPermission(c.Request.Context(), patient, grantee, model.AccessLevel(level))
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"patient": patient,
		"grantee": grantee,
		"level":   model.AccessLevel(level).String(),
		"allowed": allowed,
	}))
}
