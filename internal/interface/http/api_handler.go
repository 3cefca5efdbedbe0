package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/apidex-io/apidex/internal/application"
	"github.com/apidex-io/apidex/internal/interface/middleware"
	"github.com/apidex-io/apidex/pkg/response"
	"github.com/apidex-io/apidex/pkg/validation"
)

// APIHandler serves the per-user API catalog.
type APIHandler struct {
	Svc    *userapp.APIService
	Logger *logrus.Logger
}

func NewAPIHandler(svc *userapp.APIService, logger *logrus.Logger) *APIHandler {
	return &APIHandler{Svc: svc, Logger: logger}
}

func (h *APIHandler) fail(c *gin.Context, uid string, err error, fallback string) {
	switch {
	case errors.Is(err, userapp.ErrAPINotFound):
		response.Error[any](c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, userapp.ErrMissingFields),
		errors.Is(err, userapp.ErrInvalidMethod),
		errors.Is(err, userapp.ErrInvalidStatus),
		errors.Is(err, userapp.ErrNoFieldsToUpdate):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("user_id", uid).Error(fallback)
		}
		response.Error[any](c, http.StatusInternalServerError, fallback, nil)
	}
}

// List GET /api/apis?page=&limit=
func (h *APIHandler) List(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, total, pages, err := h.Svc.List(c.Request.Context(), uid, page, limit)
	if err != nil {
		h.fail(c, uid, err, "failed to list apis")
		return
	}

	out := make([]gin.H, 0, len(entries))
	for _, a := range entries {
		out = append(out, apiJSON(a))
	}
	response.Success(c, http.StatusOK, gin.H{
		"apis":  out,
		"total": total,
		"page":  page,
		"pages": pages,
	}, "apis")
}

type createAPIRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Endpoint    string `json:"endpoint" binding:"required"`
	Method      string `json:"method"`
	Status      string `json:"status"`
}

// Create POST /api/apis
func (h *APIHandler) Create(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req createAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	a, err := h.Svc.Create(c.Request.Context(), uid, userapp.CreateAPIInput{
		Name:        req.Name,
		Description: req.Description,
		Endpoint:    req.Endpoint,
		Method:      req.Method,
		Status:      req.Status,
	})
	if err != nil {
		h.fail(c, uid, err, "failed to create api")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"api": apiJSON(a)}, "api created successfully")
}

// Get GET /api/apis/:id
func (h *APIHandler) Get(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	a, err := h.Svc.Get(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		h.fail(c, uid, err, "failed to fetch api")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"api": apiJSON(a)}, "api")
}

type updateAPIRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Endpoint    string `json:"endpoint"`
	Method      string `json:"method"`
	Status      string `json:"status"`
}

// Update PUT /api/apis/:id
func (h *APIHandler) Update(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	a, err := h.Svc.Update(c.Request.Context(), uid, c.Param("id"), userapp.UpdateAPIInput{
		Name:        req.Name,
		Description: req.Description,
		Endpoint:    req.Endpoint,
		Method:      req.Method,
		Status:      req.Status,
	})
	if err != nil {
		h.fail(c, uid, err, "failed to update api")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"api": apiJSON(a)}, "api updated successfully")
}

// Delete DELETE /api/apis/:id
func (h *APIHandler) Delete(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		h.fail(c, uid, err, "failed to delete api")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "api deleted successfully")
}
