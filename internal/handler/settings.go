package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"investtrack/internal/service"
)

type SettingsHandler struct {
	Service *service.SettingsService
}

func (h *SettingsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/settings")
	group.GET("", h.list)
	group.PUT("/:key", h.put)
}

// @Summary List settings
// @Tags settings
// @Success 200 {object} apiResponse
// @Router /api/settings [get]
func (h *SettingsHandler) list(c *gin.Context) {
	if h.Service == nil || h.Service.Repo == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	items, err := h.Service.Repo.ListSettings(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

type putSettingRequest struct {
	Value string `json:"value"`
}

// @Summary Set a setting
// @Tags settings
// @Param key path string true "setting key"
// @Param body body putSettingRequest true "value"
// @Success 200 {object} apiResponse
// @Router /api/settings/{key} [put]
func (h *SettingsHandler) put(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "key required", nil)
		return
	}
	var req putSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := h.Service.Set(c.Request.Context(), key, req.Value); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"key": key, "value": req.Value}, nil)
}
