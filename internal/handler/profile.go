package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"investtrack/internal/models"
	"investtrack/internal/repository"
)

// DefaultUserID identifies the single local user; authentication lives at
// the gateway, so the service itself tracks exactly one profile.
const DefaultUserID = "default"

type ProfileHandler struct {
	Repo repository.Repository
}

func (h *ProfileHandler) Register(r *gin.Engine) {
	group := r.Group("/api/profile")
	group.GET("", h.get)
	group.PUT("", h.put)
}

// @Summary Get the user profile
// @Tags profile
// @Success 200 {object} apiResponse
// @Router /api/profile [get]
func (h *ProfileHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	item, err := h.Repo.GetProfile(c.Request.Context(), DefaultUserID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		item = &models.Profile{UserID: DefaultUserID, BaseCCY: "USD"}
	}
	Ok(c, item, nil)
}

type putProfileRequest struct {
	DisplayName *string `json:"display_name"`
	BaseCCY     *string `json:"base_ccy"`
}

// @Summary Update the user profile
// @Tags profile
// @Param body body putProfileRequest true "fields to update"
// @Success 200 {object} apiResponse
// @Router /api/profile [put]
func (h *ProfileHandler) put(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req putProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Repo.GetProfile(c.Request.Context(), DefaultUserID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		item = &models.Profile{UserID: DefaultUserID, BaseCCY: "USD"}
	}
	if req.DisplayName != nil {
		item.DisplayName = req.DisplayName
	}
	if req.BaseCCY != nil {
		ccy := strings.ToUpper(strings.TrimSpace(*req.BaseCCY))
		if len(ccy) != 3 {
			Error(c, http.StatusBadRequest, "base_ccy must be a 3-letter code", nil)
			return
		}
		item.BaseCCY = ccy
	}
	if err := h.Repo.UpsertProfile(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}
