package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"investtrack/internal/models"
	"investtrack/internal/report"
	"investtrack/internal/repository"
	"investtrack/internal/service"
)

type SnapshotHandler struct {
	Repo        repository.Repository
	Builder     *service.SnapshotBuilderService
	ReportTitle string
	Logger      *zap.Logger
}

func (h *SnapshotHandler) Register(r *gin.Engine) {
	group := r.Group("/api/snapshots")
	group.GET("", h.list)
	group.POST("", h.create)
	group.GET("/:id", h.get)
	group.PUT("/:id", h.update)
	group.DELETE("/:id", h.remove)
	group.POST("/:id/fetch-prices", h.fetchPrices)
	group.POST("/:id/populate-dividends", h.populateDividends)
	group.GET("/:id/stats", h.stats)
	group.GET("/:id/report", h.reportHTML)
}

// @Summary List snapshots
// @Tags snapshots
// @Param status query string false "pending|ready"
// @Param since query string false "end_date >= (YYYY-MM-DD)"
// @Param until query string false "end_date <= (YYYY-MM-DD)"
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/snapshots [get]
func (h *SnapshotHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListSnapshotsParams{
		Limit:  limit,
		Offset: offset,
		Status: strQueryPtr(c, "status"),
		Since:  dateQueryPtr(c, "since"),
		Until:  dateQueryPtr(c, "until"),
		OrderBy: parseOrder(c.Query("order_by"), map[string]string{
			"end_date":   "end_date",
			"created_at": "created_at",
		}),
		Asc: boolQueryPtr(c, "ascending"),
	}
	items, err := h.Repo.ListSnapshots(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountSnapshots(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

type snapshotDetail struct {
	models.Snapshot
	Positions []models.SnapshotPosition `json:"positions"`
}

// @Summary Get a snapshot with its frozen positions
// @Tags snapshots
// @Param id path string true "snapshot id"
// @Success 200 {object} apiResponse
// @Router /api/snapshots/{id} [get]
func (h *SnapshotHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	item, err := h.Repo.GetSnapshotByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "snapshot not found", nil)
		return
	}
	rows, err := h.Repo.ListSnapshotPositions(c.Request.Context(), item.ID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, snapshotDetail{Snapshot: *item, Positions: rows}, nil)
}

type snapshotRequest struct {
	Name      *string `json:"name"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Notes     *string `json:"notes"`
}

// @Summary Create a snapshot of the current positions
// @Tags snapshots
// @Param body body snapshotRequest true "snapshot"
// @Success 200 {object} apiResponse
// @Router /api/snapshots [post]
func (h *SnapshotHandler) create(c *gin.Context) {
	if h.Builder == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.EndDate == nil || strings.TrimSpace(*req.EndDate) == "" {
		Error(c, http.StatusBadRequest, "end_date required", nil)
		return
	}
	endDate, err := parseDate(*req.EndDate)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid end_date", nil)
		return
	}
	startDate, err := parseDatePtr(req.StartDate)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid start_date", nil)
		return
	}
	snap, err := h.Builder.Create(c.Request.Context(), service.CreateSnapshotOptions{
		Name:      req.Name,
		StartDate: startDate,
		EndDate:   endDate,
		Notes:     req.Notes,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("create snapshot failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, snap, nil)
}

// @Summary Update snapshot metadata
// @Tags snapshots
// @Param id path string true "snapshot id"
// @Param body body snapshotRequest true "fields to update"
// @Success 200 {object} apiResponse
// @Router /api/snapshots/{id} [put]
func (h *SnapshotHandler) update(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	item, err := h.Repo.GetSnapshotByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "snapshot not found", nil)
		return
	}
	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.Name != nil {
		item.Name = req.Name
	}
	if req.Notes != nil {
		item.Notes = req.Notes
	}
	if req.StartDate != nil {
		startDate, err := parseDatePtr(req.StartDate)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid start_date", nil)
			return
		}
		item.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := parseDate(*req.EndDate)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid end_date", nil)
			return
		}
		item.EndDate = endDate
	}
	if err := h.Repo.UpdateSnapshot(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Delete a snapshot and its frozen positions
// @Tags snapshots
// @Param id path string true "snapshot id"
// @Success 200 {object} apiResponse
// @Router /api/snapshots/{id} [delete]
func (h *SnapshotHandler) remove(c *gin.Context) {
	if h.Builder == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	err := h.Builder.Delete(c.Request.Context(), c.Param("id"))
	if err == service.ErrSnapshotNotFound {
		Error(c, http.StatusNotFound, "snapshot not found", nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"deleted": true}, nil)
}

// @Summary Backfill missing prices on a snapshot's rows
// @Tags snapshots
// @Param id path string true "snapshot id"
// @Success 200 {object} apiResponse
// @Router /api/snapshots/{id}/fetch-prices [post]
func (h *SnapshotHandler) fetchPrices(c *gin.Context) {
	if h.Builder == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	res, err := h.Builder.FetchPrices(c.Request.Context(), c.Param("id"))
	if err == service.ErrSnapshotNotFound {
		Error(c, http.StatusNotFound, "snapshot not found", nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, res, nil)
}

// @Summary Fill dividend totals on a snapshot's rows
// @Tags snapshots
// @Param id path string true "snapshot id"
// @Success 200 {object} apiResponse
// @Router /api/snapshots/{id}/populate-dividends [post]
func (h *SnapshotHandler) populateDividends(c *gin.Context) {
	if h.Builder == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	res, err := h.Builder.PopulateDividends(c.Request.Context(), c.Param("id"))
	if err == service.ErrSnapshotNotFound {
		Error(c, http.StatusNotFound, "snapshot not found", nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, res, nil)
}

// @Summary Snapshot statistics (summary and return bands)
// @Tags snapshots
// @Param id path string true "snapshot id"
// @Success 200 {object} apiResponse
// @Router /api/snapshots/{id}/stats [get]
func (h *SnapshotHandler) stats(c *gin.Context) {
	if h.Builder == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	out, err := h.Builder.Stats(c.Request.Context(), c.Param("id"))
	if err == service.ErrSnapshotNotFound {
		Error(c, http.StatusNotFound, "snapshot not found", nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, out, nil)
}

// @Summary Download the snapshot as a standalone HTML report
// @Tags snapshots
// @Param id path string true "snapshot id"
// @Produce html
// @Success 200 {string} string "HTML document"
// @Router /api/snapshots/{id}/report [get]
func (h *SnapshotHandler) reportHTML(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	item, err := h.Repo.GetSnapshotByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "snapshot not found", nil)
		return
	}
	rows, err := h.Repo.ListSnapshotPositions(c.Request.Context(), item.ID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}

	title := h.ReportTitle
	if title == "" {
		title = "Portfolio Snapshot Report"
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, report.Build(title, *item, rows)); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	filename := fmt.Sprintf("snapshot-%s.html", item.EndDate.Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
