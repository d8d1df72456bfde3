package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"investtrack/internal/models"
	"investtrack/internal/repository"
	"investtrack/internal/returns"
	"investtrack/internal/service"
)

type PositionHandler struct {
	Repo    repository.Repository
	Service *service.PositionService
	Logger  *zap.Logger
}

func (h *PositionHandler) Register(r *gin.Engine) {
	group := r.Group("/api/positions")
	group.GET("", h.list)
	group.GET("/summary", h.summary)
	group.POST("", h.create)
	group.POST("/refresh-prices", h.refreshPrices)
	group.GET("/:id", h.get)
	group.PUT("/:id", h.update)
	group.DELETE("/:id", h.remove)
	group.GET("/:id/dividends", h.listDividends)
	group.POST("/:id/dividends", h.createDividend)
}

// positionView wraps a stored position with its live computed return so the
// frontend does not reimplement override precedence.
type positionView struct {
	models.Position
	DividendsPaid    decimal.Decimal  `json:"dividends_paid"`
	CurrentReturnPct *decimal.Decimal `json:"current_return_pct,omitempty"`
}

func (h *PositionHandler) buildView(p models.Position, dividends decimal.Decimal) positionView {
	view := positionView{Position: p, DividendsPaid: dividends}
	if ret, ok := returns.FromPosition(p, dividends); ok {
		r := ret.Round(4)
		view.CurrentReturnPct = &r
	}
	return view
}

// @Summary List positions
// @Tags positions
// @Param status query string false "all|open|closed"
// @Param ticker query string false "exact ticker"
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Param order_by query string false "order by field"
// @Param ascending query bool false "ascending"
// @Success 200 {object} apiResponse
// @Router /api/positions [get]
func (h *PositionHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListPositionsParams{
		Limit:  limit,
		Offset: offset,
		Status: parseStatus(c.Query("status")),
		Ticker: strQueryPtr(c, "ticker"),
		OrderBy: parseOrder(c.Query("order_by"), map[string]string{
			"ticker":     "ticker",
			"start_date": "start_date",
			"created_at": "created_at",
			"updated_at": "updated_at",
		}),
		Asc: boolQueryPtr(c, "ascending"),
	}
	items, err := h.Repo.ListPositions(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountPositions(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}

	ids := make([]string, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	sums, err := h.Repo.SumDividendsByPositionIDs(c.Request.Context(), ids)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	views := make([]positionView, 0, len(items))
	for _, p := range items {
		views = append(views, h.buildView(p, sums[p.ID]))
	}
	Ok(c, views, paginationMeta(limit, offset, total))
}

// @Summary Live portfolio summary
// @Tags positions
// @Success 200 {object} apiResponse
// @Router /api/positions/summary [get]
func (h *PositionHandler) summary(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	sum, err := h.Service.Summary(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, sum, nil)
}

// @Summary Get a position
// @Tags positions
// @Param id path string true "position id"
// @Success 200 {object} apiResponse
// @Router /api/positions/{id} [get]
func (h *PositionHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	item, err := h.Repo.GetPositionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "position not found", nil)
		return
	}
	sums, err := h.Repo.SumDividendsByPositionIDs(c.Request.Context(), []string{item.ID})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, h.buildView(*item, sums[item.ID]), nil)
}

type positionRequest struct {
	Ticker             string           `json:"ticker"`
	CompanyName        *string          `json:"company_name"`
	StartDate          *string          `json:"start_date"`
	EndDate            *string          `json:"end_date"`
	StartPrice         *decimal.Decimal `json:"start_price"`
	EndPrice           *decimal.Decimal `json:"end_price"`
	StartPriceOverride *decimal.Decimal `json:"start_price_override"`
	EndPriceOverride   *decimal.Decimal `json:"end_price_override"`
	Status             *string          `json:"status"`
}

func validStatus(s string) bool {
	return s == models.PositionStatusOpen || s == models.PositionStatusClosed
}

// @Summary Create a position
// @Tags positions
// @Param body body positionRequest true "position"
// @Success 200 {object} apiResponse
// @Router /api/positions [post]
func (h *PositionHandler) create(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		Error(c, http.StatusBadRequest, "ticker required", nil)
		return
	}
	if req.StartDate == nil {
		Error(c, http.StatusBadRequest, "start_date required", nil)
		return
	}
	startDate, err := parseDate(*req.StartDate)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid start_date", nil)
		return
	}
	endDate, err := parseDatePtr(req.EndDate)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid end_date", nil)
		return
	}
	status := models.PositionStatusOpen
	if req.Status != nil {
		status = strings.ToLower(strings.TrimSpace(*req.Status))
		if !validStatus(status) {
			Error(c, http.StatusBadRequest, "invalid status", nil)
			return
		}
	}
	item := models.Position{
		Ticker:             ticker,
		CompanyName:        req.CompanyName,
		StartDate:          startDate,
		EndDate:            endDate,
		StartPrice:         req.StartPrice,
		EndPrice:           req.EndPrice,
		StartPriceOverride: req.StartPriceOverride,
		EndPriceOverride:   req.EndPriceOverride,
		Status:             status,
	}
	if err := h.Repo.CreatePosition(c.Request.Context(), &item); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("create position failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Update a position
// @Tags positions
// @Param id path string true "position id"
// @Param body body positionRequest true "fields to update"
// @Success 200 {object} apiResponse
// @Router /api/positions/{id} [put]
func (h *PositionHandler) update(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	item, err := h.Repo.GetPositionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "position not found", nil)
		return
	}
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if ticker := strings.ToUpper(strings.TrimSpace(req.Ticker)); ticker != "" {
		item.Ticker = ticker
	}
	if req.CompanyName != nil {
		item.CompanyName = req.CompanyName
	}
	if req.StartDate != nil {
		startDate, err := parseDate(*req.StartDate)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid start_date", nil)
			return
		}
		item.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := parseDatePtr(req.EndDate)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid end_date", nil)
			return
		}
		item.EndDate = endDate
	}
	if req.StartPrice != nil {
		item.StartPrice = req.StartPrice
	}
	if req.EndPrice != nil {
		item.EndPrice = req.EndPrice
	}
	if req.StartPriceOverride != nil {
		item.StartPriceOverride = req.StartPriceOverride
	}
	if req.EndPriceOverride != nil {
		item.EndPriceOverride = req.EndPriceOverride
	}
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		if !validStatus(status) {
			Error(c, http.StatusBadRequest, "invalid status", nil)
			return
		}
		item.Status = status
	}
	if err := h.Repo.UpdatePosition(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Delete a position and its dividends
// @Tags positions
// @Param id path string true "position id"
// @Success 200 {object} apiResponse
// @Router /api/positions/{id} [delete]
func (h *PositionHandler) remove(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	err := h.Service.Delete(c.Request.Context(), c.Param("id"))
	if err == service.ErrPositionNotFound {
		Error(c, http.StatusNotFound, "position not found", nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"deleted": true}, nil)
}

// @Summary Refresh open positions' prices from the market data provider
// @Tags positions
// @Success 200 {object} apiResponse
// @Router /api/positions/refresh-prices [post]
func (h *PositionHandler) refreshPrices(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	if err := h.Service.RefreshOpenPrices(c.Request.Context()); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"refreshed": true}, nil)
}

// @Summary List a position's dividends
// @Tags dividends
// @Param id path string true "position id"
// @Success 200 {object} apiResponse
// @Router /api/positions/{id}/dividends [get]
func (h *PositionHandler) listDividends(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := c.Param("id")
	item, err := h.Repo.GetPositionByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "position not found", nil)
		return
	}
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	items, err := h.Repo.ListDividends(c.Request.Context(), repository.ListDividendsParams{
		PositionID: &id,
		Since:      dateQueryPtr(c, "since"),
		Until:      dateQueryPtr(c, "until"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

type createDividendRequest struct {
	PaymentDate string          `json:"payment_date"`
	Amount      decimal.Decimal `json:"amount"`
}

// @Summary Record a dividend payment
// @Tags dividends
// @Param id path string true "position id"
// @Param body body createDividendRequest true "dividend"
// @Success 200 {object} apiResponse
// @Router /api/positions/{id}/dividends [post]
func (h *PositionHandler) createDividend(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var req createDividendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid payment_date", nil)
		return
	}
	item, err := h.Service.RecordDividend(c.Request.Context(), c.Param("id"), paymentDate, req.Amount)
	if err == service.ErrPositionNotFound {
		Error(c, http.StatusNotFound, "position not found", nil)
		return
	}
	if err == service.ErrInvalidDividend {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}
