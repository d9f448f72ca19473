// @title           Stock Trading API
// @version         1.0
// @description     Records stock trades and realizes sells against FIFO/LIFO lots

// @host      localhost:8080
// @BasePath  /api

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	appinterfaces "github.com/vinaysengar-17/stock-trading/internal/application/interfaces"
	applots "github.com/vinaysengar-17/stock-trading/internal/application/service/lots"
	apptrades "github.com/vinaysengar-17/stock-trading/internal/application/service/trades"
	"github.com/vinaysengar-17/stock-trading/internal/domain/entity/trading"
	"github.com/vinaysengar-17/stock-trading/internal/domain/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	tradesBasePath = "/api/trades"
	lotsBasePath   = "/api/lots"
)

var (
	errInvalidTradeID = errors.New("invalid trade id")
	errInvalidLotID   = errors.New("invalid lot id")
)

type Handler struct {
	router   *gin.Engine
	trades   *apptrades.Service
	lots     *applots.Service
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *logrus.Logger
}

var _ appinterfaces.HTTPHandler = (*Handler)(nil)

// NewHandler wires the routes. cache may be nil, which disables response caching.
func NewHandler(trades *apptrades.Service, lots *applots.Service, cache *redis.Client, cacheTTL time.Duration, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	h := &Handler{
		router:   router,
		trades:   trades,
		lots:     lots,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/", h.root)
	h.router.GET("/healthz", h.healthz)

	trades := h.router.Group(tradesBasePath)
	{
		trades.POST("", h.createTrade)
		trades.GET("", h.listTrades)
		trades.POST("/bulk", h.bulkCreateTrades)
		// Trades never change once written, so lookups by id are safe to cache.
		if h.cache != nil {
			trades.GET("/:id", h.cacheMiddleware(), h.getTrade)
		} else {
			trades.GET("/:id", h.getTrade)
		}
	}

	lots := h.router.Group(lotsBasePath)
	{
		lots.GET("", h.listLots)
		lots.GET("/:id", h.getLot)
	}
}

func (h *Handler) root(c *gin.Context) {
	c.String(http.StatusOK, "Stock Trading API is Running...")
}

// healthz reports whether the database answers.
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  envelope
// @Failure      500  {object}  envelope
// @Router       /healthz [get]
func (h *Handler) healthz(c *gin.Context) {
	if err := h.trades.Ping(c.Request.Context()); err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(c, http.StatusOK, gin.H{"database": "ok"}, "Service is healthy")
}

// createTrade records one trade
// @Summary      Create trade
// @Description  Record a buy (positive quantity) or sell (negative quantity). Sells realize open lots.
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        method  query     string            false  "FIFO or LIFO"  default(FIFO)
// @Param        trade   body      trading.TradeInput  true   "Trade data"
// @Success      201     {object}  envelope
// @Failure      400     {object}  envelope
// @Failure      422     {object}  envelope
// @Failure      500     {object}  envelope
// @Router       /trades [post]
func (h *Handler) createTrade(c *gin.Context) {
	method, err := trading.ParseMethod(c.Query("method"))
	if err != nil {
		writeMessage(c, http.StatusBadRequest, "Method must be either FIFO or LIFO")
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	input, err := validation.DecodeTradeInput(raw)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	result, err := h.trades.RecordTrade(c.Request.Context(), input, method)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	data := gin.H{"trade": result.Trade}
	if result.Realization != nil {
		data["realization"] = result.Realization
	}
	writeSuccess(c, http.StatusCreated, data, "Trade created successfully")
}

// listTrades returns all trades, newest first
// @Summary      List trades
// @Tags         trades
// @Produce      json
// @Success      200  {object}  envelope
// @Failure      500  {object}  envelope
// @Router       /trades [get]
func (h *Handler) listTrades(c *gin.Context) {
	trades, err := h.trades.ListTrades(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, trades, "Trades retrieved successfully")
}

// getTrade returns one trade
// @Summary      Get trade
// @Tags         trades
// @Produce      json
// @Param        id   path      string  true  "Trade ID"
// @Success      200  {object}  envelope
// @Failure      400  {object}  envelope
// @Failure      404  {object}  envelope
// @Router       /trades/{id} [get]
func (h *Handler) getTrade(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, errInvalidTradeID)
		return
	}
	trade, err := h.trades.GetTrade(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, trade, "Trade retrieved successfully")
}

// bulkCreateTrades records several trades with one method
// @Summary      Bulk create trades
// @Description  Items are processed in order; a failing item does not stop the rest.
// @Tags         trades
// @Accept       json
// @Produce      json
// @Param        body  body      bulkPayload  true  "Trades and method"
// @Success      200   {object}  envelope
// @Failure      400   {object}  envelope
// @Router       /trades/bulk [post]
func (h *Handler) bulkCreateTrades(c *gin.Context) {
	var payload bulkPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	items, ok := payload.items()
	if !ok {
		writeMessage(c, http.StatusBadRequest, "Trades must be an array")
		return
	}
	method, err := trading.ParseMethod(payload.Method)
	if err != nil {
		writeMessage(c, http.StatusBadRequest, "Method must be either FIFO or LIFO")
		return
	}
	results := h.trades.RecordTrades(c.Request.Context(), items, method)
	writeSuccess(c, http.StatusOK, results, "Bulk trade operation completed")
}

// listLots returns lots sorted by creation time in the method's direction
// @Summary      List lots
// @Tags         lots
// @Produce      json
// @Param        stock_name  query     string  false  "Stock filter"
// @Param        status      query     string  false  "OPEN, PARTIALLY_REALIZED or FULLY_REALIZED"
// @Param        method      query     string  false  "FIFO (oldest first) or LIFO (newest first)"  default(FIFO)
// @Success      200         {object}  envelope
// @Failure      400         {object}  envelope
// @Router       /lots [get]
func (h *Handler) listLots(c *gin.Context) {
	filter, err := parseLotFilter(c)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	lots, err := h.lots.ListLots(c.Request.Context(), filter)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, lots, "Lots retrieved successfully")
}

// getLot returns one lot
// @Summary      Get lot
// @Tags         lots
// @Produce      json
// @Param        id   path      string  true  "Lot ID"
// @Success      200  {object}  envelope
// @Failure      400  {object}  envelope
// @Failure      404  {object}  envelope
// @Router       /lots/{id} [get]
func (h *Handler) getLot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, errInvalidLotID)
		return
	}
	lot, err := h.lots.GetLot(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	writeSuccess(c, http.StatusOK, lot, "Lot retrieved successfully")
}

type bulkPayload struct {
	Trades json.RawMessage `json:"trades"`
	Method string          `json:"method"`
}

func (p bulkPayload) items() ([]json.RawMessage, bool) {
	if !strings.HasPrefix(strings.TrimSpace(string(p.Trades)), "[") {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(p.Trades, &items); err != nil {
		return nil, false
	}
	return items, true
}

func parseLotFilter(c *gin.Context) (trading.LotFilter, error) {
	method, err := trading.ParseMethod(c.Query("method"))
	if err != nil {
		return trading.LotFilter{}, err
	}
	filter := trading.LotFilter{
		StockName: strings.TrimSpace(c.Query("stock_name")),
		Method:    method,
	}
	if raw := c.Query("status"); raw != "" {
		status, err := trading.ParseLotStatus(strings.ToUpper(raw))
		if err != nil {
			return trading.LotFilter{}, err
		}
		filter.Status = status
	}
	return filter, nil
}
