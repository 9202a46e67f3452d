package http

import (
	"errors"
	"net/http"
	"time"

	"order-lifecycle/internal/domain"
	"order-lifecycle/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Handler struct {
	orders    *services.OrderService
	products  *services.ProductService
	processor *services.OrderProcessor
	gatherer  prometheus.Gatherer
	log       zerolog.Logger
}

func NewHandler(o *services.OrderService, p *services.ProductService, proc *services.OrderProcessor, g prometheus.Gatherer, logger zerolog.Logger) *Handler {
	return &Handler{
		orders:    o,
		products:  p,
		processor: proc,
		gatherer:  g,
		log:       logger.With().Str("component", "http").Logger(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(h.requestLogger())

	r.POST("/orders", h.CreateOrder)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.DELETE("/orders/:id", h.DeleteOrder)

	admin := r.Group("/admin")
	admin.PUT("/products", h.SaveProducts)
	admin.POST("/orders/process", h.ProcessOrders)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if h.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), req.BuyerID, req.toItems())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrderById(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	var (
		orders []domain.Order
		err    error
	)
	if buyerID := c.Query("buyerId"); buyerID != "" {
		orders, err = h.orders.ListOrdersByBuyer(c.Request.Context(), buyerID)
	} else {
		orders, err = h.orders.ListOrders(c.Request.Context())
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	order, deleted, err := h.orders.DeleteOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: domain.ErrOrderNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) SaveProducts(c *gin.Context) {
	var req []ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.products.SaveProducts(c.Request.Context(), toProducts(req)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ProcessOrders runs one processor tick inline. A disabled processor reports a
// skipped tick.
func (h *Handler) ProcessOrders(c *gin.Context) {
	result, err := h.processor.Tick(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var (
		stockErr    *domain.InsufficientStockError
		productErr  *domain.ProductNotFoundError
		unavailable *domain.StoreUnavailableError
	)
	switch {
	case errors.Is(err, domain.ErrInvalidOrderRequest),
		errors.Is(err, domain.ErrInvalidProduct),
		errors.As(err, &stockErr),
		errors.As(err, &productErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransitionConflict),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
