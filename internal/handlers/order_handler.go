package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles the checkout and order lifecycle endpoints.
type OrderHandler struct {
	service     *services.OrderService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, authService *services.AuthService) *OrderHandler {
	return &OrderHandler{
		service:     service,
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	auth := middleware.AuthRequired(h.authService)

	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Post("/quote", h.HandleQuotePrice)
	orderRoutes.Post("/checkout", h.HandleCreatePaymentIntent)
	orderRoutes.Post("/confirm", h.HandleConfirmOrder)
	orderRoutes.Get("/", h.HandleGetMyOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
	orderRoutes.Get("/:id/track", h.HandleTrackOrder)

	admin := router.Group("/admin/orders", auth, middleware.AdminRequired())
	admin.Get("/", h.HandleGetAllOrders)
	admin.Put("/:id/status", h.HandleUpdateOrderStatus)
	admin.Post("/:id/ship", h.HandleRetryShipment)
}

type quoteRequest struct {
	AddressID string `json:"address_id" validate:"required"`
}

// HandleQuotePrice computes the full price breakdown for the user's cart
// shipped to the given address, without touching payment or stock.
func (h *OrderHandler) HandleQuotePrice(c *fiber.Ctx) error {
	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	breakdown, err := h.service.QuotePrice(middleware.UserID(c), req.AddressID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(breakdown)
}

type checkoutRequest struct {
	AddressID string  `json:"address_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

// HandleCreatePaymentIntent creates a payment intent at the gateway for the
// user's cart. The client-supplied amount is re-verified server side.
func (h *OrderHandler) HandleCreatePaymentIntent(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	intent, err := h.service.CreatePaymentIntent(middleware.UserID(c), req.AddressID, req.Amount)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(intent)
}

type confirmOrderRequest struct {
	AddressID string `json:"address_id" validate:"required"`
	services.PaymentProof
}

// HandleConfirmOrder verifies the payment proof and places the order.
func (h *OrderHandler) HandleConfirmOrder(c *fiber.Ctx) error {
	var req confirmOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	order, err := h.service.ConfirmOrder(middleware.UserID(c), req.PaymentProof, req.AddressID)
	middleware.RecordOrderOperation("place", err == nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetMyOrders lists the current user's orders.
func (h *OrderHandler) HandleGetMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersByUser(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID returns a single order for its owner or an admin.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrderByID(c.Params("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// HandleCancelOrder cancels an order, refunding the payment and restoring
// stock.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	var req cancelOrderRequest
	if err := c.BodyParser(&req); err != nil && err != fiber.ErrUnprocessableEntity {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.service.CancelOrder(c.Params("id"), middleware.UserID(c), middleware.IsAdmin(c), req.Reason)
	middleware.RecordOrderOperation("cancel", err == nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleTrackOrder returns the latest courier status for an order.
func (h *OrderHandler) HandleTrackOrder(c *fiber.Ctx) error {
	info, err := h.service.TrackOrder(c.Params("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}

// HandleGetAllOrders lists every order in the system. Admin only.
func (h *OrderHandler) HandleGetAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetAllOrders()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleUpdateOrderStatus moves an order to a new status. Admin only.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	order, err := h.service.UpdateOrderStatus(c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleRetryShipment retries courier booking for a paid order whose first
// booking attempt failed. Admin only.
func (h *OrderHandler) HandleRetryShipment(c *fiber.Ctx) error {
	order, err := h.service.RetryShipment(c.Params("id"))
	middleware.RecordOrderOperation("retry_shipment", err == nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}
