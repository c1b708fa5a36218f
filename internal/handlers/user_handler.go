package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler exposes the authenticated user's cart and address book.
type UserHandler struct {
	service     *services.UserService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, authService *services.AuthService) *UserHandler {
	return &UserHandler{
		service:     service,
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers cart and address routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	auth := middleware.AuthRequired(h.authService)

	cart := router.Group("/cart", auth)
	cart.Get("/", h.HandleGetCart)
	cart.Post("/", h.HandleAddToCart)
	cart.Put("/:productId", h.HandleUpdateCartQuantity)
	cart.Delete("/:itemId", h.HandleRemoveFromCart)

	addresses := router.Group("/addresses", auth)
	addresses.Get("/", h.HandleListAddresses)
	addresses.Post("/", h.HandleAddAddress)
	addresses.Put("/:id", h.HandleUpdateAddress)
	addresses.Delete("/:id", h.HandleDeleteAddress)
}

// HandleGetCart returns the current user's cart with product details.
func (h *UserHandler) HandleGetCart(c *fiber.Ctx) error {
	items, err := h.service.GetCart(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

type addToCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// HandleAddToCart adds a product to the current user's cart.
func (h *UserHandler) HandleAddToCart(c *fiber.Ctx) error {
	var req addToCartRequest
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

	if err := h.service.AddToCart(middleware.UserID(c), req.ProductID, req.Quantity); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product added to cart",
	})
}

type updateCartRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// HandleUpdateCartQuantity changes the quantity of a cart line.
func (h *UserHandler) HandleUpdateCartQuantity(c *fiber.Ctx) error {
	var req updateCartRequest
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

	if err := h.service.UpdateCartQuantity(middleware.UserID(c), c.Params("productId"), req.Quantity); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Cart updated",
	})
}

// HandleRemoveFromCart deletes a single item from the cart.
func (h *UserHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	if err := h.service.RemoveFromCart(middleware.UserID(c), c.Params("itemId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Item removed from cart",
	})
}

// HandleListAddresses returns the user's saved shipping addresses.
func (h *UserHandler) HandleListAddresses(c *fiber.Ctx) error {
	addresses, err := h.service.ListAddresses(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(addresses)
}

// HandleAddAddress saves a new shipping address for the user.
func (h *UserHandler) HandleAddAddress(c *fiber.Ctx) error {
	var address models.Address
	if err := c.BodyParser(&address); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(address); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	if err := h.service.AddAddress(middleware.UserID(c), &address); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}

// HandleUpdateAddress updates one of the user's addresses.
func (h *UserHandler) HandleUpdateAddress(c *fiber.Ctx) error {
	var address models.Address
	if err := c.BodyParser(&address); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	address.ID = c.Params("id")

	if err := h.service.UpdateAddress(middleware.UserID(c), &address); err != nil {
		return respondError(c, err)
	}
	return c.JSON(address)
}

// HandleDeleteAddress removes one of the user's addresses.
func (h *UserHandler) HandleDeleteAddress(c *fiber.Ctx) error {
	if err := h.service.DeleteAddress(middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Address deleted",
	})
}
