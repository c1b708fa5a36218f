package services

import (
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/courier"
	"storefront/pkg/payment"
	"storefront/pkg/rabbitmq"
)

// PaymentGateway is the slice of the payment adapter the order workflow
// needs. pkg/payment.Client satisfies it; tests inject doubles.
type PaymentGateway interface {
	CreateIntent(amountMinorUnits int64, currency string) (*payment.Intent, error)
	VerifySignature(orderRef, paymentRef, signature string) bool
	Refund(paymentRef string, amountMinorUnits int64) (*payment.Refund, error)
}

// CourierService is the slice of the courier adapter the order workflow
// needs. pkg/courier.Client satisfies it.
type CourierService interface {
	BookShipment(req courier.ShipmentRequest) (*courier.Booking, error)
	CancelShipment(trackingNumber string) courier.CancelResult
	PollStatus(trackingNumber string) (*courier.TrackingStatus, error)
	Name() string
}

// EventPublisher publishes order lifecycle events. pkg/rabbitmq.Client
// satisfies it; a nil publisher disables events.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// PaymentProof is the client-supplied evidence that a payment completed:
// the gateway's order and payment references plus its HMAC signature.
type PaymentProof struct {
	GatewayOrderID string `json:"gateway_order_id" validate:"required"`
	PaymentID      string `json:"payment_id" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
}

// TrackingInfo pairs the order's own status with the courier's live status.
type TrackingInfo struct {
	OrderStatus models.OrderStatus      `json:"order_status"`
	Live        *courier.TrackingStatus `json:"live_courier_status"`
}

// OrderService orchestrates the order placement and cancellation workflow:
// pricing, payment verification, inventory reservation, shipment booking,
// and the compensating transaction that unwinds a cancelled order.
type OrderService struct {
	orderRepo    repositories.OrderRepository
	userRepo     repositories.UserRepository
	productRepo  repositories.ProductRepository
	shipmentRepo repositories.ShipmentRepository
	pricing      *PricingService
	gateway      PaymentGateway
	courier      CourierService
	events       EventPublisher
	currency     string
}

// NewOrderService creates a new OrderService. All collaborators are injected
// so tests can substitute doubles for the gateway and courier.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	productRepo repositories.ProductRepository,
	shipmentRepo repositories.ShipmentRepository,
	pricing *PricingService,
	gateway PaymentGateway,
	courierSvc CourierService,
	events EventPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		productRepo:  productRepo,
		shipmentRepo: shipmentRepo,
		pricing:      pricing,
		gateway:      gateway,
		courier:      courierSvc,
		events:       events,
		currency:     "INR",
	}
}

// QuotePrice computes the authoritative price breakdown for the user's
// current cart shipped to the given address.
func (s *OrderService) QuotePrice(userID, addressID string) (*Breakdown, error) {
	items, address, err := s.loadCartAndAddress(userID, addressID)
	if err != nil {
		return nil, err
	}
	return s.pricing.ComputeBreakdown(items, address)
}

// CreatePaymentIntent validates the cart and the optional client-quoted
// total, then registers a payment intent with the gateway. No Order exists
// until the payment is verified; the intent only reserves an amount.
func (s *OrderService) CreatePaymentIntent(userID, addressID string, clientAmount float64) (*payment.Intent, error) {
	items, address, err := s.loadCartAndAddress(userID, addressID)
	if err != nil {
		return nil, err
	}

	// Advisory stock check so the customer is not charged for an order that
	// can never be reserved. The binding check happens at placement.
	for _, item := range items {
		if item.Product.ID == "" {
			return nil, apperrors.Validation("a product in your cart is no longer available")
		}
		if item.Product.Stock < item.Quantity {
			return nil, apperrors.InsufficientStock(item.Product.Name)
		}
	}

	breakdown, err := s.pricing.ComputeBreakdown(items, address)
	if err != nil {
		return nil, err
	}
	if clientAmount > 0 {
		if err := s.pricing.ValidateClientTotal(clientAmount, breakdown.Total); err != nil {
			return nil, err
		}
	}

	return s.gateway.CreateIntent(toMinorUnits(breakdown.Total), s.currency)
}

// ConfirmOrder verifies the payment proof and places the order: it reserves
// stock for every cart line and creates the Order atomically, clears the
// cart, then best-effort books a shipment. A booking failure leaves the
// order in the recoverable Paid state with ShipmentPending set; it never
// undoes a captured payment.
func (s *OrderService) ConfirmOrder(userID string, proof PaymentProof, addressID string) (*models.Order, error) {
	items, address, err := s.loadCartAndAddress(userID, addressID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.pricing.ComputeBreakdown(items, address)
	if err != nil {
		return nil, err
	}

	// The signature is the sole authentication that a payment occurred.
	// Nothing is persisted when it fails.
	if !s.gateway.VerifySignature(proof.GatewayOrderID, proof.PaymentID, proof.Signature) {
		return nil, apperrors.InvalidSignature("payment signature verification failed")
	}

	orderID := uuid.New().String()
	var orderItems []models.OrderItem
	var reservations []repositories.StockReservation
	for _, item := range items {
		if item.Product.ID == "" {
			return nil, apperrors.Validation("a product in your cart is no longer available")
		}
		orderItems = append(orderItems, models.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Quantity:  item.Quantity,
			Price:     item.Product.Price, // snapshot, immune to later price edits
		})
		reservations = append(reservations, repositories.StockReservation{
			ProductID:   item.Product.ID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
		})
	}

	order := &models.Order{
		ID:              orderID,
		UserID:          userID,
		Items:           orderItems,
		ShippingAddress: snapshotAddress(address),
		Subtotal:        breakdown.Subtotal,
		ShippingFee:     breakdown.Shipping,
		Tax:             breakdown.Tax,
		TotalPrice:      breakdown.Total,
		Status:          models.StatusPaid,
		GatewayOrderID:  proof.GatewayOrderID,
		PaymentID:       proof.PaymentID,
		PaymentMethod:   "Gateway",
	}

	// Stock decrements and the order insert commit together or not at all.
	if err := s.orderRepo.PlaceOrder(order, reservations); err != nil {
		return nil, err
	}

	// The order is durable now; a failed cart clear is an inconvenience,
	// not a consistency problem.
	if err := s.userRepo.ClearCart(userID); err != nil {
		log.Printf("Warning: failed to clear cart for user %s after order %s: %v", userID, order.ID, err)
	}

	s.bookShipmentForOrder(order, TotalWeightGrams(items))

	s.publishEvent(rabbitmq.RoutingOrderPlaced, map[string]interface{}{
		"order_id":         order.ID,
		"user_id":          order.UserID,
		"status":           order.Status,
		"total":            order.TotalPrice,
		"shipment_pending": order.ShipmentPending,
	})

	return order, nil
}

// CancelOrder runs the compensating transaction for an order: best-effort
// courier cancel, refund of the captured payment, stock restore, and the
// transition to Cancelled. A refund failure aborts before any persistent
// write, so the order provably stays in its prior state.
func (s *OrderService) CancelOrder(orderID, actorID string, isAdmin bool, reason string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != actorID {
		return nil, apperrors.Forbidden("you are not allowed to cancel this order")
	}
	if order.Status.Terminal() {
		return nil, apperrors.InvalidTransition("order %s is already %s and cannot be cancelled", order.ID, order.Status)
	}

	// Courier-side cancellation is advisory. The courier may already be in a
	// terminal state for this waybill; that must never block the order.
	if order.TrackingNumber != "" {
		result := s.courier.CancelShipment(order.TrackingNumber)
		if !result.Success {
			log.Printf("Warning: courier cancel for order %s (waybill %s) failed: %s", order.ID, order.TrackingNumber, result.Message)
		}
		if err := s.shipmentRepo.UpdateStatus(order.TrackingNumber, models.ShipmentCancelled); err != nil {
			log.Printf("Warning: failed to mark shipment %s cancelled: %v", order.TrackingNumber, err)
		}
	}

	now := time.Now()
	if order.PaymentID != "" {
		refund, err := s.gateway.Refund(order.PaymentID, toMinorUnits(order.TotalPrice))
		if err != nil {
			// Marking an order cancelled without completing the refund is
			// unacceptable; surface the failure and leave the order as-is.
			return nil, err
		}
		order.RefundID = refund.RefundID
		order.RefundStatus = refund.Status
		order.RefundAmount = order.TotalPrice
		order.RefundedAt = &now
	} else {
		order.RefundStatus = models.RefundSkipped
	}

	order.Status = models.StatusCancelled
	order.CancelledBy = actorID
	order.CancelReason = reason
	order.CancelledAt = &now

	restock := make([]repositories.StockReservation, 0, len(order.Items))
	for _, item := range order.Items {
		restock = append(restock, repositories.StockReservation{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
		})
	}
	if err := s.orderRepo.CancelOrder(order, restock); err != nil {
		return nil, err
	}

	s.publishEvent(rabbitmq.RoutingOrderCancelled, map[string]interface{}{
		"order_id":      order.ID,
		"user_id":       order.UserID,
		"refund_status": order.RefundStatus,
		"reason":        reason,
	})

	return order, nil
}

// RetryShipment re-attempts the courier booking for a Paid order whose
// original booking failed. Each attempt sends a fresh external identifier,
// so courier-side duplicate rejection cannot wedge the retry.
func (s *OrderService) RetryShipment(orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPaid || order.TrackingNumber != "" {
		return nil, apperrors.InvalidTransition("order %s has no pending shipment to retry", order.ID)
	}

	booking, err := s.courier.BookShipment(s.shipmentRequest(order, s.orderWeightGrams(order)))
	if err != nil {
		return nil, err
	}
	return s.attachBooking(order, booking)
}

// TrackOrder returns the order's status together with the courier's live
// tracking snapshot.
func (s *OrderService) TrackOrder(orderID, actorID string, isAdmin bool) (*TrackingInfo, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != actorID {
		return nil, apperrors.Forbidden("you are not allowed to track this order")
	}
	if order.TrackingNumber == "" {
		return nil, apperrors.Validation("order has not been shipped yet")
	}

	live, err := s.courier.PollStatus(order.TrackingNumber)
	if err != nil {
		return nil, err
	}
	if err := s.shipmentRepo.UpdateStatus(order.TrackingNumber, live.Status); err != nil {
		log.Printf("Warning: failed to record shipment status for %s: %v", order.TrackingNumber, err)
	}
	return &TrackingInfo{OrderStatus: order.Status, Live: live}, nil
}

// GetOrderByID returns a single order, restricted to its owner unless the
// caller is an administrator.
func (s *OrderService) GetOrderByID(orderID, actorID string, isAdmin bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != actorID {
		return nil, apperrors.Forbidden("you are not allowed to view this order")
	}
	return order, nil
}

// GetOrdersByUser returns every order belonging to a user, newest first.
func (s *OrderService) GetOrdersByUser(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID)
}

// GetAllOrders returns every order in the store. Admin only.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// UpdateOrderStatus moves an order to a new status through the transition
// table; free-form strings and illegal transitions are rejected.
func (s *OrderService) UpdateOrderStatus(orderID, status string) (*models.Order, error) {
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, apperrors.InvalidTransition("cannot move order %s from %s to %s", order.ID, order.Status, next)
	}
	order.Status = next
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}
	return order, nil
}

// loadCartAndAddress fetches the cart with live product data and resolves
// the shipping address from the user's address book.
func (s *OrderService) loadCartAndAddress(userID, addressID string) ([]models.CartItem, *models.Address, error) {
	items, err := s.userRepo.GetCartWithProducts(userID)
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, apperrors.Validation("your cart is empty")
	}
	address, err := s.userRepo.GetAddressByID(userID, addressID)
	if err != nil {
		return nil, nil, err
	}
	return items, address, nil
}

// bookShipmentForOrder attempts the courier booking after placement. Failure
// is absorbed: the order stays Paid with ShipmentPending recorded for the
// operator's retry, because payment capture success is never undone by a
// courier outage.
func (s *OrderService) bookShipmentForOrder(order *models.Order, weightGrams int) {
	booking, err := s.courier.BookShipment(s.shipmentRequest(order, weightGrams))
	if err != nil {
		log.Printf("Warning: shipment booking for order %s failed, left for retry: %v", order.ID, err)
		order.ShipmentPending = true
		if updateErr := s.orderRepo.Update(order); updateErr != nil {
			log.Printf("Warning: failed to record pending shipment on order %s: %v", order.ID, updateErr)
		}
		return
	}
	if _, err := s.attachBooking(order, booking); err != nil {
		log.Printf("Warning: failed to attach booking to order %s: %v", order.ID, err)
	}
}

// attachBooking records a successful courier booking: the order moves to
// Processing with the tracking reference, and a Shipment row is created.
func (s *OrderService) attachBooking(order *models.Order, booking *courier.Booking) (*models.Order, error) {
	order.Status = models.StatusProcessing
	order.TrackingNumber = booking.TrackingNumber
	order.Courier = booking.Courier
	order.ShipmentPending = false
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	shipment := &models.Shipment{
		OrderID:        order.ID,
		UserID:         order.UserID,
		TrackingNumber: booking.TrackingNumber,
		Status:         booking.Status,
		Courier:        booking.Courier,
		Address:        order.ShippingAddress,
	}
	if err := s.shipmentRepo.Create(shipment); err != nil {
		log.Printf("Warning: failed to persist shipment record for order %s: %v", order.ID, err)
	}

	s.publishEvent(rabbitmq.RoutingShipmentBooked, map[string]interface{}{
		"order_id":        order.ID,
		"tracking_number": booking.TrackingNumber,
		"courier":         booking.Courier,
	})
	return order, nil
}

func (s *OrderService) shipmentRequest(order *models.Order, weightGrams int) courier.ShipmentRequest {
	return courier.ShipmentRequest{
		OrderID:     order.ID,
		FullName:    order.ShippingAddress.FullName,
		Phone:       order.ShippingAddress.Phone,
		Street:      order.ShippingAddress.Street,
		City:        order.ShippingAddress.City,
		State:       order.ShippingAddress.State,
		PostalCode:  order.ShippingAddress.PostalCode,
		Country:     order.ShippingAddress.Country,
		WeightGrams: weightGrams,
		COD:         false,
	}
}

// orderWeightGrams recomputes an order's shipping weight from the catalog;
// used on retry where the original cart is long gone.
func (s *OrderService) orderWeightGrams(order *models.Order) int {
	var total int
	for _, item := range order.Items {
		weight := defaultItemWeightGrams
		if product, err := s.productRepo.GetByID(item.ProductID); err == nil && product.WeightGrams > 0 {
			weight = product.WeightGrams
		}
		total += weight * item.Quantity
	}
	return total
}

func (s *OrderService) publishEvent(routingKey string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.events.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}

func snapshotAddress(a *models.Address) models.ShippingAddress {
	return models.ShippingAddress{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
