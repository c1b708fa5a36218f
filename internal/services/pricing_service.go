package services

import (
	"math"

	"storefront/internal/apperrors"
	"storefront/internal/models"
)

// Fallback weight for products created before weight became mandatory.
const defaultItemWeightGrams = 500

// RateQuoter quotes a live shipping rate from the courier. When a
// PricingService has one, it replaces the stepped tariff.
type RateQuoter interface {
	GetShippingCharge(destPostalCode string, weightGrams int) (float64, error)
}

// Breakdown is the authoritative price decomposition for a cart.
type Breakdown struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// PricingConfig carries the tariff and tax knobs. Zero values fall back to
// the defaults in NewPricingService.
type PricingConfig struct {
	TaxRate         float64 // e.g. 0.05
	BaseShippingFee float64 // charge for the first unit
	PerUnitFee      float64 // charge for each additional unit
	Tolerance       float64 // accepted |client - server| total difference
}

// PricingService derives subtotal, shipping, tax and total from cart
// contents. It is used both to quote a price and to validate a
// client-supplied total before charging, so the same policy must apply to
// both calls for a given order.
type PricingService struct {
	cfg   PricingConfig
	rates RateQuoter // nil means the stepped tariff applies
}

// NewPricingService creates a new PricingService. Pass a nil quoter to use
// the stepped shipping tariff.
func NewPricingService(cfg PricingConfig, rates RateQuoter) *PricingService {
	if cfg.TaxRate == 0 {
		cfg.TaxRate = 0.05
	}
	if cfg.BaseShippingFee == 0 {
		cfg.BaseShippingFee = 99
	}
	if cfg.PerUnitFee == 0 {
		cfg.PerUnitFee = 70
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = 1.0
	}
	return &PricingService{
		cfg:   cfg,
		rates: rates,
	}
}

// ComputeBreakdown derives the price breakdown for the given cart lines and
// destination. Lines whose product no longer exists are skipped. All
// arithmetic runs in full precision; only the final figures are rounded to
// the currency's two decimals.
func (s *PricingService) ComputeBreakdown(items []models.CartItem, dest *models.Address) (*Breakdown, error) {
	var subtotal float64
	var totalQty int
	for _, item := range items {
		if item.Product.ID == "" {
			continue
		}
		subtotal += item.Product.Price * float64(item.Quantity)
		totalQty += item.Quantity
	}

	var shipping float64
	if s.rates != nil {
		charge, err := s.rates.GetShippingCharge(dest.PostalCode, TotalWeightGrams(items))
		if err != nil {
			return nil, err
		}
		shipping = charge
	} else {
		shipping = s.steppedTariff(totalQty)
	}

	tax := (subtotal + shipping) * s.cfg.TaxRate
	return &Breakdown{
		Subtotal: round2(subtotal),
		Shipping: round2(shipping),
		Tax:      round2(tax),
		Total:    round2(subtotal + shipping + tax),
	}, nil
}

// ValidateClientTotal rejects a client-submitted total that differs from the
// server's by more than the tolerance. The tolerance absorbs floating-point
// rounding; anything beyond it is a forged or stale price.
func (s *PricingService) ValidateClientTotal(clientTotal, serverTotal float64) error {
	if math.Abs(clientTotal-serverTotal) > s.cfg.Tolerance {
		return apperrors.PriceMismatch("submitted total %.2f does not match the computed total %.2f", clientTotal, serverTotal)
	}
	return nil
}

// steppedTariff charges the base fee for the first unit and the smaller
// per-unit fee for each additional one.
func (s *PricingService) steppedTariff(totalQty int) float64 {
	if totalQty <= 0 {
		return 0
	}
	return s.cfg.BaseShippingFee + s.cfg.PerUnitFee*float64(totalQty-1)
}

// TotalWeightGrams sums the cart's shipping weight, substituting a default
// for products with no recorded weight.
func TotalWeightGrams(items []models.CartItem) int {
	var total int
	for _, item := range items {
		weight := item.Product.WeightGrams
		if weight == 0 {
			weight = defaultItemWeightGrams
		}
		total += weight * item.Quantity
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
