package services_test

import (
	"fmt"
	"testing"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
)

func cartOf(lines ...models.CartItem) []models.CartItem {
	return lines
}

func line(productID, name string, price float64, qty int) models.CartItem {
	return models.CartItem{
		ProductID: productID,
		Quantity:  qty,
		Product: models.Product{
			ID:    productID,
			Name:  name,
			Price: price,
		},
	}
}

func TestPricingService_ComputeBreakdown(t *testing.T) {
	pricing := services.NewPricingService(services.PricingConfig{}, nil)
	dest := &models.Address{PostalCode: "560001"}

	// Two units of a 500.00 product: shipping is 99 for the first unit plus
	// 70 for the second, tax is 5% of goods plus shipping.
	breakdown, err := pricing.ComputeBreakdown(cartOf(line("p1", "Speaker", 500.00, 2)), dest)

	assert.NoError(t, err)
	assert.Equal(t, 1000.00, breakdown.Subtotal)
	assert.Equal(t, 169.00, breakdown.Shipping)
	assert.Equal(t, 58.45, breakdown.Tax)
	assert.Equal(t, 1227.45, breakdown.Total)
}

func TestPricingService_ComputeBreakdown_SingleUnit(t *testing.T) {
	pricing := services.NewPricingService(services.PricingConfig{}, nil)
	dest := &models.Address{PostalCode: "560001"}

	breakdown, err := pricing.ComputeBreakdown(cartOf(line("p1", "Speaker", 250.00, 1)), dest)

	assert.NoError(t, err)
	assert.Equal(t, 250.00, breakdown.Subtotal)
	assert.Equal(t, 99.00, breakdown.Shipping)
	assert.Equal(t, 17.45, breakdown.Tax)
	assert.Equal(t, 366.45, breakdown.Total)
}

func TestPricingService_ComputeBreakdown_MixedCart(t *testing.T) {
	pricing := services.NewPricingService(services.PricingConfig{}, nil)
	dest := &models.Address{PostalCode: "560001"}

	// Three total units across two lines: 99 + 70*2 = 239 shipping.
	breakdown, err := pricing.ComputeBreakdown(cartOf(
		line("p1", "Speaker", 500.00, 2),
		line("p2", "Cable", 99.99, 1),
	), dest)

	assert.NoError(t, err)
	assert.Equal(t, 1099.99, breakdown.Subtotal)
	assert.Equal(t, 239.00, breakdown.Shipping)
	assert.Equal(t, 66.95, breakdown.Tax) // (1099.99+239)*0.05 = 66.9495 rounded
	assert.Equal(t, 1405.94, breakdown.Total)
}

func TestPricingService_ComputeBreakdown_SkipsMissingProducts(t *testing.T) {
	pricing := services.NewPricingService(services.PricingConfig{}, nil)
	dest := &models.Address{PostalCode: "560001"}

	ghost := models.CartItem{ProductID: "gone", Quantity: 3} // Product zero value
	breakdown, err := pricing.ComputeBreakdown(cartOf(line("p1", "Speaker", 500.00, 1), ghost), dest)

	assert.NoError(t, err)
	assert.Equal(t, 500.00, breakdown.Subtotal)
	assert.Equal(t, 99.00, breakdown.Shipping) // ghost units do not count
}

type stubQuoter struct {
	charge float64
	err    error

	gotPin    string
	gotWeight int
}

func (q *stubQuoter) GetShippingCharge(destPostalCode string, weightGrams int) (float64, error) {
	q.gotPin = destPostalCode
	q.gotWeight = weightGrams
	return q.charge, q.err
}

func TestPricingService_ComputeBreakdown_LiveCourierRate(t *testing.T) {
	quoter := &stubQuoter{charge: 142.50}
	pricing := services.NewPricingService(services.PricingConfig{}, quoter)
	dest := &models.Address{PostalCode: "110001"}

	item := line("p1", "Speaker", 500.00, 2)
	item.Product.WeightGrams = 750
	breakdown, err := pricing.ComputeBreakdown(cartOf(item), dest)

	assert.NoError(t, err)
	assert.Equal(t, "110001", quoter.gotPin)
	assert.Equal(t, 1500, quoter.gotWeight)
	assert.Equal(t, 142.50, breakdown.Shipping)
	assert.Equal(t, 57.13, breakdown.Tax) // (1000+142.50)*0.05 = 57.125 rounded
	assert.Equal(t, 1199.63, breakdown.Total)
}

func TestPricingService_ComputeBreakdown_QuoterFailure(t *testing.T) {
	quoter := &stubQuoter{err: fmt.Errorf("pincode not serviceable")}
	pricing := services.NewPricingService(services.PricingConfig{}, quoter)

	breakdown, err := pricing.ComputeBreakdown(cartOf(line("p1", "Speaker", 500.00, 1)), &models.Address{PostalCode: "000000"})

	assert.Error(t, err)
	assert.Nil(t, breakdown)
}

func TestPricingService_ValidateClientTotal(t *testing.T) {
	pricing := services.NewPricingService(services.PricingConfig{}, nil)

	// Within the default one-unit tolerance.
	assert.NoError(t, pricing.ValidateClientTotal(1227.45, 1227.45))
	assert.NoError(t, pricing.ValidateClientTotal(1228.00, 1227.45))

	// A stale or forged total is rejected.
	err := pricing.ValidateClientTotal(1300.00, 1227.45)
	assert.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodePriceMismatch))
}

func TestTotalWeightGrams_DefaultsUnknownWeights(t *testing.T) {
	item := line("p1", "Speaker", 500.00, 2) // no weight recorded
	heavy := line("p2", "Amp", 900.00, 1)
	heavy.Product.WeightGrams = 2000

	assert.Equal(t, 3000, services.TotalWeightGrams(cartOf(item, heavy)))
}
