package models_test

import (
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	for _, valid := range []string{"Paid", "Processing", "Shipped", "Delivered", "Cancelled"} {
		status, err := models.ParseOrderStatus(valid)
		assert.NoError(t, err)
		assert.Equal(t, models.OrderStatus(valid), status)
	}

	for _, invalid := range []string{"", "paid", "PAID", "Refunded", "shipped "} {
		_, err := models.ParseOrderStatus(invalid)
		assert.Error(t, err, "input %q", invalid)
	}
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	allowed := map[models.OrderStatus][]models.OrderStatus{
		models.StatusPaid:       {models.StatusProcessing, models.StatusCancelled},
		models.StatusProcessing: {models.StatusShipped, models.StatusCancelled},
		models.StatusShipped:    {models.StatusDelivered},
		models.StatusDelivered:  nil,
		models.StatusCancelled:  nil,
	}

	all := []models.OrderStatus{
		models.StatusPaid, models.StatusProcessing, models.StatusShipped,
		models.StatusDelivered, models.StatusCancelled,
	}

	for from, nexts := range allowed {
		permitted := make(map[models.OrderStatus]bool)
		for _, next := range nexts {
			permitted[next] = true
		}
		for _, to := range all {
			assert.Equal(t, permitted[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.False(t, models.StatusPaid.Terminal())
	assert.False(t, models.StatusProcessing.Terminal())
	assert.True(t, models.StatusShipped.Terminal())
	assert.True(t, models.StatusDelivered.Terminal())
	assert.True(t, models.StatusCancelled.Terminal())
}
