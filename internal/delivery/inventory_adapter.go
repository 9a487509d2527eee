package delivery

import (
	"context"

	"github.com/vetstock-erp/vetstock/internal/inventory"
)

// InventoryAdapter bridges the delivery service's inventory port to the
// inventory module.
type InventoryAdapter struct {
	inventory *inventory.Service
}

// NewInventoryAdapter wraps the inventory service.
func NewInventoryAdapter(svc *inventory.Service) *InventoryAdapter {
	return &InventoryAdapter{inventory: svc}
}

// PostAcceptedLots converts the delivery's accepted lines into inventory
// lots. The delivery number doubles as the batch code so lots trace back to
// their receiving document.
func (a *InventoryAdapter) PostAcceptedLots(ctx context.Context, input InventoryPostInput) error {
	accept := inventory.AcceptDeliveryInput{
		DeliveryID: input.DeliveryID,
		BatchCode:  input.DeliveryNumber,
	}
	for _, lot := range input.Lots {
		accept.Lots = append(accept.Lots, inventory.LotInput{
			ProductID:  lot.ProductID,
			Quantity:   lot.Quantity,
			UnitCost:   lot.UnitCost,
			ExpiryDate: lot.ExpiryDate,
		})
	}
	return a.inventory.AcceptDelivery(ctx, accept)
}
