package service

import (
	"context"
	"errors"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"
)

// dispositionInventory is the single mapping from disposition to stock
// effect. restock means the returned units go back into sellable stock; the
// note is recorded on the completing ledger entry. Refunds and store credit
// restock because the item was returned and accepted. A replacement ships a
// new unit instead (its own sale lines decrement stock), a repaired item goes
// back to the same customer, and a rejected return stays with the customer.
func dispositionInventory(d domain.Disposition) (restock bool, note string) {
	switch d {
	case domain.DispositionRefund, domain.DispositionStoreCredit:
		return true, "inventory restored (items returned and accepted)"
	case domain.DispositionReplacement:
		return false, "inventory not restored (defective item, replacement decreases stock)"
	case domain.DispositionRepair:
		return false, "inventory not restored (item under repair, unavailable for sale)"
	case domain.DispositionReject:
		return false, "no inventory change (return rejected, customer keeps item)"
	}
	return false, "no inventory adjustment"
}

// applyDispositionInventory applies the mapping inside the completing
// transaction and returns the note for that completion's ledger entry. Each
// completion path calls it exactly once.
func (s *rmaService) applyDispositionInventory(ctx context.Context, r *repository.Repositories, rma *domain.RmaRequest) (string, error) {
	if rma.Disposition == nil {
		return "no inventory adjustment", nil
	}
	restock, note := dispositionInventory(*rma.Disposition)
	if !restock {
		return note, nil
	}
	items, err := r.RMAs.ListItems(ctx, rma.ID)
	if err != nil {
		return "", domain.Serverf(err, "load items for RMA %d", rma.ID)
	}
	for _, it := range items {
		if err := r.Products.AdjustStock(ctx, it.ProductID, it.Quantity); err != nil {
			if errors.Is(err, repository.ErrStatusConflict) {
				// Restores only add stock, a guard miss here means the
				// product row is gone.
				return "", domain.NotFoundf("product %d not found", it.ProductID)
			}
			return "", domain.Serverf(err, "restore stock for product %d", it.ProductID)
		}
	}
	return note, nil
}
