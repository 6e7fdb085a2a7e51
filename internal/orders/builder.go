package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/opticamarket/marketplace-backend/pkg/db/models"
	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

type sellerGroup struct {
	sellerID uuid.UUID
	lines    []CartItem
}

// Create validates the cart and persists one order per seller group. Orders, items and
// stock decrements commit together or not at all.
func (s *service) Create(ctx context.Context, input CreateOrderInput) ([]models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	lines, err := mergeCart(input.Items)
	if err != nil {
		return nil, err
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment method %q", input.PaymentMethod)
	}
	if !input.Shipping.Type.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid shipping type %q", input.Shipping.Type)
	}
	if input.Shipping.Cost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}

	address, err := s.addresses.FindForOwner(ctx, input.BuyerID, input.AddressID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.loadProducts(ctx, lines)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		product := catalog[line.ProductID]
		if line.Quantity > product.Stock {
			s.metrics.IncStockConflict()
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "insufficient stock for product %s", product.Name).
				WithDetails(map[string]any{
					"product_id": product.ID.String(),
					"requested":  line.Quantity,
					"available":  product.Stock,
				})
		}
	}

	groups := groupBySeller(lines, catalog)
	shares := splitShipping(input.Shipping, len(groups))

	orders := make([]models.Order, 0, len(groups))
	for i, group := range groups {
		orders = append(orders, buildOrder(input, group, catalog, shares[i]))
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i := range orders {
			items := orders[i].Items
			if err := repo.CreateOrder(ctx, &orders[i]); err != nil {
				return err
			}
			for j := range items {
				items[j].OrderID = orders[i].ID
			}
			if err := repo.CreateItems(ctx, items); err != nil {
				return err
			}
			for _, item := range items {
				if err := s.stock.Decrement(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			s.metrics.IncStockConflict()
		}
		return nil, err
	}

	for i := range orders {
		orders[i].Address = address
	}
	s.metrics.AddCreated(len(orders))
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":     input.BuyerID.String(),
			"order_count": len(orders),
		})
		s.logg.Info(logCtx, "orders created")
	}
	return orders, nil
}

func (s *service) loadProducts(ctx context.Context, lines []CartItem) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	// Delisted products are reported like unknown ones.
	catalog := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		if row.IsActive {
			catalog[row.ID] = row
		}
	}

	missing := make([]string, 0)
	for _, id := range ids {
		if _, ok := catalog[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "products not found").
			WithDetails(map[string]any{"product_ids": missing})
	}
	return catalog, nil
}

// mergeCart rejects empty carts and bad quantities, then folds repeated products into one
// line, keeping the position of the first occurrence.
func mergeCart(items []CartItem) ([]CartItem, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	merged := make([]CartItem, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity below minimum").
				WithDetails(map[string]any{"product_id": item.ProductID.String(), "quantity": item.Quantity})
		}
		if pos, ok := index[item.ProductID]; ok {
			merged[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

// groupBySeller buckets lines by owning seller in discovery order. Platform products share
// the uuid.Nil bucket.
func groupBySeller(lines []CartItem, catalog map[uuid.UUID]models.Product) []sellerGroup {
	groups := make([]sellerGroup, 0)
	index := make(map[uuid.UUID]int)
	for _, line := range lines {
		key := catalog[line.ProductID].SellerKey()
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, sellerGroup{sellerID: key})
		}
		groups[pos].lines = append(groups[pos].lines, line)
	}
	return groups
}

// splitShipping divides the shipping cost evenly in cents. Leftover cents go one each to
// the first groups so the shares always add up to the original cost.
func splitShipping(selection ShippingSelection, groups int) []decimal.Decimal {
	shares := make([]decimal.Decimal, groups)
	for i := range shares {
		shares[i] = decimal.Zero
	}
	if groups == 0 || selection.Type == enums.ShippingTypeSeller || !selection.Cost.IsPositive() {
		return shares
	}

	cents := selection.Cost.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	base := cents / int64(groups)
	remainder := cents % int64(groups)
	for i := range shares {
		share := base
		if int64(i) < remainder {
			share++
		}
		shares[i] = decimal.New(share, -2)
	}
	return shares
}

func buildOrder(input CreateOrderInput, group sellerGroup, catalog map[uuid.UUID]models.Product, shipping decimal.Decimal) models.Order {
	var sellerID *uuid.UUID
	if group.sellerID != uuid.Nil {
		id := group.sellerID
		sellerID = &id
	}

	itemsTotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(group.lines))
	for _, line := range group.lines {
		product := catalog[line.ProductID]
		item := models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
		}
		itemsTotal = itemsTotal.Add(item.LineTotal())
		items = append(items, item)
	}

	return models.Order{
		UserID:         input.BuyerID,
		SellerID:       sellerID,
		AddressID:      input.AddressID,
		PaymentMethod:  input.PaymentMethod,
		ShippingType:   input.Shipping.Type,
		ShippingMethod: input.Shipping.Method,
		ShippingCost:   shipping,
		ItemsTotal:     itemsTotal,
		Total:          itemsTotal.Add(shipping),
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.PaymentStatusPending,
		Items:          items,
	}
}
