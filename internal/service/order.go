package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/online_cinema/internal/logging"
	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/Skotchmaster/online_cinema/internal/transport"
)

type OrderService struct {
	Repo *repo.GormRepo
}

// CreateOrder captures the checkout intent: every item price is fixed at this
// moment and the order total is the sum of those captured prices.
func (svc *OrderService) CreateOrder(ctx context.Context, req transport.CreateOrderRequest, userID uint) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create_order")

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(req.Items))

	for i := range req.Items {
		if req.Items[i].ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if req.Items[i].Price.IsNegative() {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}

		items = append(items, models.OrderItem{
			ProductID:    req.Items[i].ProductID,
			PriceAtOrder: req.Items[i].Price,
		})
		total = total.Add(req.Items[i].Price)
	}

	order := &models.Order{
		UserID:      userID,
		Status:      models.OrderStatusPending,
		TotalAmount: total,
		Items:       items,
	}

	order, err := svc.Repo.CreateOrder(ctx, order)
	if err != nil {
		l.Error("create_order_error", "error", err)
		return nil, err
	}

	l.Info("create_order_success", "order_id", order.ID, "total", order.TotalAmount)
	return order, nil
}

func (svc *OrderService) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return svc.Repo.ListOrders(ctx, userID)
}
