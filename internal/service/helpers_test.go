package service

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/online_cinema/internal/models"
	"github.com/Skotchmaster/online_cinema/internal/repo"
	"github.com/Skotchmaster/online_cinema/internal/transport"
)

type stubGateway struct {
	secret    string
	verifyErr error
}

func (g *stubGateway) ClientSecret(ctx context.Context, externalPaymentID string) (string, error) {
	return g.secret, nil
}

func (g *stubGateway) VerifySignature(payload []byte, header string) error {
	return g.verifyErr
}

type stubNotifier struct {
	mu     sync.Mutex
	events []Notification
}

func (n *stubNotifier) PaymentEvent(ctx context.Context, event Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *stubNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func (n *stubNotifier) Last() Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.Payment{}, &models.PaymentItem{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newTestServices(t *testing.T) (*PaymentService, *OrderService, *stubNotifier) {
	t.Helper()

	db := InitTestDB(t)
	r := &repo.GormRepo{DB: db}
	notifier := &stubNotifier{}

	paySvc := &PaymentService{
		Repo:     r,
		Gateway:  &stubGateway{secret: "mock_client_secret_123"},
		Notifier: notifier,
	}
	orderSvc := &OrderService{Repo: r}

	return paySvc, orderSvc, notifier
}

func mustDecimal(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	require.NoError(t, err)
	return d
}

func createTestOrder(t *testing.T, svc *OrderService, userID uint, prices ...string) *models.Order {
	t.Helper()

	req := transport.CreateOrderRequest{}
	for i, p := range prices {
		req.Items = append(req.Items, transport.CreateOrderItem{
			ProductID: uint(i + 1),
			Price:     mustDecimal(t, p),
		})
	}

	order, err := svc.CreateOrder(context.Background(), req, userID)
	require.NoError(t, err)
	return order
}

func createTestPayment(t *testing.T, svc *PaymentService, order *models.Order, externalID string) *models.Payment {
	t.Helper()

	req := transport.CreatePaymentRequest{
		OrderID:           order.ID,
		Amount:            order.TotalAmount,
		PaymentMethod:     "card",
		ExternalPaymentID: externalID,
	}
	for _, it := range order.Items {
		req.PaymentItems = append(req.PaymentItems, transport.CreatePaymentItem{
			OrderItemID:    it.ID,
			PriceAtPayment: it.PriceAtOrder,
		})
	}

	payment, _, err := svc.CreatePayment(context.Background(), req, order.UserID, false)
	require.NoError(t, err)
	return payment
}
