package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/online_cinema/internal/models"
)

// CreatePayment persists the payment and its items in a single transaction.
func (r *GormRepo) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if err := r.DB.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

func (r *GormRepo) PaymentByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.DB.WithContext(ctx).Preload("Items").First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormRepo) PaymentByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	var payment models.Payment
	q := r.DB.WithContext(ctx).Preload("Items").Where("external_payment_id = ?", externalID)
	if err := q.First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// TransitionPayment moves payment id from status from to status to only if it
// still is in from, so duplicate webhook deliveries and racing refund requests
// collapse into a single winner. The owning order is advanced inside the same
// transaction. It reports whether the update was applied; when it was not, the
// returned payment carries the status observed after the conditional update so
// the caller can tell a redundant replay from an illegal transition.
func (r *GormRepo) TransitionPayment(ctx context.Context, id uint, from, to string) (*models.Payment, bool, error) {
	var payment models.Payment
	applied := false

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		applied = res.RowsAffected > 0

		if err := tx.Preload("Items").First(&payment, id).Error; err != nil {
			return err
		}
		if !applied {
			return nil
		}

		switch to {
		case models.PaymentStatusSuccessful:
			if err := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", payment.OrderID, models.OrderStatusPending).
				Update("status", models.OrderStatusPaid).Error; err != nil {
				return err
			}
		case models.PaymentStatusRefunded:
			if err := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", payment.OrderID, models.OrderStatusPaid).
				Update("status", models.OrderStatusCanceled).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &payment, applied, nil
}

type PaymentFilter struct {
	UserID    *uint
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

func (r *GormRepo) ListPayments(ctx context.Context, userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	q := r.DB.WithContext(ctx).Preload("Items").Where("user_id = ?", userID)
	if err := q.Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *GormRepo) ListPaymentsFiltered(ctx context.Context, f PaymentFilter) ([]models.Payment, error) {
	q := r.DB.WithContext(ctx).Model(&models.Payment{}).Preload("Items")

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", *f.EndDate)
	}

	var payments []models.Payment
	if err := q.Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}
