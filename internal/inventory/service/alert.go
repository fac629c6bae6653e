package service

import (
	"context"
	"time"

	"github.com/vidaplus/vidaplus-backend/internal/inventory/repository"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
)

// Expiry statuses
const (
	ExpiryStatusExpired      = "expired"
	ExpiryStatusExpiringSoon = "expiring_soon"
	// expiryStatusNone marks a movement outside the report window
	expiryStatusNone = ""
)

// Expiry lookahead bounds
const (
	MinLookaheadDays = 1
	MaxLookaheadDays = 365
)

// LowStockAlert is one entry of the low-stock report
type LowStockAlert struct {
	ItemID        string `json:"item_id"`
	Name          string `json:"name"`
	Balance       int    `json:"balance"`
	Unit          string `json:"unit"`
	MinStock      int    `json:"min_stock"`
	BelowMinStock bool   `json:"below_min_stock"`
}

// ExpiryAlert is one entry of the expiry report. Classification is per
// movement, not per lot aggregate: movements sharing a lot are reported
// independently.
type ExpiryAlert struct {
	ItemID         string `json:"item_id"`
	MovementID     string `json:"movement_id"`
	Lot            string `json:"lot,omitempty"`
	ExpirationDate string `json:"expiration_date"`
	Status         string `json:"status"`
}

// AlertService computes inventory reports on demand. It reads without
// locking; a report may lag concurrent admissions by design.
type AlertService struct {
	itemRepo     *repository.ItemRepository
	movementRepo *repository.MovementRepository
	logger       *logger.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(
	itemRepo *repository.ItemRepository,
	movementRepo *repository.MovementRepository,
	log *logger.Logger,
) *AlertService {
	return &AlertService{
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		logger:       log,
	}
}

// LowStock reports every active item whose balance is strictly below its
// minimum-stock threshold. An item sitting exactly at the threshold is fine.
func (s *AlertService) LowStock(ctx context.Context) ([]LowStockAlert, error) {
	items, err := s.itemRepo.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]LowStockAlert, 0)
	for _, item := range items {
		balance, err := s.movementRepo.BalanceOf(ctx, item.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("item_id", item.ID).Msg("low stock scan: balance fold failed")
			continue
		}

		if balance < item.MinStock {
			alerts = append(alerts, LowStockAlert{
				ItemID:        item.ID,
				Name:          item.Name,
				Balance:       balance,
				Unit:          item.Unit,
				MinStock:      item.MinStock,
				BelowMinStock: true,
			})
		}
	}

	return alerts, nil
}

// Expiry reports movements whose lots are expired or expire within the
// lookahead window, classified relative to today.
func (s *AlertService) Expiry(ctx context.Context, days int, today time.Time) ([]ExpiryAlert, error) {
	if days < MinLookaheadDays || days > MaxLookaheadDays {
		return nil, errors.BadRequest("days must be between 1 and 365")
	}

	movements, err := s.movementRepo.ListWithExpiry(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]ExpiryAlert, 0)
	for _, m := range movements {
		status := ClassifyExpiry(*m.ExpirationDate, today, days)
		if status == expiryStatusNone {
			continue
		}

		lot := ""
		if m.Lot != nil {
			lot = *m.Lot
		}

		alerts = append(alerts, ExpiryAlert{
			ItemID:         m.ItemID,
			MovementID:     m.ID,
			Lot:            lot,
			ExpirationDate: m.ExpirationDate.Format("2006-01-02"),
			Status:         status,
		})
	}

	return alerts, nil
}

// ClassifyExpiry classifies an expiration date against today's date and a
// lookahead window of days. Comparison is by calendar date: a lot expiring
// today counts as expiring_soon, one whose date passed yesterday is expired,
// and one past the window is not reported.
func ClassifyExpiry(expiration, today time.Time, days int) string {
	exp := truncateToDate(expiration)
	now := truncateToDate(today)
	limit := now.AddDate(0, 0, days)

	switch {
	case exp.Before(now):
		return ExpiryStatusExpired
	case !exp.After(limit):
		return ExpiryStatusExpiringSoon
	default:
		return expiryStatusNone
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
