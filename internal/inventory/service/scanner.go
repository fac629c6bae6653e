package service

import (
	"context"
	"time"

	"github.com/vidaplus/vidaplus-backend/internal/inventory/events"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
	"github.com/vidaplus/vidaplus-backend/pkg/messaging"
)

// AlertScanner re-evaluates the alert reports on an interval and publishes
// them as events so downstream consumers (dashboards, notifiers) do not have
// to poll. It only reads; a scan observing a slightly stale balance is fine.
type AlertScanner struct {
	alerts    *AlertService
	publisher *events.InventoryEventPublisher
	interval  time.Duration
	lookahead int
	logger    *logger.Logger
	cancel    context.CancelFunc
}

// NewAlertScanner creates a new alert scanner
func NewAlertScanner(
	alerts *AlertService,
	publisher *events.InventoryEventPublisher,
	interval time.Duration,
	lookaheadDays int,
	log *logger.Logger,
) *AlertScanner {
	return &AlertScanner{
		alerts:    alerts,
		publisher: publisher,
		interval:  interval,
		lookahead: lookaheadDays,
		logger:    log,
	}
}

// Start starts the scanner in a background goroutine.
// It runs one scan immediately, then on every tick until the context ends.
func (s *AlertScanner) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("alert scanner started")

		s.runScan(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("alert scanner stopped")
				return
			case <-ticker.C:
				s.runScan(ctx)
			}
		}
	}()
}

// Stop stops the scanner goroutine
func (s *AlertScanner) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *AlertScanner) runScan(ctx context.Context) {
	start := time.Now()

	lowStock, err := s.alerts.LowStock(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("low stock scan failed")
	} else {
		for _, a := range lowStock {
			s.publisher.PublishLowStockAlert(ctx, messaging.LowStockAlertEvent{
				ItemID:   a.ItemID,
				Name:     a.Name,
				Balance:  a.Balance,
				Unit:     a.Unit,
				MinStock: a.MinStock,
			})
		}
	}

	expiry, err := s.alerts.Expiry(ctx, s.lookahead, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry scan failed")
	} else {
		for _, a := range expiry {
			s.publisher.PublishExpiryAlert(ctx, messaging.ExpiryAlertEvent{
				ItemID:         a.ItemID,
				MovementID:     a.MovementID,
				Lot:            a.Lot,
				ExpirationDate: a.ExpirationDate,
				Status:         a.Status,
			})
		}
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("low_stock", len(lowStock)).
		Int("expiry", len(expiry)).
		Msg("alert scan completed")
}
