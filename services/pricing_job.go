// services/pricing_job.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"hotel-inventory/models"
)

const priceRefreshBatch = 500

// PriceRefreshService keeps Inventory.Price, the browse snapshot used by
// search, in line with the pricing pipeline. Bookings never read it.
type PriceRefreshService struct {
	DB      *gorm.DB
	Pricing PricingConfig
	Now     func() time.Time
}

func NewPriceRefreshService(db *gorm.DB, pricing PricingConfig) *PriceRefreshService {
	return &PriceRefreshService{DB: db, Pricing: pricing, Now: time.Now}
}

// RefreshPrices reprices every ledger row from today on and returns how many
// rows changed.
func (s *PriceRefreshService) RefreshPrices(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	pipeline := s.Pricing.PipelineAt(now)
	db := s.DB.WithContext(ctx)

	updated := 0
	var lastID uint
	for {
		var rows []models.Inventory
		if err := db.Where("date >= ? AND id > ?", DateOnly(now), lastID).
			Order("id ASC").Limit(priceRefreshBatch).
			Find(&rows).Error; err != nil {
			return updated, fmt.Errorf("load inventory after id %d: %w", lastID, err)
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			price := pipeline.Price(row)
			if price == row.Price {
				continue
			}
			if err := db.Model(&models.Inventory{}).Where("id = ?", row.ID).
				Update("price", price).Error; err != nil {
				return updated, fmt.Errorf("update price of inventory %d: %w", row.ID, err)
			}
			updated++
		}
		lastID = rows[len(rows)-1].ID
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
	}

	log.Info().Int("updated", updated).Msg("inventory prices refreshed")
	return updated, nil
}

func (s *PriceRefreshService) Run(ctx context.Context, interval time.Duration) {
	runEvery(ctx, "price refresh", interval, func(ctx context.Context) error {
		_, err := s.RefreshPrices(ctx)
		return err
	})
}
