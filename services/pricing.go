package services

import (
	"math"
	"time"

	"hotel-inventory/models"
)

// PricingStage adjusts the running nightly price of one ledger row. Stages
// are pure: the result depends only on the input price and the row.
type PricingStage func(price float64, row models.Inventory) float64

// PricingPipeline applies its stages left to right, starting from the row's
// base price. It is assembled once per quote and never mutated.
type PricingPipeline struct {
	stages []PricingStage
}

func NewPricingPipeline(stages ...PricingStage) PricingPipeline {
	return PricingPipeline{stages: append([]PricingStage(nil), stages...)}
}

func (p PricingPipeline) Price(row models.Inventory) float64 {
	price := row.BasePrice
	for _, stage := range p.stages {
		price = stage(price, row)
	}
	return roundMoney(price)
}

// TotalPrice is the price of one room over every row.
func (p PricingPipeline) TotalPrice(rows []models.Inventory) float64 {
	var total float64
	for _, row := range rows {
		total += p.Price(row)
	}
	return roundMoney(total)
}

// BookingAmount is the quoted total for roomsCount rooms over rows.
func (p PricingPipeline) BookingAmount(rows []models.Inventory, roomsCount int) float64 {
	return roundMoney(p.TotalPrice(rows) * float64(roomsCount))
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

const (
	occupancyThreshold  = 0.8
	occupancyMultiplier = 1.2
	urgencyMultiplier   = 1.15
	holidayMultiplier   = 1.25
)

// OccupancyStage raises the price once more than 80% of the rooms are booked.
func OccupancyStage() PricingStage {
	return func(price float64, row models.Inventory) float64 {
		if row.TotalCount <= 0 {
			return price
		}
		if float64(row.BookedCount)/float64(row.TotalCount) > occupancyThreshold {
			return price * occupancyMultiplier
		}
		return price
	}
}

// SurgeStage applies the owner's manual surge factor.
func SurgeStage() PricingStage {
	return func(price float64, row models.Inventory) float64 {
		if row.SurgeFactor <= 0 {
			return price
		}
		return price * row.SurgeFactor
	}
}

// UrgencyStage charges more for nights within `days` of today.
func UrgencyStage(today time.Time, days int) PricingStage {
	start := DateOnly(today)
	end := start.AddDate(0, 0, days)
	return func(price float64, row models.Inventory) float64 {
		d := DateOnly(row.Day())
		if !d.Before(start) && d.Before(end) {
			return price * urgencyMultiplier
		}
		return price
	}
}

// HolidayStage charges more for nights on the calendar.
func HolidayStage(cal HolidayCalendar) PricingStage {
	return func(price float64, row models.Inventory) float64 {
		if cal.IsHoliday(row.Day()) {
			return price * holidayMultiplier
		}
		return price
	}
}

type HolidayCalendar map[string]struct{}

func NewHolidayCalendar(days ...time.Time) HolidayCalendar {
	cal := make(HolidayCalendar, len(days))
	for _, d := range days {
		cal[DateOnly(d).Format(dateLayout)] = struct{}{}
	}
	return cal
}

func (c HolidayCalendar) IsHoliday(t time.Time) bool {
	_, ok := c[DateOnly(t).Format(dateLayout)]
	return ok
}

// PricingConfig holds what the default pipeline needs besides the row.
type PricingConfig struct {
	UrgencyWindowDays int
	Holidays          HolidayCalendar
}

// PipelineAt builds the default pipeline for a quote taken at now:
// occupancy on the base price, then manual surge, urgency and holidays.
func (c PricingConfig) PipelineAt(now time.Time) PricingPipeline {
	days := c.UrgencyWindowDays
	if days <= 0 {
		days = 7
	}
	return NewPricingPipeline(
		OccupancyStage(),
		SurgeStage(),
		UrgencyStage(now, days),
		HolidayStage(c.Holidays),
	)
}
