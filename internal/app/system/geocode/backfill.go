// internal/app/system/geocode/backfill.go
package geocode

import (
	"context"
	"fmt"
	"strings"

	inquirystore "github.com/dalemusser/dispatchhub/internal/app/store/inquiries"
	"github.com/dalemusser/dispatchhub/internal/app/system/metrics"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
	"go.uber.org/zap"
)

// Geocoder resolves a free-form address query. *Client satisfies it.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (models.Location, error)
}

// BackfillSummary reports a backfill run. Processed counts every inquiry
// enumerated, including skipped ones.
type BackfillSummary struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Backfiller fills in missing inquiry locations.
type Backfiller struct {
	inquiries *inquirystore.Store
	geocoder  Geocoder
	country   string
	log       *zap.Logger
	metrics   metrics.Recorder
}

// NewBackfiller returns a Backfiller. country is appended to every query
// unless empty.
func NewBackfiller(inquiries *inquirystore.Store, g Geocoder, country string, logger *zap.Logger) *Backfiller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backfiller{
		inquiries: inquiries,
		geocoder:  g,
		country:   country,
		log:       logger,
		metrics:   metrics.Nop{},
	}
}

// WithMetrics sets the metrics recorder.
func (b *Backfiller) WithMetrics(m metrics.Recorder) *Backfiller {
	if m != nil {
		b.metrics = m
	}
	return b
}

// Query builds the lookup string for an inquiry.
func (b *Backfiller) Query(inq models.Inquiry) string {
	parts := []string{inq.Address, inq.City}
	if b.country != "" {
		parts = append(parts, b.country)
	}
	return strings.Join(parts, ", ")
}

// Run geocodes every inquiry that has an address and city but no location
// and merges the result into the location field only. Lookup and write
// failures are logged and counted; the document is left untouched and not
// retried. Only a failure to list inquiries returns an error.
func (b *Backfiller) Run(ctx context.Context) (BackfillSummary, error) {
	var sum BackfillSummary

	inquiries, err := b.inquiries.List(ctx, func(id string, err error) {
		sum.Processed++
		sum.Failed++
		b.metrics.RecordOutcome(metrics.RoutineBackfill, "failed")
		b.log.Warn("inquiry document unreadable", zap.String("inquiry_id", id), zap.Error(err))
	})
	if err != nil {
		return sum, fmt.Errorf("geocode: list inquiries: %w", err)
	}

	for _, inq := range inquiries {
		sum.Processed++

		if inq.HasLocation() || !inq.Geocodable() {
			sum.Skipped++
			b.metrics.RecordOutcome(metrics.RoutineBackfill, "skipped")
			continue
		}

		if err := ctx.Err(); err != nil {
			return sum, err
		}

		loc, err := b.geocoder.Geocode(ctx, b.Query(inq))
		if err != nil {
			sum.Failed++
			b.metrics.RecordOutcome(metrics.RoutineBackfill, "failed")
			b.log.Warn("geocoding failed",
				zap.String("inquiry_id", inq.ID),
				zap.String("address", inq.Address),
				zap.String("city", inq.City),
				zap.Error(err))
			continue
		}

		if err := b.inquiries.SetLocation(ctx, inq.ID, loc); err != nil {
			sum.Failed++
			b.metrics.RecordOutcome(metrics.RoutineBackfill, "failed")
			b.log.Warn("location update failed", zap.String("inquiry_id", inq.ID), zap.Error(err))
			continue
		}
		sum.Updated++
		b.metrics.RecordOutcome(metrics.RoutineBackfill, "updated")
		b.log.Info("inquiry geocoded",
			zap.String("inquiry_id", inq.ID),
			zap.Float64("latitude", loc.Latitude),
			zap.Float64("longitude", loc.Longitude))
	}

	b.log.Info("geocode backfill finished",
		zap.Int("processed", sum.Processed),
		zap.Int("updated", sum.Updated),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed))
	return sum, nil
}
