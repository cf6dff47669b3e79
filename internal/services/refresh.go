package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derivs-back/internal/analytics/gann"
	"github.com/derivs-back/internal/analytics/maxpain"
	"github.com/derivs-back/internal/analytics/oi"
	"github.com/derivs-back/internal/analytics/series"
	"github.com/derivs-back/internal/cache"
	"github.com/derivs-back/internal/database"
	"github.com/derivs-back/internal/external"
	"github.com/derivs-back/internal/messaging"
	"github.com/derivs-back/pkg/config"
)

// RefreshService periodically pulls raw batches from the vendor, runs
// them through the derived-analytics pipeline and distributes the
// results. The pipeline itself is pure; this service owns all the I/O
// and scheduling around it.
type RefreshService struct {
	vendor *external.Client
	redis  *cache.RedisClient
	influx *database.InfluxClient
	nats   *messaging.NATSClient
	cfg    *config.AnalyticsConfig
	logger *logrus.Entry

	// Control
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewRefreshService creates a new analytics refresh service
func NewRefreshService(
	vendorClient *external.Client,
	redis *cache.RedisClient,
	influx *database.InfluxClient,
	nats *messaging.NATSClient,
	cfg *config.AnalyticsConfig,
	logger *logrus.Logger,
) *RefreshService {
	return &RefreshService{
		vendor: vendorClient,
		redis:  redis,
		influx: influx,
		nats:   nats,
		cfg:    cfg,
		logger: logger.WithField("component", "refresh"),
		done:   make(chan struct{}),
	}
}

// Start starts the refresh loop
func (rs *RefreshService) Start(ctx context.Context) error {
	if rs.running {
		return fmt.Errorf("refresh service already running")
	}
	rs.running = true

	rs.wg.Add(1)
	go rs.refreshLoop(ctx)

	return nil
}

// Stop stops the refresh loop
func (rs *RefreshService) Stop() error {
	if !rs.running {
		return nil
	}

	rs.logger.Info("Stopping refresh service")
	close(rs.done)
	rs.wg.Wait()
	rs.running = false

	return nil
}

// refreshLoop recomputes analytics for all symbols on a fixed cadence
func (rs *RefreshService) refreshLoop(ctx context.Context) {
	defer rs.wg.Done()

	// Initial pass so the cache is warm before the first tick
	rs.refreshAll(ctx)

	ticker := time.NewTicker(rs.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rs.done:
			return
		case <-ticker.C:
			rs.refreshAll(ctx)
		}
	}
}

// refreshAll refreshes every configured symbol concurrently. Each
// symbol's pipeline is independent, so failures stay isolated.
func (rs *RefreshService) refreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, symbol := range rs.cfg.Symbols {
		wg.Add(1)
		go func(s string) {
			defer wg.Done()
			if err := rs.RefreshSymbol(ctx, s); err != nil {
				rs.logger.WithError(err).WithField("symbol", s).Error("Failed to refresh analytics")
			}
		}(symbol)
	}
	wg.Wait()
}

// RefreshSymbol runs the full derived-analytics pipeline for one symbol
func (rs *RefreshService) RefreshSymbol(ctx context.Context, symbol string) error {
	if err := rs.refreshSignal(ctx, symbol); err != nil {
		return err
	}
	if err := rs.refreshMaxPain(ctx, symbol); err != nil {
		return err
	}
	return rs.refreshOI(ctx, symbol)
}

// refreshSignal aligns the intraday series, derives the Gann grid from
// the latest price and publishes the resulting signal state
func (rs *RefreshService) refreshSignal(ctx context.Context, symbol string) error {
	payload, err := rs.vendor.GetIntradaySeries(ctx, symbol)
	if err != nil {
		return fmt.Errorf("intraday fetch: %w", err)
	}

	points := series.AlignIntraday(payload)
	if len(points) == 0 {
		// Vendor sent nothing usable; leave the previous cache in place
		rs.logger.WithField("symbol", symbol).Debug("No aligned intraday samples")
		return nil
	}

	if err := rs.redis.SetIntradaySeries(ctx, symbol, points); err != nil {
		rs.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to cache series")
	}

	latest := points[len(points)-1].Price
	levels, err := gann.Compute(latest, gann.Options{
		Step:     rs.cfg.GannStep,
		Levels:   rs.cfg.GannLevels,
		Decimals: rs.cfg.GannDecimals,
	})
	if err != nil {
		return fmt.Errorf("gann compute: %w", err)
	}

	state := gann.DeriveSignal(latest, levels)
	state.Symbol = symbol

	if err := rs.redis.SetGannLevels(ctx, symbol, levels); err != nil {
		rs.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to cache gann levels")
	}
	if err := rs.redis.SetSignal(ctx, symbol, state); err != nil {
		rs.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to cache signal")
	}
	if err := rs.influx.WriteSignal(ctx, symbol, state); err != nil {
		rs.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to store signal history")
	}
	if err := rs.nats.PublishSignal(symbol, state); err != nil {
		return fmt.Errorf("signal publish: %w", err)
	}

	return nil
}

// refreshMaxPain analyzes the max-pain window against the latest spot
func (rs *RefreshService) refreshMaxPain(ctx context.Context, symbol string) error {
	samples, err := rs.vendor.GetMaxPainSeries(ctx, symbol, "")
	if err != nil {
		return fmt.Errorf("max pain fetch: %w", err)
	}
	if len(samples) == 0 {
		return nil
	}

	spot := samples[len(samples)-1].SpotPrice
	insights := maxpain.AnalyzeWithBand(samples, spot, rs.cfg.MaxPainBiasBand)
	if insights == nil {
		return nil
	}

	if err := rs.redis.SetMaxPainInsights(ctx, symbol, insights); err != nil {
		rs.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to cache max pain")
	}
	if err := rs.influx.WriteMaxPain(ctx, symbol, insights); err != nil {
		rs.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to store max pain history")
	}
	if err := rs.nats.PublishMaxPain(symbol, insights); err != nil {
		return fmt.Errorf("max pain publish: %w", err)
	}

	return nil
}

// refreshOI aggregates the per-strike OI batch and publishes the snapshot
func (rs *RefreshService) refreshOI(ctx context.Context, symbol string) error {
	records, err := rs.vendor.GetOIChange(ctx, symbol, "")
	if err != nil {
		return fmt.Errorf("OI fetch: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	snapshot := oi.AggregateByStrike(records)
	totals := oi.Totals(snapshot)

	if err := rs.redis.SetOISnapshot(ctx, symbol, snapshot); err != nil {
		rs.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to cache OI snapshot")
	}
	if err := rs.influx.WriteOITotals(ctx, symbol, totals); err != nil {
		rs.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to store OI totals")
	}
	if err := rs.nats.PublishOISnapshot(symbol, snapshot, totals); err != nil {
		return fmt.Errorf("OI publish: %w", err)
	}

	return nil
}
