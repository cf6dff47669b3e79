package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derivs-back/internal/analytics/flow"
	"github.com/derivs-back/internal/database"
	"github.com/derivs-back/internal/external"
	"github.com/derivs-back/pkg/config"
	"github.com/derivs-back/pkg/models"
)

// flowSyncInterval is how often the vendor's daily FII/DII table is
// re-pulled. The vendor updates once per evening; hourly polling keeps
// the local copy fresh without hammering the API.
const flowSyncInterval = time.Hour

// FlowSyncService mirrors the vendor's daily institutional-flow records
// into MySQL and computes flow aggregates on demand.
type FlowSyncService struct {
	vendor *external.Client
	mysql  *database.MySQLClient
	cfg    *config.AnalyticsConfig
	logger *logrus.Entry

	// Control
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewFlowSyncService creates a new flow sync service
func NewFlowSyncService(
	vendorClient *external.Client,
	mysql *database.MySQLClient,
	cfg *config.AnalyticsConfig,
	logger *logrus.Logger,
) *FlowSyncService {
	return &FlowSyncService{
		vendor: vendorClient,
		mysql:  mysql,
		cfg:    cfg,
		logger: logger.WithField("component", "flow-sync"),
		done:   make(chan struct{}),
	}
}

// Start starts the sync loop
func (fs *FlowSyncService) Start(ctx context.Context) error {
	if fs.running {
		return fmt.Errorf("flow sync already running")
	}
	fs.running = true

	fs.wg.Add(1)
	go fs.syncLoop(ctx)

	return nil
}

// Stop stops the sync loop
func (fs *FlowSyncService) Stop() error {
	if !fs.running {
		return nil
	}

	fs.logger.Info("Stopping flow sync")
	close(fs.done)
	fs.wg.Wait()
	fs.running = false

	return nil
}

func (fs *FlowSyncService) syncLoop(ctx context.Context) {
	defer fs.wg.Done()

	if err := fs.SyncOnce(ctx); err != nil {
		fs.logger.WithError(err).Warn("Initial flow sync failed")
	}

	ticker := time.NewTicker(flowSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fs.done:
			return
		case <-ticker.C:
			if err := fs.SyncOnce(ctx); err != nil {
				fs.logger.WithError(err).Error("Flow sync failed")
			}
		}
	}
}

// SyncOnce pulls the vendor's daily flow table and upserts it locally
func (fs *FlowSyncService) SyncOnce(ctx context.Context) error {
	records, err := fs.vendor.GetDailyFlows(ctx)
	if err != nil {
		return fmt.Errorf("flow fetch: %w", err)
	}
	if len(records) == 0 {
		fs.logger.Debug("Vendor returned no flow records")
		return nil
	}

	if err := fs.mysql.UpsertFlowRecords(ctx, records); err != nil {
		return fmt.Errorf("flow upsert: %w", err)
	}

	fs.logger.WithField("records", len(records)).Debug("Flow records synced")
	return nil
}

// Recent returns the most recent n flow records, oldest first.
func (fs *FlowSyncService) Recent(ctx context.Context, n int) ([]models.FIIDIIDailyRecord, error) {
	if n <= 0 {
		n = fs.cfg.RollingWindow
	}
	return fs.mysql.GetRecentFlowRecords(ctx, n)
}

// RollingAverage computes the trailing-window flow averages from the
// local mirror.
func (fs *FlowSyncService) RollingAverage(ctx context.Context) (*models.RollingAverage, error) {
	records, err := fs.mysql.GetRecentFlowRecords(ctx, fs.cfg.RollingWindow)
	if err != nil {
		return nil, err
	}
	return flow.RollingAverage(records, fs.cfg.RollingWindow), nil
}

// MonthToDate computes cumulative flow totals for the current month.
func (fs *FlowSyncService) MonthToDate(ctx context.Context, now time.Time) (*models.CumulativeTotals, error) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	records, err := fs.mysql.GetFlowRecords(ctx, first.Format("2006-01-02"), now.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	return flow.CumulativeTotals(records), nil
}

// Latest returns the most recent flow record with its sentiment label,
// or nil records when no history exists. Staleness relative to today is
// the caller's decision.
func (fs *FlowSyncService) Latest(ctx context.Context) (*models.FIIDIIDailyRecord, *models.ActivitySentiment, error) {
	records, err := fs.mysql.GetRecentFlowRecords(ctx, 1)
	if err != nil {
		return nil, nil, err
	}

	latest := flow.LatestRecord(records)
	if latest == nil {
		return nil, nil, nil
	}

	sentiment := flow.ActivitySentiment(latest.FIINetValue, latest.DIINetValue)
	return latest, &sentiment, nil
}
