package database

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"

	"github.com/derivs-back/pkg/config"
	"github.com/derivs-back/pkg/models"
)

// InfluxClient persists derived-analytics history as time series
type InfluxClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	logger   *logrus.Entry
	cfg      *config.InfluxConfig
	org      string
	bucket   string
}

// NewInfluxClient creates a new InfluxDB client
func NewInfluxClient(cfg *config.InfluxConfig, logger *logrus.Logger) *InfluxClient {
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetHTTPRequestTimeout(uint(cfg.Timeout.Seconds())).
			SetLogLevel(0),
	)

	return &InfluxClient{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI: client.QueryAPI(cfg.Org),
		logger:   logger.WithField("component", "influxdb"),
		cfg:      cfg,
		org:      cfg.Org,
		bucket:   cfg.Bucket,
	}
}

// Close closes the InfluxDB client
func (ic *InfluxClient) Close() {
	ic.client.Close()
}

// Health checks InfluxDB health
func (ic *InfluxClient) Health(ctx context.Context) error {
	health, err := ic.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("failed to check health: %w", err)
	}

	if health.Status != "pass" {
		msg := ""
		if health.Message != nil {
			msg = *health.Message
		}
		return fmt.Errorf("influxdb health check failed: %s", msg)
	}

	return nil
}

// Signal history

// WriteSignal records one derived signal state for a symbol
func (ic *InfluxClient) WriteSignal(ctx context.Context, symbol string, state *models.SignalState) error {
	point := influxdb2.NewPoint(
		"signals",
		map[string]string{
			"symbol": symbol,
			"signal": state.Signal,
			"type":   state.Type,
		},
		map[string]interface{}{
			"price":      state.Price,
			"target_hit": state.TargetHit,
		},
		time.Now(),
	)

	if err := ic.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("failed to write signal: %w", err)
	}

	return nil
}

// Max-pain history

// WriteMaxPain records one max-pain insight set for a symbol
func (ic *InfluxClient) WriteMaxPain(ctx context.Context, symbol string, insights *models.MaxPainInsights) error {
	point := influxdb2.NewPoint(
		"maxpain",
		map[string]string{
			"symbol": symbol,
			"bias":   insights.Bias,
		},
		map[string]interface{}{
			"distance_from_spot": insights.DistanceFromSpot,
			"volatility":         insights.Volatility,
			"highest_oi_strike":  insights.HighestOIStrike,
		},
		time.Now(),
	)

	if err := ic.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("failed to write max pain: %w", err)
	}

	return nil
}

// OI history

// WriteOITotals records the signed change-OI totals for a symbol
func (ic *InfluxClient) WriteOITotals(ctx context.Context, symbol string, totals models.OITotals) error {
	point := influxdb2.NewPoint(
		"oi_totals",
		map[string]string{
			"symbol": symbol,
		},
		map[string]interface{}{
			"call_change_oi": totals.TotalCallChangeOI,
			"put_change_oi":  totals.TotalPutChangeOI,
		},
		time.Now(),
	)

	if err := ic.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("failed to write OI totals: %w", err)
	}

	return nil
}

// SignalHistoryEntry is one row of recorded signal history
type SignalHistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Signal    string    `json:"signal"`
	Type      string    `json:"type"`
	Price     float64   `json:"price"`
}

// GetSignalHistory returns the recorded signal prices for a symbol since
// the given time
func (ic *InfluxClient) GetSignalHistory(ctx context.Context, symbol string, since time.Duration) ([]SignalHistoryEntry, error) {
	query := fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: -%s)
			|> filter(fn: (r) => r._measurement == "signals")
			|> filter(fn: (r) => r.symbol == "%s")
			|> filter(fn: (r) => r._field == "price")
			|> sort(columns: ["_time"])
	`, ic.bucket, since.String(), symbol)

	result, err := ic.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal history: %w", err)
	}
	defer result.Close()

	var entries []SignalHistoryEntry
	for result.Next() {
		record := result.Record()
		price, _ := record.Value().(float64)
		entry := SignalHistoryEntry{
			Timestamp: record.Time(),
			Price:     price,
		}
		if v, ok := record.ValueByKey("signal").(string); ok {
			entry.Signal = v
		}
		if v, ok := record.ValueByKey("type").(string); ok {
			entry.Type = v
		}
		entries = append(entries, entry)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("signal history query error: %w", result.Err())
	}

	return entries, nil
}

// GetMaxPainDistanceHistory returns the recorded spot-to-max-pain
// distances for a symbol since the given time
func (ic *InfluxClient) GetMaxPainDistanceHistory(ctx context.Context, symbol string, since time.Duration) ([]float64, error) {
	query := fmt.Sprintf(`
		from(bucket: "%s")
			|> range(start: -%s)
			|> filter(fn: (r) => r._measurement == "maxpain")
			|> filter(fn: (r) => r.symbol == "%s")
			|> filter(fn: (r) => r._field == "distance_from_spot")
			|> sort(columns: ["_time"])
	`, ic.bucket, since.String(), symbol)

	result, err := ic.queryAPI.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query max pain history: %w", err)
	}
	defer result.Close()

	var distances []float64
	for result.Next() {
		if v, ok := result.Record().Value().(float64); ok {
			distances = append(distances, v)
		}
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("max pain history query error: %w", result.Err())
	}

	return distances, nil
}
