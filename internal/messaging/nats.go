package messaging

import (
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/derivs-back/pkg/config"
	"github.com/derivs-back/pkg/models"
)

// Subjects for derived-analytics distribution
const (
	SubjectSignals = "signals"
	SubjectMaxPain = "maxpain"
	SubjectOI      = "oi"
)

// NATSClient distributes derived analytics to downstream consumers
type NATSClient struct {
	conn    *nats.Conn
	encoder *nats.EncodedConn
	logger  *logrus.Entry
	cfg     *config.NATSConfig

	// Subscriptions
	subs   map[string]*nats.Subscription
	subsMu sync.RWMutex
}

// NewNATSClient creates a new NATS client
func NewNATSClient(cfg *config.NATSConfig, logger *logrus.Logger) (*NATSClient, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	encoder, err := nats.NewEncodedConn(conn, nats.JSON_ENCODER)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create encoded connection: %w", err)
	}

	return &NATSClient{
		conn:    conn,
		encoder: encoder,
		logger:  logger.WithField("component", "nats"),
		cfg:     cfg,
		subs:    make(map[string]*nats.Subscription),
	}, nil
}

// Close closes the NATS connection
func (nc *NATSClient) Close() error {
	nc.subsMu.Lock()
	for _, sub := range nc.subs {
		sub.Unsubscribe()
	}
	nc.subs = make(map[string]*nats.Subscription)
	nc.subsMu.Unlock()

	nc.encoder.Close()
	nc.conn.Close()
	return nil
}

// IsConnected checks if NATS is connected
func (nc *NATSClient) IsConnected() bool {
	return nc.conn.IsConnected()
}

// PublishSignal publishes a recomputed signal state for a symbol
func (nc *NATSClient) PublishSignal(symbol string, state *models.SignalState) error {
	subject := fmt.Sprintf("%s.%s", SubjectSignals, symbol)
	if err := nc.encoder.Publish(subject, state); err != nil {
		return fmt.Errorf("failed to publish signal for %s: %w", symbol, err)
	}
	return nil
}

// SubscribeSignals subscribes to signal updates for all symbols
func (nc *NATSClient) SubscribeSignals(handler func(state *models.SignalState)) error {
	subject := SubjectSignals + ".*"
	sub, err := nc.encoder.Subscribe(subject, func(state *models.SignalState) {
		handler(state)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	nc.subsMu.Lock()
	nc.subs[subject] = sub
	nc.subsMu.Unlock()
	return nil
}

// maxPainUpdate pairs insights with their symbol on the wire
type maxPainUpdate struct {
	Symbol   string                  `json:"symbol"`
	Insights *models.MaxPainInsights `json:"insights"`
}

// PublishMaxPain publishes recomputed max-pain insights for a symbol
func (nc *NATSClient) PublishMaxPain(symbol string, insights *models.MaxPainInsights) error {
	subject := fmt.Sprintf("%s.%s", SubjectMaxPain, symbol)
	if err := nc.encoder.Publish(subject, &maxPainUpdate{Symbol: symbol, Insights: insights}); err != nil {
		return fmt.Errorf("failed to publish max pain for %s: %w", symbol, err)
	}
	return nil
}

// SubscribeMaxPain subscribes to max-pain updates for all symbols
func (nc *NATSClient) SubscribeMaxPain(handler func(symbol string, insights *models.MaxPainInsights)) error {
	subject := SubjectMaxPain + ".*"
	sub, err := nc.encoder.Subscribe(subject, func(update *maxPainUpdate) {
		handler(update.Symbol, update.Insights)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	nc.subsMu.Lock()
	nc.subs[subject] = sub
	nc.subsMu.Unlock()
	return nil
}

// oiUpdate pairs an aggregated OI snapshot with its symbol on the wire
type oiUpdate struct {
	Symbol  string                  `json:"symbol"`
	Records []models.OIChangeRecord `json:"records"`
	Totals  models.OITotals         `json:"totals"`
}

// PublishOISnapshot publishes an aggregated per-strike OI snapshot
func (nc *NATSClient) PublishOISnapshot(symbol string, records []models.OIChangeRecord, totals models.OITotals) error {
	subject := fmt.Sprintf("%s.%s", SubjectOI, symbol)
	if err := nc.encoder.Publish(subject, &oiUpdate{Symbol: symbol, Records: records, Totals: totals}); err != nil {
		return fmt.Errorf("failed to publish OI snapshot for %s: %w", symbol, err)
	}
	return nil
}

// SubscribeOISnapshots subscribes to OI snapshot updates for all symbols
func (nc *NATSClient) SubscribeOISnapshots(handler func(symbol string, records []models.OIChangeRecord, totals models.OITotals)) error {
	subject := SubjectOI + ".*"
	sub, err := nc.encoder.Subscribe(subject, func(update *oiUpdate) {
		handler(update.Symbol, update.Records, update.Totals)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	nc.subsMu.Lock()
	nc.subs[subject] = sub
	nc.subsMu.Unlock()
	return nil
}
