package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"github.com/derivs-back/pkg/config"
	"github.com/derivs-back/pkg/models"
)

// MySQLClient persists daily institutional-flow records
type MySQLClient struct {
	db     *sql.DB
	logger *logrus.Entry
	cfg    *config.MySQLConfig
}

// NewMySQLClient creates a new MySQL client
func NewMySQLClient(cfg *config.MySQLConfig, logger *logrus.Logger) (*MySQLClient, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&multiStatements=true",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	return &MySQLClient{
		db:     db,
		logger: logger.WithField("component", "mysql"),
		cfg:    cfg,
	}, nil
}

// Close closes the database connection
func (mc *MySQLClient) Close() error {
	return mc.db.Close()
}

// Health checks database health
func (mc *MySQLClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return mc.db.PingContext(ctx)
}

// Migrate creates the flow tables if they do not exist
func (mc *MySQLClient) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS fii_dii_daily (
			trade_date       DATE NOT NULL PRIMARY KEY,
			fii_net_value    DOUBLE NOT NULL DEFAULT 0,
			dii_net_value    DOUBLE NOT NULL DEFAULT 0,
			last_trade_price DOUBLE NOT NULL DEFAULT 0,
			change_value     DOUBLE NOT NULL DEFAULT 0,
			change_per       DOUBLE NOT NULL DEFAULT 0,
			updated_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`

	if _, err := mc.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create fii_dii_daily table: %w", err)
	}

	mc.logger.Info("MySQL schema migrated")
	return nil
}

// Flow operations

// UpsertFlowRecords inserts or updates daily flow records by date
func (mc *MySQLClient) UpsertFlowRecords(ctx context.Context, records []models.FIIDIIDailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO fii_dii_daily
			(trade_date, fii_net_value, dii_net_value, last_trade_price, change_value, change_per)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			fii_net_value = VALUES(fii_net_value),
			dii_net_value = VALUES(dii_net_value),
			last_trade_price = VALUES(last_trade_price),
			change_value = VALUES(change_value),
			change_per = VALUES(change_per)`

	tx, err := mc.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.Date,
			rec.FIINetValue,
			rec.DIINetValue,
			rec.LastTradePrice,
			rec.ChangeValue,
			rec.ChangePer,
		); err != nil {
			return fmt.Errorf("failed to upsert flow record %s: %w", rec.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flow records: %w", err)
	}

	return nil
}

// GetFlowRecords returns flow records in [from, to], ordered by date
func (mc *MySQLClient) GetFlowRecords(ctx context.Context, from, to string) ([]models.FIIDIIDailyRecord, error) {
	query := `
		SELECT trade_date, fii_net_value, dii_net_value, last_trade_price, change_value, change_per
		FROM fii_dii_daily
		WHERE trade_date BETWEEN ? AND ?
		ORDER BY trade_date ASC`

	rows, err := mc.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow records: %w", err)
	}
	defer rows.Close()

	return scanFlowRows(rows)
}

// GetRecentFlowRecords returns the most recent n flow records, ordered
// oldest first so rolling windows read naturally
func (mc *MySQLClient) GetRecentFlowRecords(ctx context.Context, n int) ([]models.FIIDIIDailyRecord, error) {
	query := `
		SELECT trade_date, fii_net_value, dii_net_value, last_trade_price, change_value, change_per
		FROM (
			SELECT trade_date, fii_net_value, dii_net_value, last_trade_price, change_value, change_per
			FROM fii_dii_daily
			ORDER BY trade_date DESC
			LIMIT ?
		) recent
		ORDER BY trade_date ASC`

	rows, err := mc.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent flow records: %w", err)
	}
	defer rows.Close()

	return scanFlowRows(rows)
}

func scanFlowRows(rows *sql.Rows) ([]models.FIIDIIDailyRecord, error) {
	var records []models.FIIDIIDailyRecord
	for rows.Next() {
		var rec models.FIIDIIDailyRecord
		var tradeDate time.Time
		if err := rows.Scan(
			&tradeDate,
			&rec.FIINetValue,
			&rec.DIINetValue,
			&rec.LastTradePrice,
			&rec.ChangeValue,
			&rec.ChangePer,
		); err != nil {
			return nil, fmt.Errorf("failed to scan flow record: %w", err)
		}
		rec.Date = tradeDate.Format("2006-01-02")
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow rows error: %w", err)
	}
	return records, nil
}
