package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derivs-back/pkg/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewClient(&config.VendorConfig{
		BaseURL:      srv.URL,
		Timeout:      5 * time.Second,
		RateInterval: time.Millisecond,
		CacheTTL:     time.Minute,
	}, logger)
}

func TestGetIntradaySeries(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/intraday" {
			t.Errorf("path=%q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "NIFTY" {
			t.Errorf("symbol=%q", got)
		}
		w.Write([]byte(`{"spot_price":"100,101","created_at":"09:15,09:16"}`))
	}))

	payload, err := c.GetIntradaySeries(context.Background(), "NIFTY")
	if err != nil {
		t.Fatalf("GetIntradaySeries: %v", err)
	}
	if payload.SpotPrice != "100,101" || payload.CreatedAt != "09:15,09:16" {
		t.Errorf("payload=%+v", payload)
	}
}

func TestGetOIChange_DropsBadRows(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"strike_price":"25000","calls_change_oi":"1500","puts_change_oi":"-300","time":"10:30"},
			{"strike_price":"oops","calls_change_oi":"1","time":"10:30"}
		]`))
	}))

	records, err := c.GetOIChange(context.Background(), "NIFTY", "2025-09-02")
	if err != nil {
		t.Fatalf("GetOIChange: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Strike != 25000 || records[0].PutChangeOI != -300 {
		t.Errorf("record=%+v", records[0])
	}
}

func TestGetDailyFlows(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"created_at":"2025-08-28","fii_net_value":"-1523.45","dii_net_value":"2011.20"}]`))
	}))

	records, err := c.GetDailyFlows(context.Background())
	if err != nil {
		t.Fatalf("GetDailyFlows: %v", err)
	}
	if len(records) != 1 || records[0].FIINetValue != -1523.45 {
		t.Errorf("records=%+v", records)
	}
}

func TestGetJSON_UsesCache(t *testing.T) {
	hits := 0
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"spot_price":"1","created_at":"09:15"}`))
	}))

	ctx := context.Background()
	if _, err := c.GetIntradaySeries(ctx, "NIFTY"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := c.GetIntradaySeries(ctx, "NIFTY"); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits=%d, want 1 (second call served from cache)", hits)
	}
}

func TestGetJSON_VendorError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if _, err := c.GetIntradaySeries(context.Background(), "NIFTY"); err == nil {
		t.Fatal("want error for non-200 response")
	}
}
