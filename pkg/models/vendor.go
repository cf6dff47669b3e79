package models

import (
	"strconv"
	"strings"
)

// IntradaySeriesPayload represents the vendor's intraday series response.
// Both fields are comma-joined parallel strings of equal nominal length;
// malformed upstream data may make them diverge.
type IntradaySeriesPayload struct {
	SpotPrice string `json:"spot_price"`
	CreatedAt string `json:"created_at"`
}

// RawOIRow represents one per-strike open-interest row as the vendor
// returns it. Numeric fields arrive as strings and are parsed at the
// boundary; rows that fail to parse are dropped.
type RawOIRow struct {
	StrikePrice      string `json:"strike_price"`
	CallsChangeOI    string `json:"calls_change_oi"`
	PutsChangeOI     string `json:"puts_change_oi"`
	CallsChangeOIVal string `json:"calls_change_oi_value"`
	PutsChangeOIVal  string `json:"puts_change_oi_value"`
	Time             string `json:"time"`
	IndexClose       string `json:"index_close"`
}

// ToRecord converts a raw vendor row into a typed OIChangeRecord.
// Returns false when the strike cannot be parsed; other numeric fields
// degrade to zero individually so one bad column does not drop the row.
func (r *RawOIRow) ToRecord() (OIChangeRecord, bool) {
	strike, err := strconv.ParseFloat(strings.TrimSpace(r.StrikePrice), 64)
	if err != nil {
		return OIChangeRecord{}, false
	}
	return OIChangeRecord{
		Strike:       strike,
		Time:         strings.TrimSpace(r.Time),
		CallChangeOI: parseFloatOrZero(r.CallsChangeOI),
		PutChangeOI:  parseFloatOrZero(r.PutsChangeOI),
		CallOIValue:  parseFloatOrZero(r.CallsChangeOIVal),
		PutOIValue:   parseFloatOrZero(r.PutsChangeOIVal),
		IndexClose:   parseFloatOrZero(r.IndexClose),
	}, true
}

// ParseOIRows converts a raw vendor batch, dropping unparseable rows.
func ParseOIRows(rows []RawOIRow) []OIChangeRecord {
	records := make([]OIChangeRecord, 0, len(rows))
	for i := range rows {
		if rec, ok := rows[i].ToRecord(); ok {
			records = append(records, rec)
		}
	}
	return records
}

// RawFlowRow represents one daily institutional-flow row as the vendor
// returns it.
type RawFlowRow struct {
	CreatedAt      string `json:"created_at"`
	FIINetValue    string `json:"fii_net_value"`
	DIINetValue    string `json:"dii_net_value"`
	LastTradePrice string `json:"last_trade_price"`
	ChangeValue    string `json:"change_value"`
	ChangePer      string `json:"change_per"`
}

// ToRecord converts a raw vendor row into a typed FIIDIIDailyRecord.
// Returns false when the date is missing.
func (r *RawFlowRow) ToRecord() (FIIDIIDailyRecord, bool) {
	date := strings.TrimSpace(r.CreatedAt)
	if date == "" {
		return FIIDIIDailyRecord{}, false
	}
	return FIIDIIDailyRecord{
		Date:           date,
		FIINetValue:    parseFloatOrZero(r.FIINetValue),
		DIINetValue:    parseFloatOrZero(r.DIINetValue),
		LastTradePrice: parseFloatOrZero(r.LastTradePrice),
		ChangeValue:    parseFloatOrZero(r.ChangeValue),
		ChangePer:      parseFloatOrZero(r.ChangePer),
	}, true
}

// ParseFlowRows converts a raw vendor batch, dropping rows without a date.
func ParseFlowRows(rows []RawFlowRow) []FIIDIIDailyRecord {
	records := make([]FIIDIIDailyRecord, 0, len(rows))
	for i := range rows {
		if rec, ok := rows[i].ToRecord(); ok {
			records = append(records, rec)
		}
	}
	return records
}

// RawMaxPainRow represents one max-pain observation as the vendor
// returns it.
type RawMaxPainRow struct {
	Time      string `json:"time"`
	MaxPain   string `json:"max_pain"`
	SpotPrice string `json:"spot_price"`
}

// ParseMaxPainRows converts a raw vendor batch into typed samples,
// dropping rows whose max-pain value cannot be parsed.
func ParseMaxPainRows(rows []RawMaxPainRow) []MaxPainSample {
	samples := make([]MaxPainSample, 0, len(rows))
	for _, row := range rows {
		mp, err := strconv.ParseFloat(strings.TrimSpace(row.MaxPain), 64)
		if err != nil {
			continue
		}
		samples = append(samples, MaxPainSample{
			Time:      strings.TrimSpace(row.Time),
			MaxPain:   mp,
			SpotPrice: parseFloatOrZero(row.SpotPrice),
		})
	}
	return samples
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
