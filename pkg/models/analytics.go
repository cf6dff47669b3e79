package models

// PricePoint represents one aligned intraday sample.
// MinutesSinceOpen is normalized so that market open (09:15 IST) is minute 0.
type PricePoint struct {
	MinutesSinceOpen int     `json:"minutes_since_open"`
	Time             string  `json:"time"`
	Price            float64 `json:"price"`
}

// GannLevel represents a single support or resistance rung.
// Order 1 is nearest the base price, higher orders are further away.
type GannLevel struct {
	Order int     `json:"order"`
	Value float64 `json:"value"`
}

// GannLevelSet represents the full support/resistance grid derived from
// one base price. Supports decrease in value as order increases,
// resistances increase. Immutable once computed.
type GannLevelSet struct {
	BasePrice   float64     `json:"base_price"`
	Supports    []GannLevel `json:"supports"`
	Resistances []GannLevel `json:"resistances"`
}

// Support returns the support with the given order, or false when fewer
// levels were configured.
func (gs *GannLevelSet) Support(order int) (float64, bool) {
	for _, l := range gs.Supports {
		if l.Order == order {
			return l.Value, true
		}
	}
	return 0, false
}

// Resistance returns the resistance with the given order, or false when
// fewer levels were configured.
func (gs *GannLevelSet) Resistance(order int) (float64, bool) {
	for _, l := range gs.Resistances {
		if l.Order == order {
			return l.Value, true
		}
	}
	return 0, false
}

// Trading signal values
const (
	SignalPutBuy  = "PUT BUY"
	SignalCallBuy = "CALL BUY"
	SignalWait    = "WAIT"
)

// Trend type values
const (
	TrendBearish  = "BEARISH"
	TrendBullish  = "BULLISH"
	TrendSideways = "SIDEWAYS"
)

// Target progress status values
const (
	StatusHit        = "HIT"
	StatusTarget     = "TARGET"
	StatusEntry      = "ENTRY"
	StatusSupport    = "SUPPORT"
	StatusResistance = "RESISTANCE"
)

// Special currentTarget / stopLoss values
const (
	AllTargetsHit = "All Targets Hit"
	NotApplicable = "N/A"
	NoTargetHit   = "None"
)

// TargetProgress represents the breach state of a single grid level.
type TargetProgress struct {
	Level  string  `json:"level"`
	Value  float64 `json:"value"`
	Status string  `json:"status"`
}

// SignalState represents the directional trading signal derived from the
// current price and a Gann grid. It has no persisted identity and is
// recomputed on every price update.
type SignalState struct {
	Symbol          string           `json:"symbol,omitempty"`
	Price           float64          `json:"price"`
	Signal          string           `json:"signal"`
	Type            string           `json:"type"`
	CurrentTarget   string           `json:"current_target"`
	StopLoss        string           `json:"stop_loss"`
	TargetHit       string           `json:"target_hit"`
	TargetsProgress []TargetProgress `json:"targets_progress"`
}

// MaxPainSample represents one max-pain observation paired with spot.
type MaxPainSample struct {
	Time      string  `json:"time"`
	MaxPain   float64 `json:"max_pain"`
	SpotPrice float64 `json:"spot_price"`
}

// Max-pain bias values
const (
	BiasBullish = "Bullish"
	BiasBearish = "Bearish"
	BiasNeutral = "Neutral"
)

// MaxPainInsights represents derived max-pain metrics over a window of
// samples plus the current spot price.
type MaxPainInsights struct {
	DistanceFromSpot float64 `json:"distance_from_spot"`
	Bias             string  `json:"bias"`
	Volatility       float64 `json:"volatility"`
	HighestOIStrike  float64 `json:"highest_oi_strike"`
}

// OIChangeRecord represents one per-strike open-interest change row.
// When a raw batch carries multiple timestamps for the same strike the
// latest observation wins.
type OIChangeRecord struct {
	Strike       float64 `json:"strike"`
	Time         string  `json:"time"`
	CallChangeOI float64 `json:"call_change_oi"`
	PutChangeOI  float64 `json:"put_change_oi"`
	CallOIValue  float64 `json:"call_oi_value"`
	PutOIValue   float64 `json:"put_oi_value"`
	IndexClose   float64 `json:"index_close"`
}

// OITotals represents signed change-OI sums across strikes. Positive and
// negative changes are reported as-is, never as absolute values.
type OITotals struct {
	TotalCallChangeOI float64 `json:"total_call_change_oi"`
	TotalPutChangeOI  float64 `json:"total_put_change_oi"`
}

// FIIDIIDailyRecord represents one day of institutional flow.
// Net values are in INR crores, Date is an ISO date (YYYY-MM-DD).
type FIIDIIDailyRecord struct {
	Date           string  `json:"date"`
	FIINetValue    float64 `json:"fii_net_value"`
	DIINetValue    float64 `json:"dii_net_value"`
	LastTradePrice float64 `json:"last_trade_price"`
	ChangeValue    float64 `json:"change_value"`
	ChangePer      float64 `json:"change_per"`
}

// RollingAverage represents trailing-window means of institutional flow.
type RollingAverage struct {
	FIIRollingAvg      float64 `json:"fii_rolling_avg"`
	DIIRollingAvg      float64 `json:"dii_rolling_avg"`
	CombinedRollingAvg float64 `json:"combined_rolling_avg"`
}

// CumulativeTotals represents flow sums over a caller-selected record set.
type CumulativeTotals struct {
	FIICumulative      float64 `json:"fii_cumulative"`
	DIICumulative      float64 `json:"dii_cumulative"`
	CombinedCumulative float64 `json:"combined_cumulative"`
}

// ActivitySentiment represents the qualitative institutional-flow label
// shown next to the FII/DII table.
type ActivitySentiment struct {
	Sentiment string `json:"sentiment"`
	Color     string `json:"color"`
}
