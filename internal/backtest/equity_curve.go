package backtest

import (
	"bytes"
	"strconv"
	"time"
)

// EquityPoint is the cumulative profit after one settled bet
type EquityPoint struct {
	Time     time.Time `json:"time"`
	Value    float64   `json:"value"`
	Drawdown float64   `json:"drawdown"`
}

// EquityCurve represents a time-series of equity points
type EquityCurve []EquityPoint

// Append adds a point, tracking drawdown from the running peak
func (e EquityCurve) Append(t time.Time, value float64) EquityCurve {
	peak := 0.0
	for _, p := range e {
		if p.Value > peak {
			peak = p.Value
		}
	}
	drawdown := 0.0
	if value < peak {
		drawdown = peak - value
	}
	return append(e, EquityPoint{Time: t, Value: value, Drawdown: drawdown})
}

// MaxDrawdown returns the largest peak-to-trough fall in profit
func (e EquityCurve) MaxDrawdown() float64 {
	peak, worst := 0.0, 0.0
	for _, p := range e {
		if p.Value > peak {
			peak = p.Value
		}
		if dd := peak - p.Value; dd > worst {
			worst = dd
		}
	}
	return worst
}

// Final returns the last value or zero
func (e EquityCurve) Final() float64 {
	if len(e) == 0 {
		return 0
	}
	return e[len(e)-1].Value
}

// ToCSV exports equity curve to CSV string
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("time,value,drawdown\n")
	for _, point := range e {
		buf.WriteString(point.Time.Format("2006-01-02"))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Value))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Drawdown))
		buf.WriteString("\n")
	}
	return buf.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
