package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Reading is a single accepted rainfall measurement.
type Reading struct {
	ID        string  `json:"-"`
	Timestamp int64   `json:"timestamp"` // epoch milliseconds, UTC
	Amount    float64 `json:"amount"`
}

// NewReading stamps amount with the given server time.
func NewReading(now time.Time, amount float64) Reading {
	return Reading{
		Timestamp: now.UnixMilli(),
		Amount:    amount,
	}
}

// Time returns the reading timestamp as a UTC time.
func (r Reading) Time() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}

// RawReading is a reading as read back from storage. Amount is left untyped
// so that malformed stored values can be coerced instead of rejected.
type RawReading struct {
	ID        string
	Timestamp int64
	Amount    any
}

// DailyTotal is the summed rainfall for one UTC calendar date.
type DailyTotal struct {
	DateKey string  `json:"date"`
	Total   float64 `json:"total"`
}

const (
	// DefaultAlertTopic is the topic heavy-rainfall alerts are published to.
	DefaultAlertTopic = "rainfallAlerts"

	alertTitle = "Heavy Rainfall"
)

// Alert is the notification published when a daily total exceeds the threshold.
type Alert struct {
	Topic   string  `json:"-"`
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	DateKey string  `json:"date"`
	Total   float64 `json:"total"`
}

// NewAlert builds the heavy-rainfall notification for a daily total.
func NewAlert(topic string, dt DailyTotal) Alert {
	if topic == "" {
		topic = DefaultAlertTopic
	}
	return Alert{
		Topic:   topic,
		Title:   alertTitle,
		Body:    fmt.Sprintf("Rainfall reached %smm on %s", FormatAmount(dt.Total), dt.DateKey),
		DateKey: dt.DateKey,
		Total:   dt.Total,
	}
}

// ExceedsThreshold reports whether total is strictly above threshold.
func ExceedsThreshold(total, threshold float64) bool {
	return total > threshold
}

// FormatAmount renders an amount with the shortest exact decimal form,
// e.g. 105 -> "105", 100.5 -> "100.5".
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
