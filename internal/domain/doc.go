// Package domain models rainfall readings and their daily aggregation.
//
// # Readings
//
// A reading is one rain gauge measurement: an amount in millimetres and the
// server time at which it was accepted, as epoch milliseconds (UTC). Readings
// are append-only. They are never updated or deleted once stored.
//
// Amounts accepted at ingest must be finite numbers. Either a JSON number or
// a numeric string is accepted:
//
//	{"amount": 12.5}     accepted
//	{"amount": "12.5"}   accepted
//	{"amount": "abc"}    rejected (ErrInvalidInput)
//	{}                   rejected (ErrInvalidInput)
//
// No range check is applied, so negative amounts are stored as given.
//
// # Daily totals
//
// A daily total is the sum of every reading whose timestamp lies in the
// half-open UTC window [00:00, next day 00:00) of one calendar date. Totals
// are stored under the ISO date key "YYYY-MM-DD" and are overwritten on every
// aggregation run, so repeated runs over unchanged readings converge.
//
// Values read back from storage are coerced leniently: a stored amount that
// is not a finite number counts as 0 instead of failing the run. See
// [CoerceAmount].
//
// Summation is order independent. The amounts are sorted before a
// compensated sum, so the same set of readings always produces the same
// float64 regardless of the order the store returns them in. See [SumAmounts].
//
// # Target day
//
// The aggregation window is anchored on a [TargetDay] relative to the time
// the job fires: TargetToday aggregates the current UTC date so far and
// TargetYesterday aggregates the last completed date.
//
// # Alerts
//
// When a daily total is strictly greater than the configured threshold a
// single [Alert] is published. A total equal to the threshold does not alert.
package domain
