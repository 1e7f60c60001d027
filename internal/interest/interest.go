// Package interest computes simple daily interest on margin trades whose
// annual rate can change over the holding window, either through the global
// central-bank rate-change history or through the trade's own financing
// events. Recorded repayments shrink the interest-bearing principal from
// their event date onward. All functions are pure: the rate-change history
// is passed in explicitly and inputs are never mutated.
//
// Accrual is simple (non-compounding) daily interest on a 365-day year
// regardless of leap years: interest = principal * rate/100/365 * days.
package interest

import (
	"sort"
	"time"

	"github.com/tradingdiary/backend/internal/model"
)

// DaysPerYear is the day-count basis for daily interest.
const DaysPerYear = 365

// PrincipalPolicy controls how the principal subject to interest behaves when
// a trade is partially closed.
type PrincipalPolicy int

const (
	// PrincipalFull keeps interest accruing on the original loan tranche
	// for the life of the trade, ignoring partial closures. This matches
	// the broker statement behavior the diary was built against.
	PrincipalFull PrincipalPolicy = iota

	// PrincipalReducedByClosures shrinks the principal proportionally to the
	// closed quantity from each closure's exit date onward, treating partial
	// closes as loan repayments.
	PrincipalReducedByClosures
)

// Period is one sub-interval of the holding window during which a single
// rate applied. Periods are ordered, contiguous and non-overlapping; their
// union exactly covers [entry date, min(exit date, as-of date)].
type Period struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Days      int       `json:"days"`
	Rate      float64   `json:"rate"`
	Principal float64   `json:"principal"`
	Interest  float64   `json:"interest"`
	Reason    string    `json:"reason,omitempty"`
}

// EffectiveRate returns the annual rate in percent applying to the trade on
// asOf: the latest rate change dated within [entry date, asOf], or the
// trade's own margin rate when no change qualifies. Dates before the entry
// date always return the margin rate.
func EffectiveRate(trade *model.Trade, asOf time.Time, rateChanges []model.RateChange) float64 {
	if asOf.Before(trade.EntryDate) {
		return trade.MarginRate
	}

	rate := trade.MarginRate
	var latest time.Time
	for _, rc := range mergedChanges(trade, rateChanges) {
		if rc.Date.Before(trade.EntryDate) || rc.Date.After(asOf) {
			continue
		}
		// Trade-scoped changes follow the globals in the merged list, so
		// on equal dates the trade's own event wins.
		if latest.IsZero() || !rc.Date.Before(latest) {
			latest = rc.Date
			rate = rc.Rate
		}
	}
	return rate
}

// Periods splits the holding window [entry date, min(exit date, asOf)] into
// rate periods and computes each period's interest. Zero-day periods are
// skipped. Rate changes dated before the entry date never apply.
func Periods(trade *model.Trade, rateChanges []model.RateChange, asOf time.Time, policy PrincipalPolicy) []Period {
	end := endDate(trade, asOf)
	if !trade.EntryDate.Before(end) {
		return nil
	}

	changes := applicableChanges(trade, mergedChanges(trade, rateChanges), end)
	cuts := principalCuts(trade, end, policy)

	periods := []Period{}
	cursor := trade.EntryDate
	rate := trade.MarginRate
	reason := "initial rate"

	// advance emits the periods covering [cursor, to), splitting at closure
	// exit dates so each period carries a single principal.
	advance := func(to time.Time) {
		for len(cuts) > 0 && cuts[0].Before(to) {
			if cuts[0].After(cursor) {
				periods = appendPeriod(periods, trade, cursor, cuts[0], rate, reason, policy)
				cursor = cuts[0]
				reason = "principal reduced"
			}
			cuts = cuts[1:]
		}
		periods = appendPeriod(periods, trade, cursor, to, rate, reason, policy)
		cursor = to
	}

	for _, rc := range changes {
		if !cursor.Before(rc.Date) {
			// Same-day change supersedes the rate without emitting a
			// zero-length period.
			rate = rc.Rate
			reason = changeReason(rc)
			continue
		}
		advance(rc.Date)
		rate = rc.Rate
		reason = changeReason(rc)
	}

	if cursor.Before(end) {
		advance(end)
	}

	return periods
}

// principalCuts returns the dates inside (entry date, end) where the
// interest-bearing principal changes, each of which must start a new period:
// repayment events under either policy, closure exits only under
// PrincipalReducedByClosures.
func principalCuts(trade *model.Trade, end time.Time, policy PrincipalPolicy) []time.Time {
	var cuts []time.Time
	add := func(d time.Time) {
		if d.After(trade.EntryDate) && d.Before(end) {
			cuts = append(cuts, d)
		}
	}

	for _, ev := range trade.FinancingEvents {
		if ev.EventType == model.FinancingEventRepayment {
			add(ev.Date)
		}
	}
	if policy == PrincipalReducedByClosures {
		for _, c := range trade.Closures {
			add(c.ExitDate)
		}
	}

	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Before(cuts[j]) })
	return cuts
}

// mergedChanges returns the global rate changes plus the trade's own
// RATE_CHANGE financing events, which act as trade-scoped rate changes.
func mergedChanges(trade *model.Trade, rateChanges []model.RateChange) []model.RateChange {
	if len(trade.FinancingEvents) == 0 {
		return rateChanges
	}

	merged := make([]model.RateChange, 0, len(rateChanges)+len(trade.FinancingEvents))
	merged = append(merged, rateChanges...)
	for _, ev := range trade.FinancingEvents {
		if ev.EventType != model.FinancingEventRateChange || ev.Rate == nil {
			continue
		}
		reason := ev.Notes
		if reason == "" {
			reason = "trade rate change"
		}
		merged = append(merged, model.RateChange{
			ID:     ev.ID,
			Date:   ev.Date,
			Rate:   *ev.Rate,
			Reason: reason,
		})
	}
	return merged
}

// Accrued returns the total simple interest accrued over the holding window.
func Accrued(trade *model.Trade, rateChanges []model.RateChange, asOf time.Time, policy PrincipalPolicy) float64 {
	var total float64
	for _, p := range Periods(trade, rateChanges, asOf, policy) {
		total += p.Interest
	}
	return total
}

// Savings returns the baseline interest (original rate held for the whole
// window) minus the actual accrued interest. Positive when the effective
// rate decreased after entry.
func Savings(trade *model.Trade, rateChanges []model.RateChange, asOf time.Time, policy PrincipalPolicy) float64 {
	end := endDate(trade, asOf)
	days := DaysBetween(trade.EntryDate, end)
	if days <= 0 {
		return 0
	}
	baseline := principalAt(trade, trade.EntryDate, policy) * trade.MarginRate / 100 / DaysPerYear * float64(days)
	return baseline - Accrued(trade, rateChanges, asOf, policy)
}

// DailyInterest returns one day of interest at the trade's effective rate on
// asOf.
func DailyInterest(trade *model.Trade, asOf time.Time, rateChanges []model.RateChange, policy PrincipalPolicy) float64 {
	rate := EffectiveRate(trade, asOf, rateChanges)
	return principalAt(trade, asOf, policy) * rate / 100 / DaysPerYear
}

// DaysBetween counts whole calendar days between two dates, ignoring any
// time-of-day component.
func DaysBetween(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

func endDate(trade *model.Trade, asOf time.Time) time.Time {
	if trade.ExitDate != nil && trade.ExitDate.Before(asOf) {
		return *trade.ExitDate
	}
	return asOf
}

// applicableChanges returns the rate changes within [entry date, end],
// sorted ascending by date.
func applicableChanges(trade *model.Trade, rateChanges []model.RateChange, end time.Time) []model.RateChange {
	var changes []model.RateChange
	for _, rc := range rateChanges {
		if rc.Date.Before(trade.EntryDate) || rc.Date.After(end) {
			continue
		}
		changes = append(changes, rc)
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Date.Before(changes[j].Date)
	})
	return changes
}

func appendPeriod(periods []Period, trade *model.Trade, start, end time.Time, rate float64, reason string, policy PrincipalPolicy) []Period {
	days := DaysBetween(start, end)
	if days <= 0 {
		return periods
	}
	principal := principalAt(trade, start, policy)
	return append(periods, Period{
		StartDate: start,
		EndDate:   end,
		Days:      days,
		Rate:      rate,
		Principal: principal,
		Interest:  principal * rate / 100 / DaysPerYear * float64(days),
		Reason:    reason,
	})
}

// principalAt returns the principal in effect on the given date. Recorded
// repayment events reduce it from their date onward under either policy.
// Under PrincipalReducedByClosures each closure additionally repays a
// proportional share of the original principal from its exit date onward;
// under PrincipalFull closures never change it.
func principalAt(trade *model.Trade, on time.Time, policy PrincipalPolicy) float64 {
	principal := trade.Principal()

	for _, ev := range trade.FinancingEvents {
		if ev.EventType != model.FinancingEventRepayment || ev.Amount == nil || ev.Date.After(on) {
			continue
		}
		principal -= *ev.Amount
	}

	if policy == PrincipalReducedByClosures && trade.Quantity > 0 {
		perUnit := trade.Principal() / float64(trade.Quantity)
		for _, c := range trade.Closures {
			if c.ExitDate.After(on) {
				continue
			}
			principal -= perUnit * float64(c.ClosedQuantity)
		}
	}

	if principal < 0 {
		return 0
	}
	return principal
}

func changeReason(rc model.RateChange) string {
	if rc.Reason != "" {
		return rc.Reason
	}
	return "rate change"
}
