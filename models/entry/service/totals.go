package service

import (
	"time"

	"github.com/backlot-hq/backlot-backend/types"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// MileageTotal derives a mileage entry's amount: round trips double the
// miles before applying the per-mile rate. Pure; recomputed on every write.
func MileageTotal(miles, ratePerMile decimal.Decimal, isRoundTrip bool) decimal.Decimal {
	if isRoundTrip {
		miles = miles.Mul(two)
	}
	return miles.Mul(ratePerMile)
}

// RentalDays counts the billable days of a rental period, inclusive of both
// endpoints: a pickup and return on the same calendar day is one day.
func RentalDays(start, end time.Time) int64 {
	if end.Before(start) {
		return 0
	}
	days := int64(end.Sub(start).Hours()/24) + 1
	if end.Sub(start)%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// KitRentalTotal derives a kit rental's amount. Flat rentals use the flat
// amount verbatim. When a weekly rate exists, full weeks bill at the weekly
// rate and remaining days at the daily rate; otherwise every day bills at
// the daily rate.
func KitRentalTotal(rateType types.RentalRateType, flatAmount, dailyRate, weeklyRate decimal.Decimal, start, end *time.Time) decimal.Decimal {
	if rateType == types.RentalRateFlat {
		return flatAmount
	}
	if start == nil || end == nil {
		return decimal.Zero
	}

	days := RentalDays(*start, *end)
	if days <= 0 {
		return decimal.Zero
	}

	if weeklyRate.GreaterThan(decimal.Zero) {
		weeks := days / 7
		remaining := days % 7
		return weeklyRate.Mul(decimal.NewFromInt(weeks)).
			Add(dailyRate.Mul(decimal.NewFromInt(remaining)))
	}

	return dailyRate.Mul(decimal.NewFromInt(days))
}

// ComputeTotal derives an entry's total from its amount fields. The total is
// never stored-and-trusted: every create and update path runs through here.
func ComputeTotal(e *types.ExpenseEntry) decimal.Decimal {
	switch e.Kind {
	case types.EntryKindMileage:
		return MileageTotal(e.Miles, e.RatePerMile, e.IsRoundTrip)
	case types.EntryKindKitRental:
		return KitRentalTotal(e.RentalType, e.FlatAmount, e.DailyRate, e.WeeklyRate, e.RentalStart, e.RentalEnd)
	default:
		return decimal.Zero
	}
}

// Summarize derives the per-status totals, draft-ready count and grand total
// from a fetched collection. Always recomputed from the latest collection;
// no aggregate is cached or mutated in place.
func Summarize(entries []*types.ExpenseEntry) types.EntrySummary {
	byStatus := make(map[types.EntryStatus]*types.StatusTotal)
	var order []types.EntryStatus
	summary := types.EntrySummary{GrandTotal: decimal.Zero}

	for _, e := range entries {
		st, ok := byStatus[e.Status]
		if !ok {
			st = &types.StatusTotal{Status: e.Status, Total: decimal.Zero}
			byStatus[e.Status] = st
			order = append(order, e.Status)
		}
		st.Count++
		st.Total = st.Total.Add(e.TotalAmount)
		summary.GrandTotal = summary.GrandTotal.Add(e.TotalAmount)
		if e.Status == types.EntryStatusDraft {
			summary.DraftReadyCount++
		}
	}

	for _, status := range order {
		summary.Totals = append(summary.Totals, *byStatus[status])
	}
	return summary
}

// TotalByStatus sums entry totals for one status.
func TotalByStatus(entries []*types.ExpenseEntry, status types.EntryStatus) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Status == status {
			total = total.Add(e.TotalAmount)
		}
	}
	return total
}
