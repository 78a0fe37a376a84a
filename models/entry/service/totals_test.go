package service

import (
	"testing"
	"time"

	"github.com/backlot-hq/backlot-backend/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestMileageTotal(t *testing.T) {
	tests := []struct {
		name      string
		miles     string
		rate      string
		roundTrip bool
		expected  string
	}{
		{"one way", "10", "0.60", false, "6.00"},
		{"round trip doubles miles", "6.7", "0.60", true, "8.04"},
		{"fractional miles one way", "6.7", "0.60", false, "4.02"},
		{"round trip 13.4 effective miles", "13.4", "0.60", false, "8.04"},
		{"zero miles", "0", "0.60", true, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MileageTotal(d(tt.miles), d(tt.rate), tt.roundTrip)
			assert.True(t, got.Equal(d(tt.expected)),
				"got %s, want %s", got, tt.expected)
		})
	}
}

func TestMileageTotalIsPure(t *testing.T) {
	miles, rate := d("6.7"), d("0.60")
	first := MileageTotal(miles, rate, true)
	for i := 0; i < 5; i++ {
		assert.True(t, first.Equal(MileageTotal(miles, rate, true)))
	}
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRentalDays(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		expected int64
	}{
		{"same day counts as one", "2026-03-02", "2026-03-02", 1},
		{"overnight is two days", "2026-03-02", "2026-03-03", 2},
		{"one full week", "2026-03-02", "2026-03-08", 7},
		{"ten days", "2026-03-02", "2026-03-11", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RentalDays(date(tt.start), date(tt.end)))
		})
	}
}

func TestRentalDaysInvertedPeriod(t *testing.T) {
	assert.Equal(t, int64(0), RentalDays(date("2026-03-05"), date("2026-03-02")))
}

func TestKitRentalTotal(t *testing.T) {
	start := date("2026-03-02")
	tenDays := date("2026-03-11")
	threeDays := date("2026-03-04")

	tests := []struct {
		name     string
		rateType types.RentalRateType
		flat     string
		daily    string
		weekly   string
		start    *time.Time
		end      *time.Time
		expected string
	}{
		{"flat uses amount verbatim", types.RentalRateFlat, "500", "0", "0", nil, nil, "500"},
		{"daily only", types.RentalRateDaily, "0", "50", "0", &start, &threeDays, "150"},
		// 10 days with a weekly rate: 1 week at 300 plus 3 days at 50.
		{"weekly split", types.RentalRateWeekly, "0", "50", "300", &start, &tenDays, "450"},
		// 14 days is exactly 2 weeks with no daily remainder.
		{"exact weeks", types.RentalRateWeekly, "0", "50", "300",
			&start, timePtr(date("2026-03-15")), "600"},
		{"daily with weekly rate present still splits", types.RentalRateDaily,
			"0", "50", "300", &start, &tenDays, "450"},
		{"missing period yields zero", types.RentalRateDaily, "0", "50", "0", nil, nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KitRentalTotal(tt.rateType, d(tt.flat), d(tt.daily), d(tt.weekly), tt.start, tt.end)
			assert.True(t, got.Equal(d(tt.expected)),
				"got %s, want %s", got, tt.expected)
		})
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestComputeTotalMileageEndToEnd(t *testing.T) {
	travel := date("2026-03-02")
	entry := &types.ExpenseEntry{
		Kind:        types.EntryKindMileage,
		Miles:       d("6.7"),
		RatePerMile: d("0.60"),
		IsRoundTrip: true,
		TravelDate:  &travel,
	}
	assert.True(t, ComputeTotal(entry).Equal(d("8.04")))
}

func TestSummarize(t *testing.T) {
	entries := []*types.ExpenseEntry{
		{Status: types.EntryStatusDraft, TotalAmount: d("10")},
		{Status: types.EntryStatusDraft, TotalAmount: d("20")},
		{Status: types.EntryStatusPending, TotalAmount: d("5.50")},
		{Status: types.EntryStatusApproved, TotalAmount: d("100")},
	}

	summary := Summarize(entries)

	assert.Equal(t, 2, summary.DraftReadyCount)
	assert.True(t, summary.GrandTotal.Equal(d("135.50")))

	assert.Len(t, summary.Totals, 3)
	assert.Equal(t, types.EntryStatusDraft, summary.Totals[0].Status)
	assert.Equal(t, 2, summary.Totals[0].Count)
	assert.True(t, summary.Totals[0].Total.Equal(d("30")))
	assert.Equal(t, types.EntryStatusPending, summary.Totals[1].Status)
	assert.True(t, summary.Totals[1].Total.Equal(d("5.50")))
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Empty(t, summary.Totals)
	assert.Zero(t, summary.DraftReadyCount)
	assert.True(t, summary.GrandTotal.IsZero())
}

func TestTotalByStatus(t *testing.T) {
	entries := []*types.ExpenseEntry{
		{Status: types.EntryStatusPending, TotalAmount: d("5")},
		{Status: types.EntryStatusPending, TotalAmount: d("7")},
		{Status: types.EntryStatusApproved, TotalAmount: d("9")},
	}
	assert.True(t, TotalByStatus(entries, types.EntryStatusPending).Equal(d("12")))
	assert.True(t, TotalByStatus(entries, types.EntryStatusRejected).IsZero())
}
