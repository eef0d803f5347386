package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func billOn(dueDate string) Bill {
	due, _ := ParseDate(dueDate)
	return Bill{
		UserID:        "u1",
		Kind:          Payable,
		Amount:        decimal.NewFromFloat(150.00),
		DueDate:       due,
		Description:   "internet",
		PartyName:     "provider",
		PaymentMethod: Pix,
	}
}

func dateStrings(bills []Bill) []string {
	out := make([]string, 0, len(bills))
	for _, b := range bills {
		out = append(out, b.DueDate.String())
	}
	return out
}

func TestExpandRecurrence_NonRecurring(t *testing.T) {
	base := billOn("2024-06-01")
	// Populated recurrence fields must be ignored when not recurring.
	end, _ := ParseDate("2025-06-01")
	policy := RecurrencePolicy{IsRecurring: false, Interval: Weekly, Count: 5, EndDate: end}

	got := ExpandRecurrence(base, policy)

	require.Len(t, got, 1)
	assert.Equal(t, "2024-06-01", got[0].DueDate.String())
	assert.Equal(t, BillPending, got[0].Status)
}

func TestExpandRecurrence_CountBound(t *testing.T) {
	tests := []struct {
		name     string
		due      string
		interval Interval
		count    int
		want     []string
	}{
		{
			name:     "monthly rollover past short february",
			due:      "2024-01-31",
			interval: Monthly,
			count:    3,
			want:     []string{"2024-01-31", "2024-03-02", "2024-04-02"},
		},
		{
			name:     "weekly",
			due:      "2024-01-15",
			interval: Weekly,
			count:    4,
			want:     []string{"2024-01-15", "2024-01-22", "2024-01-29", "2024-02-05"},
		},
		{
			name:     "annual",
			due:      "2024-03-10",
			interval: Annual,
			count:    3,
			want:     []string{"2024-03-10", "2025-03-10", "2026-03-10"},
		},
		{
			name:     "single instance",
			due:      "2024-05-05",
			interval: Monthly,
			count:    1,
			want:     []string{"2024-05-05"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandRecurrence(billOn(tt.due), RecurrencePolicy{
				IsRecurring: true,
				Interval:    tt.interval,
				Count:       tt.count,
			})
			assert.Equal(t, tt.want, dateStrings(got))
		})
	}
}

func TestExpandRecurrence_EndDateBound(t *testing.T) {
	end, _ := ParseDate("2024-09-01")
	got := ExpandRecurrence(billOn("2024-01-01"), RecurrencePolicy{
		IsRecurring: true,
		Interval:    Quarterly,
		EndDate:     end,
	})

	assert.Equal(t, []string{"2024-01-01", "2024-04-01", "2024-07-01"}, dateStrings(got))

	// The instance right after the last one would exceed the end date.
	last := got[len(got)-1].DueDate
	next := NextOccurrence(last, Quarterly)
	assert.True(t, next.After(end.Time))
}

func TestExpandRecurrence_EndDateInclusive(t *testing.T) {
	end, _ := ParseDate("2024-03-01")
	got := ExpandRecurrence(billOn("2024-01-01"), RecurrencePolicy{
		IsRecurring: true,
		Interval:    Monthly,
		EndDate:     end,
	})
	assert.Equal(t, []string{"2024-01-01", "2024-02-01", "2024-03-01"}, dateStrings(got))
}

func TestExpandRecurrence_CountTakesPrecedenceOverEndDate(t *testing.T) {
	end, _ := ParseDate("2024-02-01")
	got := ExpandRecurrence(billOn("2024-01-01"), RecurrencePolicy{
		IsRecurring: true,
		Interval:    Monthly,
		Count:       4,
		EndDate:     end,
	})
	assert.Equal(t, []string{"2024-01-01", "2024-02-01", "2024-03-01", "2024-04-01"}, dateStrings(got))
}

func TestExpandRecurrence_RecurringWithoutBound(t *testing.T) {
	got := ExpandRecurrence(billOn("2024-01-01"), RecurrencePolicy{
		IsRecurring: true,
		Interval:    Monthly,
	})
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-01", got[0].DueDate.String())
}

func TestExpandRecurrence_StrictlyIncreasing(t *testing.T) {
	for _, interval := range []Interval{Weekly, Monthly, Quarterly, Annual} {
		got := ExpandRecurrence(billOn("2024-01-31"), RecurrencePolicy{
			IsRecurring: true,
			Interval:    interval,
			Count:       12,
		})
		require.Len(t, got, 12)
		assert.Equal(t, "2024-01-31", got[0].DueDate.String())
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i].DueDate.After(got[i-1].DueDate.Time),
				"interval %s: %s not after %s", interval, got[i].DueDate, got[i-1].DueDate)
		}
	}
}

func TestExpandRecurrence_CopiesBaseFields(t *testing.T) {
	base := billOn("2024-02-10")
	got := ExpandRecurrence(base, RecurrencePolicy{IsRecurring: true, Interval: Monthly, Count: 3})

	require.Len(t, got, 3)
	for _, instance := range got {
		assert.True(t, instance.Amount.Equal(base.Amount))
		assert.Equal(t, base.Description, instance.Description)
		assert.Equal(t, base.PartyName, instance.PartyName)
		assert.Equal(t, base.PaymentMethod, instance.PaymentMethod)
		assert.Equal(t, BillPending, instance.Status)
	}
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		interval Interval
		want     string
	}{
		{"weekly adds seven days", "2024-01-15", Weekly, "2024-01-22"},
		{"weekly across month edge", "2024-01-29", Weekly, "2024-02-05"},
		{"monthly plain", "2024-04-15", Monthly, "2024-05-15"},
		{"monthly year carry", "2024-12-15", Monthly, "2025-01-15"},
		{"monthly rollover leap year", "2024-01-31", Monthly, "2024-03-02"},
		{"monthly rollover non leap", "2025-01-31", Monthly, "2025-03-03"},
		{"quarterly", "2024-01-01", Quarterly, "2024-04-01"},
		{"quarterly rollover", "2024-01-31", Quarterly, "2024-05-01"},
		{"annual", "2024-06-01", Annual, "2025-06-01"},
		{"annual from feb 29", "2024-02-29", Annual, "2025-03-01"},
		{"unknown interval steps monthly", "2024-01-10", Interval("fortnightly"), "2024-02-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, err := ParseDate(tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.want, NextOccurrence(from, tt.interval).String())
		})
	}
}
