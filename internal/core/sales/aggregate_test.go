package sales

import (
	"testing"
	"time"

	"github.com/salescope-lab/salescope/internal/core/period"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCanonicalProduct(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "  picanha angus ", want: "PICANHA ANGUS"},
		{raw: "Picanha   Angus", want: "PICANHA ANGUS"},
		{raw: "PICANHA\tANGUS", want: "PICANHA ANGUS"},
		{raw: "coca-cola 350ml", want: "COCA-COLA 350ML"},
		{raw: "   ", want: ""},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, CanonicalProduct(tc.raw))
	}
}

func rec(store, product, amount string, day int) Record {
	return Record{
		StoreID: store,
		Product: product,
		Amount:  decimal.RequireFromString(amount),
		Date:    time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestAggregateGroupsAndSums(t *testing.T) {
	records := []Record{
		rec("1", "PICANHA", "100.50", 3),
		rec("1", "PICANHA", "49.50", 20),
		rec("1", "CHOPP", "10", 5),
		rec("2", "PICANHA", "7.25", 5),
		rec("1", "PICANHA", "200", 1), // april boundary handled below
	}
	records[4].Date = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	lines := Aggregate(records, period.Monthly)
	require.Len(t, lines, 4)

	byKey := make(map[[3]string]decimal.Decimal)
	for _, l := range lines {
		byKey[[3]string{l.StoreID, l.Period, l.Product}] = l.Total
	}

	require.True(t, decimal.RequireFromString("150").Equal(byKey[[3]string{"1", "2024-03", "PICANHA"}]))
	require.True(t, decimal.RequireFromString("10").Equal(byKey[[3]string{"1", "2024-03", "CHOPP"}]))
	require.True(t, decimal.RequireFromString("7.25").Equal(byKey[[3]string{"2", "2024-03", "PICANHA"}]))
	require.True(t, decimal.RequireFromString("200").Equal(byKey[[3]string{"1", "2024-04", "PICANHA"}]))
}

// Conservation: group totals must equal the sum of contributing records.
func TestAggregateConservation(t *testing.T) {
	records := []Record{
		rec("1", "A", "0.1", 1),
		rec("1", "A", "0.2", 2),
		rec("1", "B", "33.33", 3),
		rec("1", "B", "66.67", 4),
	}

	input := decimal.Zero
	for _, r := range records {
		input = input.Add(r.Amount)
	}

	lines := Aggregate(records, period.Monthly)
	output := decimal.Zero
	for _, l := range lines {
		output = output.Add(l.Total)
	}

	require.True(t, input.Equal(output), "input=%s output=%s", input, output)
}

func TestAggregateDeterministicOrder(t *testing.T) {
	records := []Record{
		rec("2", "B", "1", 1),
		rec("1", "B", "1", 1),
		rec("1", "A", "1", 1),
	}
	first := Aggregate(records, period.Monthly)
	second := Aggregate(records, period.Monthly)
	require.Equal(t, first, second)
	require.Equal(t, "1", first[0].StoreID)
	require.Equal(t, "A", first[0].Product)
}

func TestHelpers(t *testing.T) {
	lines := Aggregate([]Record{
		rec("2", "A", "1", 1),
		rec("1", "A", "1", 1),
		rec("1", "A", "1", 15),
	}, period.Daily)

	require.Equal(t, []string{"1", "2"}, Stores(lines))
	require.Equal(t, []string{"2024-03-01", "2024-03-15"}, Periods(lines))
	require.Len(t, FilterStore(lines, "1"), 2)
	require.Len(t, FilterPeriod(lines, "2024-03-01"), 2)
}
