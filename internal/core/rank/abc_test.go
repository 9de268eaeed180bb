package rank

import (
	"testing"

	"github.com/salescope-lab/salescope/internal/core/sales"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestClassForBoundaries(t *testing.T) {
	limitA := decimal.NewFromFloat(DefaultClassALimit)
	limitB := decimal.NewFromFloat(DefaultClassBLimit)

	tests := []struct {
		cumulative string
		want       Class
	}{
		{cumulative: "10", want: ClassA},
		{cumulative: "80", want: ClassA},    // exactly at the A limit stays A
		{cumulative: "80.01", want: ClassB}, // just past it is B
		{cumulative: "95", want: ClassB},    // exactly at the B limit stays B
		{cumulative: "95.01", want: ClassC},
		{cumulative: "100", want: ClassC},
	}

	for _, tc := range tests {
		got := classFor(decimal.RequireFromString(tc.cumulative), limitA, limitB)
		require.Equal(t, tc.want, got, "cumulative=%s", tc.cumulative)
	}
}

func abcLine(product, periodLabel string, total float64) sales.Line {
	return sales.Line{
		StoreID: "1",
		Period:  periodLabel,
		Product: product,
		Total:   decimal.NewFromFloat(total),
	}
}

func TestClassifyABC(t *testing.T) {
	lines := []sales.Line{
		abcLine("LEADER", "2024-01", 50),
		abcLine("LEADER", "2024-02", 30), // all-period total 80 → cumulative 80% → A
		abcLine("MIDDLE", "2024-01", 15), // cumulative 95% → B
		abcLine("TAIL", "2024-02", 5),    // cumulative 100% → C
	}

	items := ClassifyABC(lines, DefaultClassALimit, DefaultClassBLimit)
	require.Len(t, items, 3)

	require.Equal(t, "LEADER", items[0].Product)
	require.Equal(t, ClassA, items[0].Class)
	require.True(t, decimal.NewFromInt(80).Equal(items[0].Total))
	require.True(t, decimal.NewFromInt(80).Equal(items[0].CumulativeShare))

	require.Equal(t, "MIDDLE", items[1].Product)
	require.Equal(t, ClassB, items[1].Class)
	require.True(t, decimal.NewFromInt(95).Equal(items[1].CumulativeShare))

	require.Equal(t, "TAIL", items[2].Product)
	require.Equal(t, ClassC, items[2].Class)

	// History carries the per-period breakdown.
	require.True(t, decimal.NewFromInt(50).Equal(items[0].History["2024-01"]))
	require.True(t, decimal.NewFromInt(30).Equal(items[0].History["2024-02"]))
}

func TestClassifyABCZeroRevenue(t *testing.T) {
	require.Empty(t, ClassifyABC(nil, DefaultClassALimit, DefaultClassBLimit))
}

func TestClassifyABCDeterministicTies(t *testing.T) {
	lines := []sales.Line{
		abcLine("B", "2024-01", 10),
		abcLine("A", "2024-01", 10),
	}
	first := ClassifyABC(lines, DefaultClassALimit, DefaultClassBLimit)
	second := ClassifyABC(lines, DefaultClassALimit, DefaultClassBLimit)
	require.Equal(t, first, second)
	require.Equal(t, "A", first[0].Product)
}
