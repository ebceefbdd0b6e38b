package gopng

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// applyFilterForTest is the forward direction of each predictor, used only
// to build filtered fixtures for reverseFilters/reverseFiltersParallel to
// undo (the decoder itself never needs an encoder).
func applyFilterForTest(filterType byte, src, above []byte, bpp int) []byte {
	out := make([]byte, len(src))
	for j := range src {
		var left, up, upLeft int
		if j >= bpp {
			left = int(src[j-bpp])
		}
		if above != nil {
			up = int(above[j])
		}
		if above != nil && j >= bpp {
			upLeft = int(above[j-bpp])
		}
		switch filterType {
		case 0:
			out[j] = src[j]
		case 1:
			out[j] = src[j] - byte(left)
		case 2:
			out[j] = src[j] - byte(up)
		case 3:
			out[j] = src[j] - byte((left+up)/2)
		case 4:
			out[j] = src[j] - byte(paethPredictor(left, up, upLeft))
		}
	}
	return out
}

func buildFilteredFixture(rows [][]byte, filterTypes []byte, bpp int) []byte {
	scanlineLen := len(rows[0])
	out := make([]byte, 0, (1+scanlineLen)*len(rows))
	var above []byte
	for i, row := range rows {
		ft := filterTypes[i]
		out = append(out, ft)
		out = append(out, applyFilterForTest(ft, row, above, bpp)...)
		above = row
	}
	return out
}

func TestReverseFiltersRoundTrip(t *testing.T) {
	width, channels, bitDepth := 4, 3, 8
	bpp := bytesPerPixelStride(channels, bitDepth)
	rows := [][]byte{
		{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120},
		{11, 19, 31, 39, 51, 59, 71, 79, 91, 99, 111, 119},
		{255, 0, 128, 64, 200, 5, 7, 250, 3, 99, 1, 254},
	}
	for _, filterTypes := range [][]byte{
		{0, 0, 0},
		{1, 1, 1},
		{0, 2, 2},
		{0, 3, 3},
		{0, 4, 4},
		{1, 2, 3},
	} {
		filtered := buildFilteredFixture(rows, filterTypes, bpp)
		recovered, err := reverseFilters(filtered, width, len(rows), channels, bitDepth)
		require.NoError(t, err)
		for i, row := range rows {
			require.Equal(t, row, recovered[i*12:(i+1)*12], "row %d filter %d", i, filterTypes[i])
		}
	}
}

func TestReverseFiltersParallelMatchesSequential(t *testing.T) {
	width, channels, bitDepth := 4, 3, 8
	bpp := bytesPerPixelStride(channels, bitDepth)
	rows := make([][]byte, 20)
	filterTypes := make([]byte, 20)
	for i := range rows {
		row := make([]byte, width*channels)
		for j := range row {
			row[j] = byte((i*31 + j*7) % 256)
		}
		rows[i] = row
		filterTypes[i] = byte(i % 5)
	}
	filtered := buildFilteredFixture(rows, filterTypes, bpp)

	sequential, err := reverseFilters(filtered, width, len(rows), channels, bitDepth)
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []int
	parallel, err := reverseFiltersParallel(filtered, width, len(rows), channels, bitDepth, 3, func(row int, recovered []byte) {
		mu.Lock()
		seen = append(seen, row)
		mu.Unlock()
	})
	require.NoError(t, err)
	require.Equal(t, sequential, parallel)
	require.Len(t, seen, len(rows))
}

func TestReverseFiltersRejectsUnknownFilterType(t *testing.T) {
	filtered := []byte{5, 1, 2, 3, 4}
	_, err := reverseFilters(filtered, 4, 1, 1, 8)
	require.Error(t, err)
}

func TestReverseFiltersRejectsTruncatedInput(t *testing.T) {
	_, err := reverseFilters([]byte{0, 1, 2}, 4, 1, 1, 8)
	require.Error(t, err)
}

func TestPaethPredictorTieBreak(t *testing.T) {
	// a==b==c: p=a, all distances equal, a wins.
	require.Equal(t, 5, paethPredictor(5, 5, 5))
}
