package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/dudk/clipchain/signal"
	"github.com/stretchr/testify/assert"
)

func TestInterIntsAsFloat64(t *testing.T) {
	tests := []struct {
		ints        []int
		numChannels int
		bitDepth    signal.BitDepth
		expected    [][]float64
	}{
		{
			ints:        []int{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2},
			numChannels: 2,
			expected: [][]float64{
				{1, 1, 1, 1, 1, 1, 1, 1},
				{2, 2, 2, 2, 2, 2, 2, 2},
			},
		},
		{
			ints:        []int{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1},
			numChannels: 2,
			expected: [][]float64{
				{1, 1, 1, 1, 1, 1, 1, 1},
				{2, 2, 2, 2, 2, 2, 2, 0},
			},
		},
		{
			ints:        []int{math.MaxInt16, math.MaxInt16 * 2},
			numChannels: 2,
			expected: [][]float64{
				{1},
				{2},
			},
			bitDepth: signal.BitDepth16,
		},
		{
			ints:     nil,
			expected: nil,
		},
		{
			ints:     []int{1, 2, 3},
			expected: nil,
		},
		{
			ints:        []int{1, 2, 3, 4},
			numChannels: 5,
			expected: [][]float64{
				{1},
				{2},
				{3},
				{4},
				{0},
			},
		},
	}

	for _, test := range tests {
		ints := signal.InterInt{
			Data:        test.ints,
			NumChannels: test.numChannels,
			BitDepth:    test.bitDepth,
		}
		result := ints.AsFloat64()
		assert.Equal(t, len(test.expected), len(result))
		for i := range test.expected {
			for j, val := range test.expected[i] {
				assert.Equal(t, val, result[i][j])
			}
		}
	}
}

func TestFloat64AsInterInt(t *testing.T) {
	tests := []struct {
		floats   [][]float64
		bitDepth signal.BitDepth
		expected []int
	}{
		{
			floats: [][]float64{
				{1, 1, 1, 1, 1, 1, 1, 1},
				{2, 2, 2, 2, 2, 2, 2, 2},
			},
			expected: []int{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2},
		},
		{
			floats: [][]float64{
				{1, 1, 1, 1, 1, 1, 1, 1},
				{2, 2, 2, 2, 2, 2},
			},
			expected: []int{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 0, 1, 0},
		},
		{
			floats: [][]float64{
				{1},
				{2},
			},
			bitDepth: signal.BitDepth16,
			expected: []int{1 * (math.MaxInt16 - 1), 2 * (math.MaxInt16 - 1)},
		},
		{
			floats:   nil,
			expected: nil,
		},
		{
			floats:   [][]float64{},
			expected: nil,
		},
		{
			floats: [][]float64{
				{},
				{},
			},
			expected: []int{},
		},
		{
			floats: [][]float64{
				{1},
				{2},
				{3},
				{4},
				{5},
			},
			expected: []int{1, 2, 3, 4, 5},
		},
	}

	for _, test := range tests {
		floats := signal.Float64(test.floats)
		ints := floats.AsInterInt(test.bitDepth)
		assert.Equal(t, len(test.expected), len(ints))
		for i := range test.expected {
			assert.Equal(t, test.expected[i], ints[i])
		}
	}
}

func TestWindow(t *testing.T) {
	floats := signal.Float64{
		{0, 1, 2, 3, 4},
		{5, 6, 7, 8, 9},
	}
	view := make(signal.Float64, 0, 2)
	w := floats.Window(view, 1, 3)
	assert.Equal(t, signal.Float64{{1, 2}, {6, 7}}, w)

	// view shares memory with the underlying signal
	w.Scale(10)
	assert.Equal(t, []float64{0, 10, 20, 3, 4}, floats[0])
	assert.Equal(t, []float64{5, 60, 70, 8, 9}, floats[1])

	// small view is replaced
	w = floats.Window(nil, 4, 5)
	assert.Equal(t, signal.Float64{{4}, {9}}, w)
}

func TestCopyMixClear(t *testing.T) {
	tests := []struct {
		description string
		source      signal.Float64
		dest        signal.Float64
		copied      int
		expected    signal.Float64
		mixed       signal.Float64
	}{
		{
			description: "equal sizes",
			source:      signal.Float64{{1, 2}, {3, 4}},
			dest:        signal.EmptyFloat64(2, 2),
			copied:      2,
			expected:    signal.Float64{{1, 2}, {3, 4}},
			mixed:       signal.Float64{{2, 4}, {6, 8}},
		},
		{
			description: "shorter destination",
			source:      signal.Float64{{1, 2, 3}},
			dest:        signal.EmptyFloat64(1, 2),
			copied:      2,
			expected:    signal.Float64{{1, 2}},
			mixed:       signal.Float64{{2, 4}},
		},
		{
			description: "destination with more channels",
			source:      signal.Float64{{1}},
			dest:        signal.EmptyFloat64(2, 1),
			copied:      1,
			expected:    signal.Float64{{1}, {0}},
			mixed:       signal.Float64{{2}, {0}},
		},
	}
	for _, test := range tests {
		assert.Equal(t, test.copied, test.source.CopyTo(test.dest), test.description)
		assert.Equal(t, test.expected, test.dest, test.description)
		test.dest.Mix(test.source)
		assert.Equal(t, test.mixed, test.dest, test.description)
		test.dest.Clear()
		assert.Equal(t, signal.EmptyFloat64(test.dest.NumChannels(), test.dest.Size()), test.dest, test.description)
	}
}

func TestSlice(t *testing.T) {
	floats := signal.Float64{{0, 1, 2, 3}, {4, 5, 6, 7}}
	assert.Equal(t, signal.Float64{{2, 3}, {6, 7}}, floats.Slice(2, 10))
	assert.Nil(t, floats.Slice(4, 1))
	assert.Nil(t, floats.Slice(-1, 1))

	appended := signal.Float64(nil).Append(floats).Append(floats.Slice(0, 1))
	assert.Equal(t, signal.Float64{{0, 1, 2, 3, 0}, {4, 5, 6, 7, 4}}, appended)
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(48000, 48000))
	assert.Equal(t, time.Duration(0), signal.DurationOf(0, 48000))
}
