package buffer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Push(t *testing.T) {

	l := 1001

	type test struct {
		transform func(i int) float64
		avg       float64
		count     int
		stDev     float64
		variance  float64
		sum       float64
		min       float64
		max       float64
	}

	tests := map[string]test{
		"increasing": {
			transform: func(i int) float64 {
				return float64(i)
			},
			avg:      500,
			count:    l,
			sum:      float64(l) * 500,
			stDev:    289,
			variance: 83500,
			min:      0,
			max:      1000,
		},
		"centered": {
			transform: func(i int) float64 {
				return float64(-1*l/2) + float64(i)
			},
			avg:   0,
			count: l,
			sum:   0,
			// shifting keeps the spread
			stDev:    289,
			variance: 83500,
			min:      -500,
			max:      500,
		},
		"abs": {
			transform: func(i int) float64 {
				return math.Abs(-1*float64(l/2) + float64(i))
			},
			avg:      250,
			count:    l,
			sum:      250500,
			stDev:    289 / 2,
			variance: 83500 / 4,
			min:      0,
			max:      500,
		},
		"constant": {
			transform: func(i int) float64 {
				return -3
			},
			avg:      -3,
			count:    l,
			sum:      -3 * float64(l),
			stDev:    0,
			variance: 0,
			min:      -3,
			max:      -3,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			stats := NewStats()
			for i := 0; i < l; i++ {
				stats.Push(tt.transform(i))
			}
			assert.Equal(t, tt.avg, math.Round(stats.Avg()))
			assert.Equal(t, tt.count, stats.Count())
			assert.Equal(t, tt.sum, math.Round(stats.Sum()))
			assert.Equal(t, tt.stDev, math.Round(stats.StDev()))
			assert.Equal(t, tt.variance, math.Round(stats.Variance()))
			assert.Equal(t, tt.min, stats.Min())
			assert.Equal(t, tt.max, stats.Max())
		})
	}
}

func TestStats_Empty(t *testing.T) {
	stats := NewStats()
	assert.Equal(t, 0, stats.Count())
	assert.Equal(t, 0.0, stats.Variance())
}

func TestStatsCollector(t *testing.T) {
	sc := NewStatsCollector(2)
	assert.Equal(t, 0, sc.Size())
	sc.Push(1, 10)
	sc.Push(3, 10)
	sc.Push(5, 10)
	assert.Equal(t, 3, sc.Size())
	assert.Equal(t, []float64{3, 10}, sc.Means())
	assert.InDelta(t, 8.0/3.0, sc.Variances()[0], 1e-9)
	assert.Equal(t, 0.0, sc.Variances()[1])
	assert.Len(t, sc.Stats(), 2)
	assert.Panics(t, func() {
		sc.Push(1)
	})
}
