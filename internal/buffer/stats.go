package buffer

import (
	"fmt"
	"math"
)

// Stats tracks the running moments of a stream of numbers.
// The mean and variance are updated with welford's method.
type Stats struct {
	count          int
	sum            float64
	min, max       float64
	mean, dSquared float64
}

// NewStats creates a new Stats.
func NewStats() *Stats {
	return &Stats{
		min: math.MaxFloat64,
		max: -math.MaxFloat64,
	}
}

// Push adds another element to the set.
func (s *Stats) Push(v float64) {
	s.count++
	s.sum += v
	diff := (v - s.mean) / float64(s.count)
	mean := s.mean + diff
	s.dSquared += (v - mean) * (v - s.mean)
	s.mean = mean

	if s.min > v {
		s.min = v
	}
	if s.max < v {
		s.max = v
	}
}

// Avg returns the average value of the set.
func (s Stats) Avg() float64 {
	return s.mean
}

// Sum returns the sum of all elements.
func (s Stats) Sum() float64 {
	return s.sum
}

// Count returns the number of elements.
func (s Stats) Count() int {
	return s.count
}

// Min returns the smallest element.
func (s Stats) Min() float64 {
	return s.min
}

// Max returns the largest element.
func (s Stats) Max() float64 {
	return s.max
}

// Variance is the population variance of the set, 0 for an empty one.
func (s Stats) Variance() float64 {
	if s.count == 0 {
		return 0
	}
	return s.dSquared / float64(s.count)
}

// StDev is the standard deviation of the set.
func (s Stats) StDev() float64 {
	return math.Sqrt(s.Variance())
}

// StatsCollector tracks one Stats per feature column.
type StatsCollector struct {
	dim   int
	stats []*Stats
}

// NewStatsCollector creates a new Stats collector.
func NewStatsCollector(dim int) *StatsCollector {
	stats := make([]*Stats, dim)
	for i := 0; i < dim; i++ {
		stats[i] = NewStats()
	}
	return &StatsCollector{
		dim:   dim,
		stats: stats,
	}
}

// Push pushes each value of the row to the corresponding column.
func (sc *StatsCollector) Push(v ...float64) {
	if len(v) != sc.dim {
		panic(fmt.Sprintf("inconsistent dimensions %d vs %d", len(v), sc.dim))
	}
	for i := 0; i < len(sc.stats); i++ {
		sc.stats[i].Push(v[i])
	}
}

// Stats returns the per column stats.
func (sc StatsCollector) Stats() []*Stats {
	return sc.stats
}

// Size returns the number of rows pushed.
func (sc *StatsCollector) Size() int {
	if sc.dim == 0 {
		return 0
	}
	return sc.stats[0].count
}

// Means returns the average of every column.
func (sc StatsCollector) Means() []float64 {
	means := make([]float64, sc.dim)
	for i, s := range sc.stats {
		means[i] = s.Avg()
	}
	return means
}

// Variances returns the variance of every column.
func (sc StatsCollector) Variances() []float64 {
	variances := make([]float64, sc.dim)
	for i, s := range sc.stats {
		variances[i] = s.Variance()
	}
	return variances
}
