package util

import (
	"math"
	"math/bits"
)

// ----------------------------------------------------------------------------
// Summary statistics
// ----------------------------------------------------------------------------

// Stats summarizes a series of samples
type Stats struct {
	Count        int     `json:"count"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	StdDeviation float64 `json:"std_deviation"`
}

// NewStats computes count, extremes, mean and population standard deviation
// of values
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	s := Stats{Count: len(values), Min: values[0], Max: values[0]}
	var sum float64
	for _, v := range values {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(s.Count)

	var squares float64
	for _, v := range values {
		squares += (v - s.Mean) * (v - s.Mean)
	}
	s.StdDeviation = math.Sqrt(squares / float64(s.Count))
	return s
}

// DistributionStats describes how a quantity is spread over the objects of
// a database, e.g. the number of properties per object
type DistributionStats struct {
	Stats
	// Imbalance is max / mean: 1 for a perfectly even spread, large when a
	// few objects carry most of the quantity
	Imbalance float64 `json:"imbalance"`
}

// NewDistributionStats computes the distribution of per-object values
func NewDistributionStats(perObject []float64) DistributionStats {
	stats := NewStats(perObject)

	var imbalance float64
	if stats.Mean > 0 {
		imbalance = stats.Max / stats.Mean
	}
	return DistributionStats{
		Stats:     stats,
		Imbalance: imbalance,
	}
}

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

const (
	// minSizeShift is the upper bound (as a power of two) of the first bucket
	minSizeShift = 6 // 64 B
	// sizeBuckets covers 64 B up to 16 MB; the last bucket takes everything above
	sizeBuckets = 20
)

// SizeHistogram counts memory sizes of property trees in power-of-two
// buckets. Bucket i holds sizes in (2^(i+5), 2^(i+6)], bucket 0 everything
// up to 64 bytes.
//
// Thread-safety: Not safe for concurrent use. A histogram is built by one
// goroutine and read afterwards.
type SizeHistogram struct {
	buckets [sizeBuckets]int64
	count   int64
	sum     int64
}

// NewSizeHistogram creates an empty histogram
func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{}
}

// bucketOf returns the bucket index of size
func bucketOf(size int) int {
	if size <= 1<<minSizeShift {
		return 0
	}
	i := bits.Len(uint(size-1)) - minSizeShift
	if i >= sizeBuckets {
		return sizeBuckets - 1
	}
	return i
}

// bucketBounds returns the exclusive lower and inclusive upper bound of bucket i
func bucketBounds(i int) (int, int) {
	if i == 0 {
		return 0, 1 << minSizeShift
	}
	return 1 << (i + minSizeShift - 1), 1 << (i + minSizeShift)
}

// AddSample records one size in bytes
func (h *SizeHistogram) AddSample(size int) {
	if size < 0 {
		size = 0
	}
	h.buckets[bucketOf(size)]++
	h.count++
	h.sum += int64(size)
}

// GetCount returns the number of samples
func (h *SizeHistogram) GetCount() int64 {
	return h.count
}

// AverageSize returns the exact mean of all samples
func (h *SizeHistogram) AverageSize() int {
	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// MedianEstimate estimates the median size
func (h *SizeHistogram) MedianEstimate() int {
	return h.GetPercentileEstimate(50)
}

// GetPercentileEstimate estimates the given percentile (0-100) by linear
// interpolation inside the bucket that contains it. Out of range
// percentiles and an empty histogram yield 0.
func (h *SizeHistogram) GetPercentileEstimate(percentile int) int {
	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := int64(math.Ceil(float64(h.count) * float64(percentile) / 100))
	if target == 0 {
		target = 1
	}

	var seen int64
	for i, n := range h.buckets {
		if n == 0 || seen+n < target {
			seen += n
			continue
		}
		lo, hi := bucketBounds(i)
		if i == sizeBuckets-1 {
			// open ended
			return hi
		}
		frac := float64(target-seen) / float64(n)
		return lo + int(frac*float64(hi-lo))
	}
	return h.AverageSize()
}

// Reset clears all samples
func (h *SizeHistogram) Reset() {
	*h = SizeHistogram{}
}

// SizeDistribution returns the upper bound of every bucket and the share
// of samples (in percent) that fell into it
func (h *SizeHistogram) SizeDistribution() ([]int, []float64) {
	bounds := make([]int, sizeBuckets)
	shares := make([]float64, sizeBuckets)
	for i, n := range h.buckets {
		_, bounds[i] = bucketBounds(i)
		if h.count > 0 {
			shares[i] = float64(n) * 100 / float64(h.count)
		}
	}
	return bounds, shares
}
