package util

import (
	"math"
	"testing"
)

func TestNewStats(t *testing.T) {
	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if s.Count != 8 || s.Min != 2 || s.Max != 9 {
		t.Errorf("Expected count 8, min 2, max 9, got %+v", s)
	}
	if s.Mean != 5 {
		t.Errorf("Expected mean 5, got %v", s.Mean)
	}
	if math.Abs(s.StdDeviation-2) > 1e-9 {
		t.Errorf("Expected standard deviation 2, got %v", s.StdDeviation)
	}

	if empty := NewStats(nil); empty != (Stats{}) {
		t.Errorf("Expected zero stats for no samples, got %+v", empty)
	}
}

func TestDistributionStats(t *testing.T) {
	even := NewDistributionStats([]float64{3, 3, 3})
	if even.Imbalance != 1 {
		t.Errorf("Expected imbalance 1 for an even spread, got %v", even.Imbalance)
	}

	skewed := NewDistributionStats([]float64{0, 0, 0, 8})
	if skewed.Imbalance != 4 {
		t.Errorf("Expected imbalance 4, got %v", skewed.Imbalance)
	}

	if zero := NewDistributionStats([]float64{0, 0}); zero.Imbalance != 0 {
		t.Errorf("Expected imbalance 0 without any values, got %v", zero.Imbalance)
	}
}

func TestBucketOf(t *testing.T) {
	tests := []struct {
		size   int
		bucket int
	}{
		{0, 0},
		{64, 0},
		{65, 1},
		{128, 1},
		{129, 2},
		{1024, 4},
		{1 << 40, sizeBuckets - 1},
	}
	for _, tt := range tests {
		if got := bucketOf(tt.size); got != tt.bucket {
			t.Errorf("bucketOf(%d): expected %d, got %d", tt.size, tt.bucket, got)
		}
		lo, hi := bucketBounds(tt.bucket)
		if tt.bucket < sizeBuckets-1 && (tt.size <= lo && tt.size != 0 || tt.size > hi) {
			t.Errorf("Expected %d within the bounds (%d, %d] of bucket %d", tt.size, lo, hi, tt.bucket)
		}
	}
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	if h.MedianEstimate() != 0 || h.AverageSize() != 0 {
		t.Errorf("Expected an empty histogram to report 0")
	}

	for i := 0; i < 90; i++ {
		h.AddSample(100) // bucket (64, 128]
	}
	for i := 0; i < 10; i++ {
		h.AddSample(5000) // bucket (4096, 8192]
	}

	if h.GetCount() != 100 {
		t.Errorf("Expected 100 samples, got %d", h.GetCount())
	}
	if avg := h.AverageSize(); avg != (90*100+10*5000)/100 {
		t.Errorf("Expected exact average, got %d", avg)
	}
	if m := h.MedianEstimate(); m <= 64 || m > 128 {
		t.Errorf("Expected the median within (64, 128], got %d", m)
	}
	if p := h.GetPercentileEstimate(95); p <= 4096 || p > 8192 {
		t.Errorf("Expected p95 within (4096, 8192], got %d", p)
	}
	if p := h.GetPercentileEstimate(101); p != 0 {
		t.Errorf("Expected 0 for an invalid percentile, got %d", p)
	}

	bounds, shares := h.SizeDistribution()
	if bounds[1] != 128 || shares[1] != 90 || shares[7] != 10 {
		t.Errorf("Expected 90%% in (64, 128] and 10%% in (4096, 8192], got %v / %v", bounds, shares)
	}

	h.Reset()
	if h.GetCount() != 0 {
		t.Errorf("Expected reset to clear the samples")
	}
}
