// Package stats implements IntHistogram, the equi-width histogram used to
// estimate predicate selectivity over an integer column.
package stats

import "github.com/heapdb/heapdb/internal/types"

// IntHistogram tracks the distribution of an integer column across a fixed
// number of equal-width buckets, using constant space and constant-time
// updates regardless of how many values are histogrammed.
type IntHistogram struct {
	min, max int32
	width    int32
	count    []int64
	// bucketMin/bucketMax start at each bucket's nominal boundaries and are
	// pulled inward toward the extremes actually observed in that bucket,
	// so an under-full bucket's width shrinks accordingly.
	bucketMin, bucketMax []int32
	total                int64
}

// NewIntHistogram builds a histogram of the given bucket count over
// [min, max].
func NewIntHistogram(buckets int, min, max int32) *IntHistogram {
	if buckets < 1 {
		buckets = 1
	}
	width := (max-min)/int32(buckets) + 1
	h := &IntHistogram{
		min:       min,
		max:       max,
		width:     width,
		count:     make([]int64, buckets),
		bucketMin: make([]int32, buckets),
		bucketMax: make([]int32, buckets),
	}
	for i := 0; i < buckets; i++ {
		h.bucketMin[i] = min + width*int32(i)
		h.bucketMax[i] = min + width*int32(i+1) - 1
	}
	return h
}

func (h *IntHistogram) bucketIndex(v int32) int {
	if v < h.min || v > h.max {
		return -1
	}
	idx := int((v - h.min) / h.width)
	if idx >= len(h.count) {
		idx = len(h.count) - 1
	}
	return idx
}

func (h *IntHistogram) bucketWidth(idx int) int64 {
	return int64(h.bucketMax[idx]-h.bucketMin[idx]) + 1
}

// AddValue records one observation of v.
func (h *IntHistogram) AddValue(v int32) {
	idx := h.bucketIndex(v)
	if idx < 0 {
		return
	}
	first := h.count[idx] == 0
	h.count[idx]++
	h.total++
	if first || v < h.bucketMin[idx] {
		h.bucketMin[idx] = v
	}
	if first || v > h.bucketMax[idx] {
		h.bucketMax[idx] = v
	}
}

// EstimateSelectivity returns the estimated fraction of histogrammed
// values for which `field op v` holds.
func (h *IntHistogram) EstimateSelectivity(op types.CompareOp, v int32) float64 {
	if op == types.Like {
		return 1.0
	}
	if h.total == 0 {
		return 0
	}

	if v < h.min {
		switch op {
		case types.GreaterThan, types.GreaterThanOrEqual, types.NotEquals:
			return 1.0
		default:
			return 0.0
		}
	}
	if v > h.max {
		switch op {
		case types.LessThan, types.LessThanOrEqual, types.NotEquals:
			return 1.0
		default:
			return 0.0
		}
	}

	idx := h.bucketIndex(v)
	total := float64(h.total)

	switch op {
	case types.Equals:
		return float64(h.count[idx]) / total
	case types.NotEquals:
		return 1.0 - float64(h.count[idx])/total
	case types.LessThan, types.LessThanOrEqual:
		var sum int64
		for i := 0; i < idx; i++ {
			sum += h.count[i]
		}
		frac := float64(v - h.bucketMin[idx])
		if op == types.LessThanOrEqual {
			frac++
		}
		w := float64(h.bucketWidth(idx))
		if frac > w {
			frac = w
		}
		if frac < 0 {
			frac = 0
		}
		return (float64(sum) + frac/w*float64(h.count[idx])) / total
	case types.GreaterThan, types.GreaterThanOrEqual:
		var sum int64
		for i := idx + 1; i < len(h.count); i++ {
			sum += h.count[i]
		}
		frac := float64(h.bucketMax[idx] - v)
		if op == types.GreaterThanOrEqual {
			frac++
		}
		w := float64(h.bucketWidth(idx))
		if frac > w {
			frac = w
		}
		if frac < 0 {
			frac = 0
		}
		return (float64(sum) + frac/w*float64(h.count[idx])) / total
	default:
		return 0
	}
}
