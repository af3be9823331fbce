package vectordb

import (
	"math"
	"sort"

	"github.com/viant/embedflow/schema"
)

// Score rates b against the query a; higher is always closer.
// Euclid scores are negated distances.
func Score(distance schema.Distance, a, b []float32) float32 {
	switch distance {
	case schema.Dot:
		return dot(a, b)
	case schema.Euclid:
		return -euclid(a, b)
	default:
		return cosine(a, b)
	}
}

// Rank sorts results by descending score and keeps at most k.
// NaN scores sort last.
func Rank(results []schema.Result, k int) []schema.Result {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Score, results[j].Score
		if isNaN(a) || isNaN(b) {
			return !isNaN(a) && isNaN(b)
		}
		return a > b
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}

func isNaN(f float32) bool { return f != f }

// Norm returns the Euclidean length of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func cosine(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var d, na, nb float64
	for i := 0; i < n; i++ {
		d += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(d / (math.Sqrt(na) * math.Sqrt(nb)))
}

func euclid(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return float32(math.Sqrt(sum))
}
