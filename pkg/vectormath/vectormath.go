// Package vectormath provides the similarity primitives used by the
// recommendation engine and the duplicate detector: cosine similarity,
// pairwise similarity matrices, and unit normalisation over float32
// embeddings.
package vectormath

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Cosine returns the cosine similarity of a and b in [-1, 1].
//
// If either vector has zero norm the result is 0 by convention, with no
// error: a zero embedding carries no direction to compare against.
// Dimension mismatches are programming errors and are reported.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectormath: dimension mismatch %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vectormath: empty vectors")
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Clamp accumulated float error so callers can rely on the contract.
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// PairwiseMatrix computes the symmetric cosine similarity matrix of vecs.
// Entry [i][j] is Cosine(vecs[i], vecs[j]); the diagonal is 1 except for
// zero-norm vectors, whose entire row (including the diagonal) is 0.
func PairwiseMatrix(vecs [][]float32) ([][]float64, error) {
	n := len(vecs)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		// The diagonal is exactly 1 by definition; going through Cosine
		// can land an ulp short of 1 via sqrt rounding.
		if Norm(vecs[i]) != 0 {
			m[i][i] = 1
		}
		for j := i + 1; j < n; j++ {
			sim, err := Cosine(vecs[i], vecs[j])
			if err != nil {
				return nil, fmt.Errorf("vectormath: pair (%d,%d): %w", i, j, err)
			}
			m[i][j] = sim
			m[j][i] = sim
		}
	}
	return m, nil
}

// Norm returns the euclidean norm of v.
func Norm(v []float32) float64 {
	f := toFloat64(v)
	return floats.Norm(f, 2)
}

// Normalize returns a unit-norm copy of v.  A zero-norm vector is returned
// unchanged (as a copy); callers treat it as "no direction".
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	n := Norm(v)
	if n == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}

// EuclideanDistance returns the L2 distance between a and b.  Over
// unit-normalised vectors this is monotone in cosine similarity:
// d² = 2 − 2·cos, which lets density clustering in euclidean space stand in
// for cosine-space clustering.
func EuclideanDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectormath: dimension mismatch %d vs %d", len(a), len(b))
	}
	fa, fb := toFloat64(a), toFloat64(b)
	return floats.Distance(fa, fb, 2), nil
}

// CosineToUnitDistance converts a cosine similarity into the equivalent
// euclidean distance between unit vectors.
func CosineToUnitDistance(cos float64) float64 {
	d2 := 2 - 2*cos
	if d2 < 0 {
		d2 = 0
	}
	return math.Sqrt(d2)
}

// MeanOffDiagonal returns the mean of the strictly upper-triangular entries
// of a square matrix, i.e. the mean pairwise similarity of a group.  For a
// matrix smaller than 2×2 it returns 0.
func MeanOffDiagonal(m [][]float64) float64 {
	n := len(m)
	if n < 2 {
		return 0
	}
	var sum float64
	var count int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sum += m[i][j]
			count++
		}
	}
	return sum / float64(count)
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
