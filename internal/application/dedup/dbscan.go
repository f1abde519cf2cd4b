package dedup

import (
	"github.com/turtacn/ScenarioIQ/pkg/vectormath"
)

// dbscanNoise marks points that belong to no cluster.
const dbscanNoise = -1

// dbscan runs density-based clustering over unit-normalised vectors and
// returns a cluster label per point; noise points get dbscanNoise.  eps is
// the neighbourhood radius in euclidean distance, minPts the minimum
// neighbourhood size (the point itself included) for a core point.
//
// The classic quadratic formulation is used deliberately: corpora here are
// thousands of scenarios, not millions of points, and the O(n²) distance
// pass is also what feeds the pairwise similarity refinement afterwards.
func dbscan(vecs [][]float32, eps float64, minPts int) ([]int, error) {
	n := len(vecs)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = dbscanNoise
	}
	if n == 0 {
		return labels, nil
	}

	dist, err := distanceMatrix(vecs)
	if err != nil {
		return nil, err
	}

	visited := make([]bool, n)
	next := 0
	for p := 0; p < n; p++ {
		if visited[p] {
			continue
		}
		visited[p] = true

		neighbors := regionQuery(dist, p, eps)
		if len(neighbors) < minPts {
			continue // noise unless a later cluster absorbs it
		}

		labels[p] = next
		expandCluster(dist, labels, visited, neighbors, next, eps, minPts)
		next++
	}
	return labels, nil
}

// expandCluster grows cluster id from the seed neighborhood, claiming
// density-reachable points.  Border points already claimed by another
// cluster are left alone.
func expandCluster(dist [][]float64, labels []int, visited []bool, seeds []int, id int, eps float64, minPts int) {
	for i := 0; i < len(seeds); i++ {
		q := seeds[i]
		if !visited[q] {
			visited[q] = true
			reachable := regionQuery(dist, q, eps)
			if len(reachable) >= minPts {
				seeds = append(seeds, reachable...)
			}
		}
		if labels[q] == dbscanNoise {
			labels[q] = id
		}
	}
}

// regionQuery returns the indices within eps of point p, p included.
func regionQuery(dist [][]float64, p int, eps float64) []int {
	var out []int
	for q, d := range dist[p] {
		if d <= eps {
			out = append(out, q)
		}
	}
	return out
}

// distanceMatrix computes the symmetric euclidean distance matrix of vecs.
func distanceMatrix(vecs [][]float32) ([][]float64, error) {
	n := len(vecs)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, err := vectormath.EuclideanDistance(vecs[i], vecs[j])
			if err != nil {
				return nil, err
			}
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m, nil
}
