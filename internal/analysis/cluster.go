package analysis

import (
	"errors"
	"math/rand/v2"

	"github.com/pavelanni/classinsight/internal/model"
)

const maxKMeansIterations = 300

// Clusterer partitions a question's answers into groups of similar responses.
// The seed is explicit so the same input always yields the same partition.
type Clusterer struct {
	MaxClusters int
	Seed        uint64
	Restarts    int
}

// NewClusterer returns a Clusterer with the default bounds, seed and restarts.
func NewClusterer() *Clusterer {
	return &Clusterer{
		MaxClusters: DefaultMaxClusters,
		Seed:        DefaultSeed,
		Restarts:    DefaultRestarts,
	}
}

// Cluster partitions answers. The union of the returned clusters is exactly
// the input multiset; no cluster is empty.
//
// Fewer than two answers produce no clusters. Identical answers, an empty
// vocabulary or fewer than two possible groups produce a single cluster.
// When k-means collapses to one group the answers are split positionally
// with SplitIntoGroups. That split ignores values, so copies of one answer
// can then land in different clusters; this happens when distinct strings
// vectorize identically, e.g. "Cats purr" and "cats purr!".
func (c *Clusterer) Cluster(answers []string) []model.Cluster {
	if len(answers) < 2 {
		return []model.Cluster{}
	}
	if allIdentical(answers) {
		return []model.Cluster{cloneCluster(answers)}
	}

	vz, err := Vectorize(answers)
	if errors.Is(err, ErrEmptyVocabulary) {
		return []model.Cluster{cloneCluster(answers)}
	}

	k := min(c.maxClusters(), countDistinct(answers), len(answers))
	if k < 2 {
		return []model.Cluster{cloneCluster(answers)}
	}

	labels := c.kmeans(vz.Vectors, k)
	clusters := groupByLabel(answers, labels)
	if len(clusters) == 1 {
		return SplitIntoGroups(answers, c.maxClusters())
	}
	return clusters
}

func (c *Clusterer) maxClusters() int {
	if c.MaxClusters <= 0 {
		return DefaultMaxClusters
	}
	return c.MaxClusters
}

// SplitIntoGroups divides answers into n contiguous chunks of equal size, the
// remainder going to the last chunk. With n or fewer answers every answer
// becomes its own group.
func SplitIntoGroups(answers []string, n int) []model.Cluster {
	if n <= 0 {
		n = 1
	}
	if len(answers) <= n {
		groups := make([]model.Cluster, 0, len(answers))
		for _, a := range answers {
			groups = append(groups, model.Cluster{a})
		}
		return groups
	}

	size := len(answers) / n
	groups := make([]model.Cluster, 0, n)
	for i := 0; i < n; i++ {
		start := i * size
		end := start + size
		if i == n-1 {
			end = len(answers)
		}
		if start < end {
			groups = append(groups, cloneCluster(answers[start:end]))
		}
	}
	return groups
}

// kmeans runs Lloyd's algorithm from several k-means++ initialisations and
// returns the labels of the run with the lowest inertia.
func (c *Clusterer) kmeans(points []Vector, k int) []int {
	restarts := c.Restarts
	if restarts <= 0 {
		restarts = 1
	}
	rng := rand.New(rand.NewPCG(c.Seed, c.Seed))

	var bestLabels []int
	bestInertia := -1.0
	for r := 0; r < restarts; r++ {
		centroids := seedCentroids(points, k, rng)
		labels, inertia := lloyd(points, centroids)
		if bestInertia < 0 || inertia < bestInertia {
			bestLabels, bestInertia = labels, inertia
		}
	}
	return bestLabels
}

// seedCentroids picks k initial centroids with k-means++ weighting.
func seedCentroids(points []Vector, k int, rng *rand.Rand) []Vector {
	centroids := make([]Vector, 0, k)
	centroids = append(centroids, cloneVector(points[rng.IntN(len(points))]))

	weights := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		lastPositive := -1
		for i, p := range points {
			_, d := nearest(p, centroids)
			weights[i] = d
			total += d
			if d > 0 {
				lastPositive = i
			}
		}

		idx := rng.IntN(len(points))
		if total > 0 {
			idx = lastPositive
			target := rng.Float64() * total
			for i, w := range weights {
				if target < w {
					idx = i
					break
				}
				target -= w
			}
		}
		centroids = append(centroids, cloneVector(points[idx]))
	}
	return centroids
}

func lloyd(points []Vector, centroids []Vector) ([]int, float64) {
	labels := make([]int, len(points))
	dim := len(points[0])

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, p := range points {
			best, _ := nearest(p, centroids)
			if iter == 0 || labels[i] != best {
				changed = true
			}
			labels[i] = best
		}
		if !changed {
			break
		}

		sums := make([]Vector, len(centroids))
		counts := make([]int, len(centroids))
		for i, p := range points {
			l := labels[i]
			if sums[l] == nil {
				sums[l] = make(Vector, dim)
			}
			for j, v := range p {
				sums[l][j] += v
			}
			counts[l]++
		}
		// A centroid that lost all its points stays where it was.
		for ci := range centroids {
			if counts[ci] == 0 {
				continue
			}
			for j := range sums[ci] {
				sums[ci][j] /= float64(counts[ci])
			}
			centroids[ci] = sums[ci]
		}
	}

	var inertia float64
	for i, p := range points {
		best, d := nearest(p, centroids)
		labels[i] = best
		inertia += d
	}
	return labels, inertia
}

// nearest returns the index of the closest centroid and the squared distance.
// Ties go to the lowest index.
func nearest(p Vector, centroids []Vector) (int, float64) {
	best, bestDist := 0, -1.0
	for ci, c := range centroids {
		d := squaredDistance(p, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = ci, d
		}
	}
	return best, bestDist
}

func squaredDistance(a, b Vector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// groupByLabel builds clusters ordered by the first appearance of each label.
func groupByLabel(answers []string, labels []int) []model.Cluster {
	index := make(map[int]int)
	var clusters []model.Cluster
	for i, l := range labels {
		ci, ok := index[l]
		if !ok {
			ci = len(clusters)
			index[l] = ci
			clusters = append(clusters, model.Cluster{})
		}
		clusters[ci] = append(clusters[ci], answers[i])
	}
	return clusters
}

func countDistinct(answers []string) int {
	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		seen[a] = struct{}{}
	}
	return len(seen)
}

func cloneCluster(answers []string) model.Cluster {
	c := make(model.Cluster, len(answers))
	copy(c, answers)
	return c
}

func cloneVector(v Vector) Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}
