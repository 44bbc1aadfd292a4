package analysis

import (
	"errors"
	"math"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Zero-length or zero vectors have similarity 0.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SimilarityMatrix returns the symmetric pairwise cosine matrix with a unit diagonal.
func SimilarityMatrix(vectors []Vector) [][]float64 {
	n := len(vectors)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := clamp01(CosineSimilarity(vectors[i], vectors[j]))
			m[i][j] = s
			m[j][i] = s
		}
	}
	return m
}

// AverageSimilarity returns the mean of the full similarity matrix (diagonal
// included) rounded to two decimals. Fewer than two answers yield 0.
// Identical answers yield 1 even when they carry no vocabulary; otherwise an
// empty vocabulary yields 0.
func AverageSimilarity(answers []string) float64 {
	if len(answers) < 2 {
		return 0
	}
	if allIdentical(answers) {
		return 1
	}
	vz, err := Vectorize(answers)
	if errors.Is(err, ErrEmptyVocabulary) {
		return 0
	}
	return round(matrixMean(SimilarityMatrix(vz.Vectors)), 2)
}

func matrixMean(m [][]float64) float64 {
	var sum float64
	var count int
	for _, row := range m {
		for _, v := range row {
			sum += v
			count++
		}
	}
	return clamp01(ratio(sum, float64(count)))
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

func allIdentical(answers []string) bool {
	for _, a := range answers[1:] {
		if a != answers[0] {
			return false
		}
	}
	return true
}
