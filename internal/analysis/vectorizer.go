package analysis

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyVocabulary is returned when no terms remain after stop-word removal.
var ErrEmptyVocabulary = errors.New("empty vocabulary: answers contain only stop words")

// Vector is a TF-IDF feature vector over a question's vocabulary.
type Vector []float64

// Vectorization holds the vectors of one answer set and the shared vocabulary.
type Vectorization struct {
	Vocabulary []string
	Vectors    []Vector
}

// Vectorize builds an L2-normalised TF-IDF vector for every answer.
// The vocabulary is sorted so dimensions are stable across runs.
// IDF is smoothed as ln((1+N)/(1+df)) + 1, so terms present in every
// answer keep a positive weight.
func Vectorize(answers []string) (*Vectorization, error) {
	docs := make([]map[string]int, len(answers))
	df := make(map[string]int)
	for i, a := range answers {
		tf := make(map[string]int)
		for _, t := range terms.Extract(a) {
			tf[t]++
		}
		for t := range tf {
			df[t]++
		}
		docs[i] = tf
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := make([]string, 0, len(df))
	for t := range df {
		vocab = append(vocab, t)
	}
	sort.Strings(vocab)

	n := float64(len(answers))
	idf := make([]float64, len(vocab))
	for j, t := range vocab {
		idf[j] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	vectors := make([]Vector, len(answers))
	for i, tf := range docs {
		v := make(Vector, len(vocab))
		var norm float64
		for j, t := range vocab {
			if c := tf[t]; c > 0 {
				v[j] = float64(c) * idf[j]
				norm += v[j] * v[j]
			}
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for j := range v {
				v[j] /= norm
			}
		}
		vectors[i] = v
	}

	return &Vectorization{Vocabulary: vocab, Vectors: vectors}, nil
}
