package analysis

import "math"

// Thresholds shared by the scoring, summary, feedback and explainability code.
// Changing a value here changes every consumer at once.
const (
	// HighSimilarity is the exclusive lower bound of the "highly similar" band.
	HighSimilarity = 0.6
	// ModerateSimilarity is the exclusive lower bound of the "moderate" band.
	ModerateSimilarity = 0.3

	// HighUnderstandingScore is the inclusive insight score for High understanding.
	HighUnderstandingScore = 75.0
	// ModerateUnderstandingScore is the inclusive insight score for Moderate understanding.
	ModerateUnderstandingScore = 50.0

	// HighRiskRatio and MediumRiskRatio are exclusive short-answer ratios.
	HighRiskRatio   = 0.4
	MediumRiskRatio = 0.2

	// LowVocabRatio is the exclusive unique-word ratio below which vocabulary is low.
	LowVocabRatio = 0.4

	// ShortAnswerWords is the inclusive word count for a short (weak) answer.
	ShortAnswerWords = 4
	// MistakeShortWords is the inclusive word count for the short_answer mistake.
	MistakeShortWords = 3
	// IncompleteWords is the exclusive word count for the incomplete mistake.
	IncompleteWords = 5
	// HedgingMinWords is the exclusive word count an answer needs to be a conceptual error.
	HedgingMinWords = 5
	// MaxConceptualSamples caps the flagged answers reported per question.
	MaxConceptualSamples = 3

	// HardDifficulty and MediumDifficulty are exclusive difficulty-score bounds.
	HardDifficulty   = 0.6
	MediumDifficulty = 0.35

	// StrongStudentScore and WeakStudentScore are inclusive per-student bounds.
	StrongStudentScore = 40.0
	WeakStudentScore   = 20.0
	// MaxTierSize caps the strong and weak student lists.
	MaxTierSize = 10

	// HighlyCommonShare and ModeratelyCommonShare are exclusive cluster-share percentages.
	HighlyCommonShare     = 40.0
	ModeratelyCommonShare = 20.0

	// WeakConceptFlagShare is the exclusive percentage above which a weak concept is flagged.
	WeakConceptFlagShare = 20.0
	// WeakConceptHighShare is the exclusive percentage for high severity.
	WeakConceptHighShare = 40.0

	// HighConfidenceScore and PartialConfidenceScore are inclusive confidence bands.
	HighConfidenceScore    = 70.0
	PartialConfidenceScore = 40.0

	// ManyShortAnswers is the exclusive run-level count for a high-priority suggestion.
	ManyShortAnswers = 5

	// DefaultMaxClusters is the default upper bound on clusters per question.
	DefaultMaxClusters = 5
	// DefaultSeed seeds k-means initialisation.
	DefaultSeed = 42
	// DefaultRestarts is the number of k-means initialisations tried.
	DefaultRestarts = 10
	// CommonWordsLimit is the number of top words reported per question.
	CommonWordsLimit = 5
)

// SimilarityBand classifies an average similarity into high, medium or low.
type SimilarityBand int

const (
	BandLow SimilarityBand = iota
	BandMedium
	BandHigh
)

// ClassifySimilarity maps an average similarity onto its band.
func ClassifySimilarity(sim float64) SimilarityBand {
	switch {
	case sim > HighSimilarity:
		return BandHigh
	case sim > ModerateSimilarity:
		return BandMedium
	default:
		return BandLow
	}
}

// ratio divides num by den, returning 0 when den is zero.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
