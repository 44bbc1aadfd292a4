package analysis

import "github.com/pavelanni/classinsight/internal/model"

const (
	maxScore       = 100.0
	baseInsight    = 20.0
	similarityPart = 40.0
	vocabPart      = 20.0
	lengthPart     = 20.0
	perResponse    = 10.0
	perCluster     = 15.0
)

// CalculateScores derives the insight and confidence scores and the
// categorical levels for one question. Both scores lie in [0, 100].
func CalculateScores(insight model.Insight, clusters []model.Cluster, weak model.WeakConceptSignal) model.ScoreRecord {
	vocab := 1.0
	if weak.LowVocabDiversity {
		vocab = 0
	}
	shortRatio := ratio(float64(weak.ShortAnswers), float64(insight.TotalResponses))

	insightScore := insight.AvgSimilarity*similarityPart +
		vocab*vocabPart +
		(1-shortRatio)*lengthPart +
		baseInsight
	insightScore = round(min(insightScore, maxScore), 2)

	confidence := min(maxScore,
		float64(insight.TotalResponses)*perResponse+float64(len(clusters))*perCluster)

	return model.ScoreRecord{
		InsightScore:       insightScore,
		ConfidenceScore:    confidence,
		UnderstandingLevel: ClassifyUnderstanding(insightScore),
		RiskLevel:          ClassifyRisk(weak.ShortAnswers, insight.TotalResponses),
	}
}

// ClassifyUnderstanding maps an insight score onto an understanding level.
func ClassifyUnderstanding(insightScore float64) model.UnderstandingLevel {
	switch {
	case insightScore >= HighUnderstandingScore:
		return model.UnderstandingHigh
	case insightScore >= ModerateUnderstandingScore:
		return model.UnderstandingModerate
	default:
		return model.UnderstandingLow
	}
}

// ClassifyRisk maps the share of short answers onto a risk level.
func ClassifyRisk(shortAnswers, total int) model.RiskLevel {
	r := ratio(float64(shortAnswers), float64(total))
	switch {
	case r > HighRiskRatio:
		return model.RiskHigh
	case r > MediumRiskRatio:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
