package analysis

import (
	"fmt"

	"github.com/pavelanni/classinsight/internal/model"
)

// Pattern descriptions by similarity band.
const (
	PatternHighlySimilar = "Highly similar responses (possible memorization or clear understanding)"
	PatternModerate      = "Moderate variation in answers"
	PatternDiverse       = "Highly diverse responses (concept confusion possible)"
)

// Generated teaching actions.
const (
	ActionReteach   = "Re-teach the concept with examples and guided practice."
	ActionDetail    = "Focus on encouraging detailed explanations and deeper thinking."
	ActionReinforce = "Minor clarification and reinforcement recommended."
)

// GenerateSummary produces the teaching summary for one question from its
// insight and scores. Low understanding outranks high risk when choosing the
// teaching action.
func GenerateSummary(questionID string, insight model.Insight, scores model.ScoreRecord) model.Summary {
	pattern := PatternType(insight.AvgSimilarity)
	action := TeachingAction(scores.UnderstandingLevel, scores.RiskLevel)
	return model.Summary{
		UnderstandingLevel: scores.UnderstandingLevel,
		PatternType:        pattern,
		RiskLevel:          scores.RiskLevel,
		TeachingAction:     action,
		SummaryText: fmt.Sprintf(
			"For Question %s, the overall understanding level is %s. Responses show %s. The detected risk level is %s. Recommended action: %s",
			questionID, scores.UnderstandingLevel, pattern, scores.RiskLevel, action),
	}
}

// PatternType describes the answer pattern for an average similarity.
func PatternType(avgSimilarity float64) string {
	switch ClassifySimilarity(avgSimilarity) {
	case BandHigh:
		return PatternHighlySimilar
	case BandMedium:
		return PatternModerate
	default:
		return PatternDiverse
	}
}

// TeachingAction picks the generated teaching action.
func TeachingAction(u model.UnderstandingLevel, r model.RiskLevel) string {
	switch {
	case u == model.UnderstandingLow:
		return ActionReteach
	case r == model.RiskHigh:
		return ActionDetail
	default:
		return ActionReinforce
	}
}
