package analysis

import (
	"fmt"

	"github.com/pavelanni/classinsight/internal/model"
)

// Suggestion types and priorities.
const (
	SuggestionAnswerLength   = "answer_length"
	SuggestionVocabulary     = "vocabulary"
	SuggestionCommonPatterns = "common_patterns"

	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Class-level recommendations by understanding tier.
const (
	RecommendStrong   = "Class shows strong understanding. Proceed to next topic with minor reinforcement."
	RecommendModerate = "Moderate understanding. Review key concepts with examples."
	RecommendReview   = "Review required. Consider re-teaching with guided practice."
)

type answerPattern struct {
	status     string
	suggestion string
}

var answerPatterns = map[SimilarityBand]answerPattern{
	BandHigh:   {"common answer pattern", "Your answer follows the common pattern observed in class."},
	BandMedium: {"moderate variation", "Your answer shows some variation from the common pattern."},
	BandLow:    {"unique perspective", "Your answer provides a unique perspective."},
}

// StudentFeedback builds per-student feedback. Students appear in order of
// first appearance across groups; each student's answers follow group order.
func StudentFeedback(groups []model.QuestionGroup, insights map[string]model.Insight) []model.StudentFeedback {
	var out []model.StudentFeedback
	index := make(map[string]int)

	for _, g := range groups {
		insight := insights[g.QuestionID]
		pattern := answerPatterns[ClassifySimilarity(insight.AvgSimilarity)]
		for _, rec := range g.Records {
			i, ok := index[rec.StudentID]
			if !ok {
				i = len(out)
				index[rec.StudentID] = i
				out = append(out, model.StudentFeedback{
					StudentID:   rec.StudentID,
					StudentName: rec.StudentName,
				})
			}
			out[i].Answers = append(out[i].Answers, model.AnswerFeedback{
				QuestionID:         g.QuestionID,
				Answer:             rec.Answer,
				PatternStatus:      pattern.status,
				Suggestion:         pattern.suggestion,
				IsCommon:           insight.IsFrequent(rec.Answer),
				TotalResponses:     insight.TotalResponses,
				ClassAvgSimilarity: round(insight.AvgSimilarity*100, 1),
			})
		}
	}
	if out == nil {
		out = []model.StudentFeedback{}
	}
	return out
}

// ClassFeedback builds class-level feedback for every analysed question.
func ClassFeedback(questions []model.QuestionAnalysis) []model.ClassFeedback {
	out := make([]model.ClassFeedback, 0, len(questions))
	for _, q := range questions {
		points := []string{}
		if q.WeakConcepts.ShortAnswers > 0 {
			points = append(points, fmt.Sprintf(
				"%d students gave short answers - encourage detailed explanations", q.WeakConcepts.ShortAnswers))
		}
		if q.WeakConcepts.LowVocabDiversity {
			points = append(points,
				"Limited vocabulary diversity observed - consider vocabulary-building activities")
		}
		if n := len(q.Insight.FrequentAnswers); n > 0 {
			points = append(points, fmt.Sprintf("%d common answer patterns detected", n))
		}

		keywords := make([]string, 0, len(q.Insight.CommonWords))
		for _, wc := range q.Insight.CommonWords {
			keywords = append(keywords, wc.Word)
		}

		out = append(out, model.ClassFeedback{
			QuestionID:         q.QuestionID,
			Question:           q.QuestionText,
			TotalResponses:     q.Insight.TotalResponses,
			UnderstandingLevel: q.Scores.UnderstandingLevel,
			RiskLevel:          q.Scores.RiskLevel,
			Recommendation:     Recommendation(q.Scores.InsightScore),
			TeachingPoints:     points,
			AvgSimilarity:      round(q.Insight.AvgSimilarity*100, 1),
			CommonKeywords:     keywords,
			ClustersCount:      len(q.Clusters),
		})
	}
	return out
}

// Recommendation picks the class recommendation tier for an insight score.
func Recommendation(insightScore float64) string {
	switch ClassifyUnderstanding(insightScore) {
	case model.UnderstandingHigh:
		return RecommendStrong
	case model.UnderstandingModerate:
		return RecommendModerate
	default:
		return RecommendReview
	}
}

// ImprovementSuggestions aggregates weak-concept signals across the run.
func ImprovementSuggestions(questions []model.QuestionAnalysis) []model.Suggestion {
	var totalShort, lowVocab int
	for _, q := range questions {
		totalShort += q.WeakConcepts.ShortAnswers
		if q.WeakConcepts.LowVocabDiversity {
			lowVocab++
		}
	}

	suggestions := []model.Suggestion{}
	if totalShort > 0 {
		priority := PriorityMedium
		if totalShort > ManyShortAnswers {
			priority = PriorityHigh
		}
		suggestions = append(suggestions, model.Suggestion{
			Type:     SuggestionAnswerLength,
			Priority: priority,
			Message:  fmt.Sprintf("%d students submitted short answers. Encourage more detailed responses.", totalShort),
		})
	}
	if lowVocab > 0 {
		suggestions = append(suggestions, model.Suggestion{
			Type:     SuggestionVocabulary,
			Priority: PriorityMedium,
			Message:  "Some students show limited vocabulary. Consider vocabulary-building exercises.",
		})
	}
	for _, q := range questions {
		if n := len(q.Insight.FrequentAnswers); n > 0 {
			suggestions = append(suggestions, model.Suggestion{
				Type:     SuggestionCommonPatterns,
				Priority: PriorityLow,
				Message:  fmt.Sprintf("Q%s: %d repeated answers found.", q.QuestionID, n),
			})
		}
	}
	return suggestions
}
