package analysis

import (
	"fmt"

	"github.com/pavelanni/classinsight/internal/model"
)

// Weak-concept kinds reported in transparency reports.
const (
	ConceptShortAnswers = "short_answers"
	ConceptLowVocab     = "low_vocab"
)

// Cluster share classifications.
const (
	ShareHighlyCommon     = "Highly Common"
	ShareModeratelyCommon = "Moderately Common"
	ShareLessCommon       = "Less Common"
)

const (
	severityHigh   = "high"
	severityMedium = "medium"
	severityLow    = "low"

	maxClusterSamples = 3
)

// ExplainCluster describes one cluster by its share of the question's answers.
// id is 1-based.
func ExplainCluster(id int, cluster model.Cluster, totalAnswers int) model.ClusterExplanation {
	pct := round(ratio(float64(len(cluster)), float64(totalAnswers))*100, 1)

	e := model.ClusterExplanation{
		ClusterID:       id,
		ClusterSize:     len(cluster),
		ClassPercentage: pct,
		SampleAnswers:   append([]string{}, cluster[:min(len(cluster), maxClusterSamples)]...),
	}
	switch {
	case pct > HighlyCommonShare:
		e.Classification = ShareHighlyCommon
		e.Explanation = "This answer pattern is shared by a large portion of the class."
	case pct > ModeratelyCommonShare:
		e.Classification = ShareModeratelyCommon
		e.Explanation = "Several students shared this answer pattern."
	default:
		e.Classification = ShareLessCommon
		e.Explanation = "Fewer students shared this answer pattern."
	}
	return e
}

// ExplainShortAnswers explains the short-answer flag. The flag is raised when
// more than WeakConceptFlagShare percent of answers are short.
func ExplainShortAnswers(count, total int) model.WeakConceptExplanation {
	pct := round(ratio(float64(count), float64(total))*100, 1)
	e := model.WeakConceptExplanation{
		ConceptType: ConceptShortAnswers,
		Count:       count,
		Total:       total,
		Percentage:  pct,
		IsFlagged:   pct > WeakConceptFlagShare,
	}
	if !e.IsFlagged {
		e.Explanation = "Most students provided adequate-length answers."
		e.Severity = severityLow
		return e
	}
	e.Explanation = fmt.Sprintf(
		"%d students (%g%%) gave answers with %d or fewer words. This may indicate shallow understanding or rushing.",
		count, pct, ShortAnswerWords)
	e.Severity = severityMedium
	if pct > WeakConceptHighShare {
		e.Severity = severityHigh
	}
	return e
}

// ExplainLowVocab explains the vocabulary-diversity flag. The flag mirrors
// the detector's signal; the percentage is the unique-word share.
func ExplainLowVocab(weak model.WeakConceptSignal, total int) model.WeakConceptExplanation {
	pct := round(weak.UniqueRatio*100, 1)
	e := model.WeakConceptExplanation{
		ConceptType: ConceptLowVocab,
		Count:       total,
		Total:       total,
		Percentage:  pct,
		IsFlagged:   weak.LowVocabDiversity,
	}
	if !e.IsFlagged {
		e.Explanation = "Students showed good vocabulary diversity."
		e.Severity = severityLow
		return e
	}
	e.Explanation = fmt.Sprintf(
		"Students showed limited vocabulary diversity (%g%% unique words). This may indicate need for vocabulary building.", pct)
	e.Severity = severityMedium
	return e
}

// ExplainSimilarity interprets an average similarity with the same bands as
// the summary pattern type.
func ExplainSimilarity(sim float64) model.SimilarityExplanation {
	e := model.SimilarityExplanation{
		Score:           sim,
		ScorePercentage: round(sim*100, 1),
		Confidence:      "Medium",
	}
	switch ClassifySimilarity(sim) {
	case BandHigh:
		e.Interpretation = "High Similarity"
		e.Meaning = "Students gave very similar answers - either due to memorization or clear understanding of the concept."
		e.Confidence = "High"
	case BandMedium:
		e.Interpretation = "Moderate Similarity"
		e.Meaning = "Students showed variation in their answers with some common patterns."
	default:
		e.Interpretation = "Low Similarity"
		e.Meaning = "Students gave diverse answers - may indicate confusion or unique interpretations."
	}
	return e
}

// ExplainScores interprets the insight score with the understanding bands and
// the confidence score with the data-adequacy bands.
func ExplainScores(insightScore, confidenceScore float64) model.ScoreExplanation {
	e := model.ScoreExplanation{
		InsightScore:    insightScore,
		ConfidenceScore: confidenceScore,
	}
	switch ClassifyUnderstanding(insightScore) {
	case model.UnderstandingHigh:
		e.InsightMeaning = "High understanding detected. Students demonstrated clear grasp of the concept."
		e.InsightReliability = "Reliable"
	case model.UnderstandingModerate:
		e.InsightMeaning = "Moderate understanding. Some students grasp the concept, others may need help."
		e.InsightReliability = "Moderately Reliable"
	default:
		e.InsightMeaning = "Low understanding. Significant review and re-teaching may be needed."
		e.InsightReliability = "Less Reliable - small sample or diverse answers"
	}
	switch {
	case confidenceScore >= HighConfidenceScore:
		e.ConfidenceMeaning = "High confidence in analysis due to sufficient data."
		e.DataAdequacy = "Adequate"
	case confidenceScore >= PartialConfidenceScore:
		e.ConfidenceMeaning = "Moderate confidence. More data would improve accuracy."
		e.DataAdequacy = "Partial"
	default:
		e.ConfidenceMeaning = "Low confidence. Limited data may affect accuracy."
		e.DataAdequacy = "Insufficient"
	}
	return e
}

// TransparencyReport assembles every explanation for one question.
// Cluster shares are relative to the answers held by the clusters.
func TransparencyReport(questionID string, insight model.Insight, clusters []model.Cluster,
	weak model.WeakConceptSignal, scores model.ScoreRecord) model.TransparencyReport {
	var clustered int
	for _, c := range clusters {
		clustered += len(c)
	}

	report := model.TransparencyReport{
		QuestionID:          questionID,
		TotalResponses:      insight.TotalResponses,
		SimilarityAnalysis:  ExplainSimilarity(insight.AvgSimilarity),
		ScoreExplanation:    ExplainScores(scores.InsightScore, scores.ConfidenceScore),
		ClusterExplanations: make([]model.ClusterExplanation, 0, len(clusters)),
		WeakConceptExplanations: []model.WeakConceptExplanation{
			ExplainShortAnswers(weak.ShortAnswers, insight.TotalResponses),
			ExplainLowVocab(weak, insight.TotalResponses),
		},
	}
	for i, c := range clusters {
		report.ClusterExplanations = append(report.ClusterExplanations, ExplainCluster(i+1, c, clustered))
	}
	return report
}
