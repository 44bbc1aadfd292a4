package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pavelanni/classinsight/internal/model"
)

func TestCalculateScores(t *testing.T) {
	tests := []struct {
		name           string
		insight        model.Insight
		clusters       int
		weak           model.WeakConceptSignal
		wantInsight    float64
		wantConfidence float64
		wantU          model.UnderstandingLevel
		wantR          model.RiskLevel
	}{
		{
			name:           "moderate similarity, few short answers",
			insight:        model.Insight{TotalResponses: 10, AvgSimilarity: 0.5},
			clusters:       3,
			weak:           model.WeakConceptSignal{ShortAnswers: 2},
			wantInsight:    76,
			wantConfidence: 100,
			wantU:          model.UnderstandingHigh,
			wantR:          model.RiskLow,
		},
		{
			name:           "all short, low vocabulary",
			insight:        model.Insight{TotalResponses: 3, AvgSimilarity: 1},
			clusters:       1,
			weak:           model.WeakConceptSignal{ShortAnswers: 3, LowVocabDiversity: true},
			wantInsight:    60,
			wantConfidence: 45,
			wantU:          model.UnderstandingModerate,
			wantR:          model.RiskHigh,
		},
		{
			name:           "single diverse answer",
			insight:        model.Insight{TotalResponses: 1},
			clusters:       0,
			weak:           model.WeakConceptSignal{ShortAnswers: 0, LowVocabDiversity: true},
			wantInsight:    40,
			wantConfidence: 10,
			wantU:          model.UnderstandingLow,
			wantR:          model.RiskLow,
		},
		{
			name:           "no responses",
			insight:        model.Insight{},
			weak:           model.WeakConceptSignal{LowVocabDiversity: true},
			wantInsight:    40,
			wantConfidence: 0,
			wantU:          model.UnderstandingLow,
			wantR:          model.RiskLow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clusters := make([]model.Cluster, tt.clusters)
			got := CalculateScores(tt.insight, clusters, tt.weak)
			assert.InDelta(t, tt.wantInsight, got.InsightScore, 1e-9)
			assert.InDelta(t, tt.wantConfidence, got.ConfidenceScore, 1e-9)
			assert.Equal(t, tt.wantU, got.UnderstandingLevel)
			assert.Equal(t, tt.wantR, got.RiskLevel)
		})
	}
}

func TestScoreBounds(t *testing.T) {
	for _, sim := range []float64{0, 0.25, 0.5, 0.99, 1} {
		for _, total := range []int{0, 1, 5, 50} {
			for short := 0; short <= total; short += max(1, total/3) {
				for _, low := range []bool{false, true} {
					insight := model.Insight{TotalResponses: total, AvgSimilarity: sim}
					weak := model.WeakConceptSignal{ShortAnswers: short, LowVocabDiversity: low}
					got := CalculateScores(insight, make([]model.Cluster, 5), weak)
					assert.GreaterOrEqual(t, got.InsightScore, 0.0)
					assert.LessOrEqual(t, got.InsightScore, 100.0)
					assert.GreaterOrEqual(t, got.ConfidenceScore, 0.0)
					assert.LessOrEqual(t, got.ConfidenceScore, 100.0)
				}
			}
		}
	}
}

func TestClassifyRisk(t *testing.T) {
	assert.Equal(t, model.RiskLow, ClassifyRisk(2, 10))
	assert.Equal(t, model.RiskMedium, ClassifyRisk(3, 10))
	assert.Equal(t, model.RiskMedium, ClassifyRisk(4, 10))
	assert.Equal(t, model.RiskHigh, ClassifyRisk(5, 10))
	assert.Equal(t, model.RiskLow, ClassifyRisk(0, 0))
}

func TestGenerateSummary(t *testing.T) {
	tests := []struct {
		name       string
		sim        float64
		scores     model.ScoreRecord
		wantAction string
		wantPat    string
	}{
		{"low understanding outranks risk", 0.7,
			model.ScoreRecord{InsightScore: 40, UnderstandingLevel: model.UnderstandingLow, RiskLevel: model.RiskHigh},
			ActionReteach, PatternHighlySimilar},
		{"high risk", 0.45,
			model.ScoreRecord{InsightScore: 60, UnderstandingLevel: model.UnderstandingModerate, RiskLevel: model.RiskHigh},
			ActionDetail, PatternModerate},
		{"reinforcement", 0.3,
			model.ScoreRecord{InsightScore: 80, UnderstandingLevel: model.UnderstandingHigh, RiskLevel: model.RiskMedium},
			ActionReinforce, PatternDiverse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSummary("Q1", model.Insight{AvgSimilarity: tt.sim}, tt.scores)
			assert.Equal(t, tt.wantAction, got.TeachingAction)
			assert.Equal(t, tt.wantPat, got.PatternType)
			assert.Nil(t, got.TeachingActionOverride)
			assert.Equal(t, tt.wantAction, got.EffectiveTeachingAction())
		})
	}
}

func TestGenerateSummaryText(t *testing.T) {
	got := GenerateSummary("3", model.Insight{AvgSimilarity: 0.8}, model.ScoreRecord{
		UnderstandingLevel: model.UnderstandingHigh,
		RiskLevel:          model.RiskLow,
	})
	want := "For Question 3, the overall understanding level is High. " +
		"Responses show Highly similar responses (possible memorization or clear understanding). " +
		"The detected risk level is Low. " +
		"Recommended action: Minor clarification and reinforcement recommended."
	assert.Equal(t, want, got.SummaryText)
}
