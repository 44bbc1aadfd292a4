package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/classinsight/internal/model"
)

func TestStudentFeedback(t *testing.T) {
	q1 := model.QuestionGroup{QuestionID: "1", Records: []model.AnswerRecord{
		{StudentID: "s1", StudentName: "Ann", Answer: "gravity"},
		{StudentID: "s2", StudentName: "Bob", Answer: "gravity"},
	}}
	q2 := model.QuestionGroup{QuestionID: "2", Records: []model.AnswerRecord{
		{StudentID: "s2", StudentName: "Bob", Answer: "inertia"},
		{StudentID: "s3", StudentName: "Cid", Answer: "momentum"},
	}}
	insights := map[string]model.Insight{
		"1": {TotalResponses: 2, AvgSimilarity: 1, FrequentAnswers: []string{"gravity"}},
		"2": {TotalResponses: 2, AvgSimilarity: 0.5},
	}

	got := StudentFeedback([]model.QuestionGroup{q1, q2}, insights)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"s1", "s2", "s3"}, []string{got[0].StudentID, got[1].StudentID, got[2].StudentID})

	bob := got[1]
	assert.Equal(t, "Bob", bob.StudentName)
	require.Len(t, bob.Answers, 2)
	assert.Equal(t, model.AnswerFeedback{
		QuestionID:         "1",
		Answer:             "gravity",
		PatternStatus:      "common answer pattern",
		Suggestion:         "Your answer follows the common pattern observed in class.",
		IsCommon:           true,
		TotalResponses:     2,
		ClassAvgSimilarity: 100,
	}, bob.Answers[0])
	assert.Equal(t, "moderate variation", bob.Answers[1].PatternStatus)
	assert.False(t, bob.Answers[1].IsCommon)
	assert.InDelta(t, 50.0, bob.Answers[1].ClassAvgSimilarity, 1e-9)
}

func TestClassFeedback(t *testing.T) {
	q := model.QuestionAnalysis{
		QuestionID:   "1",
		QuestionText: "What is gravity?",
		Insight: model.Insight{
			TotalResponses:  6,
			AvgSimilarity:   0.456,
			FrequentAnswers: []string{"a force", "mass"},
			CommonWords:     []model.WordCount{{Word: "force", Count: 3}, {Word: "mass", Count: 2}},
		},
		Clusters:     []model.Cluster{{"a force", "a force"}, {"mass", "mass"}, {"pull", "attraction"}},
		WeakConcepts: model.WeakConceptSignal{ShortAnswers: 4, LowVocabDiversity: true},
		Scores: model.ScoreRecord{
			InsightScore:       52,
			UnderstandingLevel: model.UnderstandingModerate,
			RiskLevel:          model.RiskHigh,
		},
	}
	got := ClassFeedback([]model.QuestionAnalysis{q})
	require.Len(t, got, 1)
	fb := got[0]
	assert.Equal(t, "What is gravity?", fb.Question)
	assert.Equal(t, RecommendModerate, fb.Recommendation)
	assert.Equal(t, []string{
		"4 students gave short answers - encourage detailed explanations",
		"Limited vocabulary diversity observed - consider vocabulary-building activities",
		"2 common answer patterns detected",
	}, fb.TeachingPoints)
	assert.InDelta(t, 45.6, fb.AvgSimilarity, 1e-9)
	assert.Equal(t, []string{"force", "mass"}, fb.CommonKeywords)
	assert.Equal(t, 3, fb.ClustersCount)
	assert.Equal(t, model.RiskHigh, fb.RiskLevel)
}

func TestClassFeedbackNoTeachingPoints(t *testing.T) {
	got := ClassFeedback([]model.QuestionAnalysis{{QuestionID: "1", Scores: model.ScoreRecord{InsightScore: 90}}})
	require.Len(t, got, 1)
	assert.Empty(t, got[0].TeachingPoints)
	assert.Equal(t, RecommendStrong, got[0].Recommendation)
}

func TestImprovementSuggestions(t *testing.T) {
	questions := []model.QuestionAnalysis{
		{QuestionID: "1", WeakConcepts: model.WeakConceptSignal{ShortAnswers: 4, LowVocabDiversity: true},
			Insight: model.Insight{FrequentAnswers: []string{"x"}}},
		{QuestionID: "2", WeakConcepts: model.WeakConceptSignal{ShortAnswers: 2}},
	}
	got := ImprovementSuggestions(questions)
	assert.Equal(t, []model.Suggestion{
		{Type: SuggestionAnswerLength, Priority: PriorityHigh, Message: "6 students submitted short answers. Encourage more detailed responses."},
		{Type: SuggestionVocabulary, Priority: PriorityMedium, Message: "Some students show limited vocabulary. Consider vocabulary-building exercises."},
		{Type: SuggestionCommonPatterns, Priority: PriorityLow, Message: "Q1: 1 repeated answers found."},
	}, got)
}

func TestImprovementSuggestionsPriority(t *testing.T) {
	got := ImprovementSuggestions([]model.QuestionAnalysis{{WeakConcepts: model.WeakConceptSignal{ShortAnswers: 5}}})
	require.Len(t, got, 1)
	assert.Equal(t, PriorityMedium, got[0].Priority)

	assert.Empty(t, ImprovementSuggestions(nil))
}
