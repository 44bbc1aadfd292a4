package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pavelanni/classinsight/internal/model"
)

// ExportRun builds the export envelope of a run with overrides applied.
func (s *Store) ExportRun(ctx context.Context, runID, teacher string) (*model.RunExport, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("export run: %w", err)
	}

	questions := make([]model.QuestionExport, 0, len(run.Questions))
	for _, q := range run.Questions {
		keywords := make([]string, 0, len(q.Insight.CommonWords))
		for _, wc := range q.Insight.CommonWords {
			keywords = append(keywords, wc.Word)
		}
		questions = append(questions, model.QuestionExport{
			QuestionID:         q.QuestionID,
			QuestionText:       q.QuestionText,
			TotalResponses:     q.Insight.TotalResponses,
			InsightScore:       q.Scores.InsightScore,
			ConfidenceScore:    q.Scores.ConfidenceScore,
			UnderstandingLevel: q.Scores.UnderstandingLevel,
			RiskLevel:          q.Scores.RiskLevel,
			TeachingAction:     q.Summary.EffectiveTeachingAction(),
			CommonKeywords:     keywords,
			WeakConcepts:       q.WeakConcepts,
		})
	}

	return &model.RunExport{
		RunID:      run.RunID,
		ExportedAt: time.Now().UTC(),
		Teacher:    teacher,
		Overall: model.OverallSummary{
			TotalStudents:     run.TotalStudents,
			TotalQuestions:    len(run.Questions),
			OverallSimilarity: run.OverallAvgSimilarity,
			AvgInsightScore:   run.AvgInsightScore,
		},
		Questions: questions,
	}, nil
}
