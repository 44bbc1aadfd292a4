package model

import "time"

// RunExport is the top-level structure handed to the export renderers.
type RunExport struct {
	RunID      string           `json:"run_id"`
	ExportedAt time.Time        `json:"exported_at"`
	Teacher    string           `json:"teacher,omitempty"`
	Overall    OverallSummary   `json:"overall_summary"`
	Questions  []QuestionExport `json:"questions"`
}

// OverallSummary holds run-level totals for export.
type OverallSummary struct {
	TotalStudents     int     `json:"total_students"`
	TotalQuestions    int     `json:"total_questions"`
	OverallSimilarity float64 `json:"overall_similarity"`
	AvgInsightScore   float64 `json:"avg_insight_score"`
}

// QuestionExport holds per-question data for export.
type QuestionExport struct {
	QuestionID         string             `json:"question_id"`
	QuestionText       string             `json:"question_text"`
	TotalResponses     int                `json:"total_responses"`
	InsightScore       float64            `json:"insight_score"`
	ConfidenceScore    float64            `json:"confidence_score"`
	UnderstandingLevel UnderstandingLevel `json:"understanding_level"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	TeachingAction     string             `json:"teaching_action"`
	CommonKeywords     []string           `json:"common_keywords"`
	WeakConcepts       WeakConceptSignal  `json:"weak_concepts"`
}
