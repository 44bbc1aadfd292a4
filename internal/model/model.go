package model

import "time"

// AnswerRecord is one student's answer to one question, as produced by ingest.
type AnswerRecord struct {
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	QuestionID   string `json:"question_id"`
	QuestionText string `json:"question_text"`
	Answer       string `json:"answer"`
}

// QuestionGroup holds all records for one question in source order.
type QuestionGroup struct {
	QuestionID   string         `json:"question_id"`
	QuestionText string         `json:"question_text"`
	Records      []AnswerRecord `json:"records"`
}

// Answers returns the answer strings of the group in source order.
func (g QuestionGroup) Answers() []string {
	answers := make([]string, len(g.Records))
	for i, r := range g.Records {
		answers[i] = r.Answer
	}
	return answers
}

// Difficulty represents estimated question difficulty.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// UnderstandingLevel is the class-level understanding derived from the insight score.
type UnderstandingLevel string

const (
	UnderstandingLow      UnderstandingLevel = "Low"
	UnderstandingModerate UnderstandingLevel = "Moderate"
	UnderstandingHigh     UnderstandingLevel = "High"
)

// RiskLevel is derived from the share of short answers.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// WordCount is a word and its number of occurrences.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Mistake is one detected common-mistake pattern for a question.
type Mistake struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Insight is the per-question aggregate produced by the insight synthesizer.
type Insight struct {
	TotalResponses  int         `json:"total_responses"`
	CommonWords     []WordCount `json:"common_words"`
	AvgSimilarity   float64     `json:"avg_similarity"`
	FrequentAnswers []string    `json:"frequent_answers"`
	Difficulty      Difficulty  `json:"difficulty"`
	CommonMistakes  []Mistake   `json:"common_mistakes"`
}

// IsFrequent reports whether answer occurs more than once for the question.
func (i Insight) IsFrequent(answer string) bool {
	for _, a := range i.FrequentAnswers {
		if a == answer {
			return true
		}
	}
	return false
}

// WeakConceptSignal holds the shallow-answer heuristics for a question.
type WeakConceptSignal struct {
	ShortAnswers      int     `json:"short_answers"`
	LowVocabDiversity bool    `json:"low_vocab_diversity"`
	UniqueRatio       float64 `json:"unique_ratio"`
}

// ScoreRecord holds the bounded scores and categorical levels for a question.
type ScoreRecord struct {
	InsightScore       float64            `json:"insight_score"`
	ConfidenceScore    float64            `json:"confidence_score"`
	UnderstandingLevel UnderstandingLevel `json:"understanding_level"`
	RiskLevel          RiskLevel          `json:"risk_level"`
}

// Summary is the generated teaching summary for a question.
// TeachingActionOverride, when set, takes precedence over the generated action.
type Summary struct {
	UnderstandingLevel     UnderstandingLevel `json:"understanding_level"`
	PatternType            string             `json:"pattern_type"`
	RiskLevel              RiskLevel          `json:"risk_level"`
	TeachingAction         string             `json:"teaching_action"`
	TeachingActionOverride *string            `json:"teaching_action_override,omitempty"`
	SummaryText            string             `json:"summary_text"`
}

// EffectiveTeachingAction returns the override if present, otherwise the generated action.
func (s Summary) EffectiveTeachingAction() string {
	if s.TeachingActionOverride != nil {
		return *s.TeachingActionOverride
	}
	return s.TeachingAction
}

// Cluster is a group of similar answers for one question.
type Cluster []string

// ClusterExplanation explains why a cluster was formed.
type ClusterExplanation struct {
	ClusterID       int      `json:"cluster_id"`
	ClusterSize     int      `json:"cluster_size"`
	ClassPercentage float64  `json:"class_percentage"`
	Classification  string   `json:"classification"`
	Explanation     string   `json:"explanation"`
	SampleAnswers   []string `json:"sample_answers"`
}

// WeakConceptExplanation explains a weak-concept flag.
type WeakConceptExplanation struct {
	ConceptType string  `json:"concept_type"`
	Count       int     `json:"count"`
	Total       int     `json:"total"`
	Percentage  float64 `json:"percentage"`
	IsFlagged   bool    `json:"is_flagged"`
	Explanation string  `json:"explanation"`
	Severity    string  `json:"severity"`
}

// SimilarityExplanation interprets an average similarity.
type SimilarityExplanation struct {
	Score           float64 `json:"score"`
	ScorePercentage float64 `json:"score_percentage"`
	Interpretation  string  `json:"interpretation"`
	Meaning         string  `json:"meaning"`
	Confidence      string  `json:"confidence"`
}

// ScoreExplanation interprets the insight and confidence scores.
type ScoreExplanation struct {
	InsightScore       float64 `json:"insight_score"`
	InsightMeaning     string  `json:"insight_meaning"`
	InsightReliability string  `json:"insight_reliability"`
	ConfidenceScore    float64 `json:"confidence_score"`
	ConfidenceMeaning  string  `json:"confidence_meaning"`
	DataAdequacy       string  `json:"data_adequacy"`
}

// TransparencyReport is the post hoc justification for one question's results.
type TransparencyReport struct {
	QuestionID              string                   `json:"question_id"`
	TotalResponses          int                      `json:"total_responses"`
	SimilarityAnalysis      SimilarityExplanation    `json:"similarity_analysis"`
	ScoreExplanation        ScoreExplanation         `json:"score_explanation"`
	ClusterExplanations     []ClusterExplanation     `json:"cluster_explanations"`
	WeakConceptExplanations []WeakConceptExplanation `json:"weak_concept_explanations"`
}

// AnswerFeedback is the feedback for one student's answer to one question.
type AnswerFeedback struct {
	QuestionID         string  `json:"question_id"`
	Answer             string  `json:"answer"`
	PatternStatus      string  `json:"pattern_status"`
	Suggestion         string  `json:"suggestion"`
	IsCommon           bool    `json:"is_common"`
	TotalResponses     int     `json:"total_responses"`
	ClassAvgSimilarity float64 `json:"class_avg_similarity"`
}

// StudentFeedback collects feedback for all answers of one student.
type StudentFeedback struct {
	StudentID   string           `json:"student_id"`
	StudentName string           `json:"student_name"`
	Answers     []AnswerFeedback `json:"answers"`
}

// ClassFeedback is the class-level feedback for one question.
type ClassFeedback struct {
	QuestionID         string             `json:"question_id"`
	Question           string             `json:"question"`
	TotalResponses     int                `json:"total_responses"`
	UnderstandingLevel UnderstandingLevel `json:"understanding_level"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	Recommendation     string             `json:"recommendation"`
	TeachingPoints     []string           `json:"teaching_points"`
	AvgSimilarity      float64            `json:"avg_similarity"`
	CommonKeywords     []string           `json:"common_keywords"`
	ClustersCount      int                `json:"clusters_count"`
}

// Suggestion is a run-level improvement suggestion.
type Suggestion struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// StudentStanding is one student's aggregated standing.
type StudentStanding struct {
	StudentID       string  `json:"student_id"`
	Name            string  `json:"name"`
	AvgScore        float64 `json:"avg_score"`
	AvgAnswerLength float64 `json:"avg_answer_length"`
}

// StudentClassification splits students into tiers.
type StudentClassification struct {
	Strong  []StudentStanding `json:"strong"`
	Weak    []StudentStanding `json:"weak"`
	Average []StudentStanding `json:"average"`
}

// FlaggedAnswer is an answer flagged by conceptual-error detection.
type FlaggedAnswer struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Answer      string `json:"answer"`
	Issue       string `json:"issue"`
}

// ConceptualError lists hedging answers for one question.
type ConceptualError struct {
	QuestionID string          `json:"question_id"`
	Count      int             `json:"count"`
	Answers    []FlaggedAnswer `json:"answers"`
}

// SimilarityDistribution counts questions by similarity band.
type SimilarityDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// QuestionAnalysis bundles every per-question output of the pipeline.
type QuestionAnalysis struct {
	QuestionID   string             `json:"question_id"`
	QuestionText string             `json:"question_text"`
	Insight      Insight            `json:"insight"`
	Clusters     []Cluster          `json:"clusters"`
	WeakConcepts WeakConceptSignal  `json:"weak_concepts"`
	Scores       ScoreRecord        `json:"scores"`
	Summary      Summary            `json:"summary"`
	Transparency TransparencyReport `json:"transparency"`
}

// AnalysisResult is the full output of one analysis run.
type AnalysisResult struct {
	RunID                  string                 `json:"run_id"`
	CreatedAt              time.Time              `json:"created_at"`
	Questions              []QuestionAnalysis     `json:"questions"`
	TotalStudents          int                    `json:"total_students"`
	OverallAvgSimilarity   float64                `json:"overall_avg_similarity"`
	AvgInsightScore        float64                `json:"avg_insight_score"`
	SimilarityDistribution SimilarityDistribution `json:"similarity_distribution"`
	StudentFeedback        []StudentFeedback      `json:"student_feedback"`
	ClassFeedback          []ClassFeedback        `json:"class_feedback"`
	ImprovementSuggestions []Suggestion           `json:"improvement_suggestions"`
	StudentClassification  StudentClassification  `json:"student_classification"`
	ConceptualErrors       []ConceptualError      `json:"conceptual_errors"`
}

// Question returns the analysis for a question ID, or nil.
func (r *AnalysisResult) Question(questionID string) *QuestionAnalysis {
	for i := range r.Questions {
		if r.Questions[i].QuestionID == questionID {
			return &r.Questions[i]
		}
	}
	return nil
}

// RunHeader is a lightweight listing entry for a stored run.
type RunHeader struct {
	RunID         string    `json:"run_id"`
	CreatedAt     time.Time `json:"created_at"`
	TotalStudents int       `json:"total_students"`
	NumQuestions  int       `json:"num_questions"`
}

// AnalysisConfig holds runtime pipeline parameters set via CLI flags.
type AnalysisConfig struct {
	MaxClusters int    // upper bound on clusters per question
	Seed        uint64 // k-means initialisation seed
	Restarts    int    // k-means restarts per question
}
