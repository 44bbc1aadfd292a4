package analysis

import (
	"log/slog"
	"time"

	"github.com/pavelanni/classinsight/internal/model"
)

// Analyzer runs the full pipeline over grouped answers. It holds no state
// between runs and is safe for concurrent use.
type Analyzer struct {
	clusterer *Clusterer
	logger    *slog.Logger
	now       func() time.Time
}

// NewAnalyzer creates an Analyzer from the runtime configuration.
// Zero values in cfg fall back to the defaults.
func NewAnalyzer(cfg model.AnalysisConfig, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	c := NewClusterer()
	if cfg.MaxClusters > 0 {
		c.MaxClusters = cfg.MaxClusters
	}
	if cfg.Seed != 0 {
		c.Seed = cfg.Seed
	}
	if cfg.Restarts > 0 {
		c.Restarts = cfg.Restarts
	}
	return &Analyzer{clusterer: c, logger: logger, now: time.Now}
}

// Run analyses every question group and aggregates the run-level results.
func (a *Analyzer) Run(runID string, groups []model.QuestionGroup) *model.AnalysisResult {
	start := a.now()
	result := &model.AnalysisResult{
		RunID:     runID,
		CreatedAt: start.UTC(),
		Questions: make([]model.QuestionAnalysis, 0, len(groups)),
	}

	insights := make(map[string]model.Insight, len(groups))
	students := make(map[string]struct{})
	var simSum, scoreSum float64

	for _, g := range groups {
		q := a.analyzeQuestion(g)
		result.Questions = append(result.Questions, q)
		insights[g.QuestionID] = q.Insight

		simSum += q.Insight.AvgSimilarity
		scoreSum += q.Scores.InsightScore
		switch ClassifySimilarity(q.Insight.AvgSimilarity) {
		case BandHigh:
			result.SimilarityDistribution.High++
		case BandMedium:
			result.SimilarityDistribution.Medium++
		default:
			result.SimilarityDistribution.Low++
		}
		for _, r := range g.Records {
			students[r.StudentID] = struct{}{}
		}
	}

	n := float64(len(groups))
	result.TotalStudents = len(students)
	result.OverallAvgSimilarity = round(ratio(simSum, n), 2)
	result.AvgInsightScore = round(ratio(scoreSum, n), 2)

	result.StudentFeedback = StudentFeedback(groups, insights)
	result.ClassFeedback = ClassFeedback(result.Questions)
	result.ImprovementSuggestions = ImprovementSuggestions(result.Questions)
	result.StudentClassification = ClassifyStudents(groups, insights)
	result.ConceptualErrors = DetectConceptualErrors(groups)

	a.logger.Info("analysis complete",
		"run_id", runID,
		"questions", len(groups),
		"students", result.TotalStudents,
		"duration", a.now().Sub(start))
	return result
}

func (a *Analyzer) analyzeQuestion(g model.QuestionGroup) model.QuestionAnalysis {
	answers := g.Answers()
	insight := AnalyzeQuestion(g)
	clusters := a.clusterer.Cluster(answers)
	weak := DetectWeakConcepts(answers)
	scores := CalculateScores(insight, clusters, weak)

	a.logger.Debug("question analysed",
		"question_id", g.QuestionID,
		"responses", insight.TotalResponses,
		"clusters", len(clusters),
		"avg_similarity", insight.AvgSimilarity,
		"insight_score", scores.InsightScore)

	return model.QuestionAnalysis{
		QuestionID:   g.QuestionID,
		QuestionText: g.QuestionText,
		Insight:      insight,
		Clusters:     clusters,
		WeakConcepts: weak,
		Scores:       scores,
		Summary:      GenerateSummary(g.QuestionID, insight, scores),
		Transparency: TransparencyReport(g.QuestionID, insight, clusters, weak, scores),
	}
}
