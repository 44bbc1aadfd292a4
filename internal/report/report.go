// Package report renders a run export as a localised plain-text report.
package report

import (
	"bufio"
	"context"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/classinsight/internal/i18n"
	"github.com/pavelanni/classinsight/internal/model"
)

const width = 60

var (
	heavyRule = strings.Repeat("=", width)
	lightRule = strings.Repeat("-", width)
)

// WriteText writes the report for exp to w in the language carried by ctx.
func WriteText(ctx context.Context, w io.Writer, exp *model.RunExport) error {
	bw := bufio.NewWriter(w)
	line := func(s string) { bw.WriteString(s + "\n") }

	line(heavyRule)
	line(i18n.T(ctx, "ReportTitle"))
	line(heavyRule)
	line("")
	line(i18n.Td(ctx, "Generated", map[string]any{"Date": exp.ExportedAt.Format(time.DateTime)}))
	line(i18n.Td(ctx, "RunID", map[string]any{"ID": exp.RunID}))
	if exp.Teacher != "" {
		line(i18n.Td(ctx, "Teacher", map[string]any{"Name": exp.Teacher}))
	}
	line("")

	line(lightRule)
	line(i18n.T(ctx, "OverallSummary"))
	line(lightRule)
	line(i18n.Td(ctx, "TotalStudents", map[string]any{"Count": exp.Overall.TotalStudents}))
	line(i18n.Td(ctx, "TotalQuestions", map[string]any{"Count": exp.Overall.TotalQuestions}))
	line(i18n.Td(ctx, "OverallSimilarity", map[string]any{"Value": percent(exp.Overall.OverallSimilarity)}))
	line(i18n.Td(ctx, "AvgInsightScore", map[string]any{"Value": number(exp.Overall.AvgInsightScore)}))
	line("")

	for _, q := range exp.Questions {
		writeQuestion(ctx, line, q)
	}

	line(heavyRule)
	line(i18n.T(ctx, "ReportFooter"))
	line(heavyRule)
	return bw.Flush()
}

func writeQuestion(ctx context.Context, line func(string), q model.QuestionExport) {
	line(lightRule)
	line(i18n.Td(ctx, "QuestionHeading", map[string]any{"ID": q.QuestionID, "Text": q.QuestionText}))
	line(lightRule)
	line(i18n.Td(ctx, "TotalResponses", map[string]any{"Count": q.TotalResponses}))
	line(i18n.Td(ctx, "InsightScore", map[string]any{"Value": number(q.InsightScore)}))
	line(i18n.Td(ctx, "ConfidenceScore", map[string]any{"Value": number(q.ConfidenceScore)}))
	line(i18n.Td(ctx, "UnderstandingLevel", map[string]any{"Level": string(q.UnderstandingLevel)}))
	line(i18n.Td(ctx, "RiskLevel", map[string]any{"Level": string(q.RiskLevel)}))
	line("")

	if q.TeachingAction != "" {
		line(i18n.T(ctx, "TeachingRecommendation"))
		line(q.TeachingAction)
		line("")
	}
	if len(q.CommonKeywords) > 0 {
		line(i18n.T(ctx, "CommonKeywords"))
		line(strings.Join(q.CommonKeywords, ", "))
		line("")
	}

	line(i18n.T(ctx, "AreasNeedingAttention"))
	concerns := 0
	if q.WeakConcepts.ShortAnswers > 0 {
		line("  - " + i18n.Tp(ctx, "ShortAnswersDetected", q.WeakConcepts.ShortAnswers))
		concerns++
	}
	if q.WeakConcepts.LowVocabDiversity {
		line("  - " + i18n.T(ctx, "LowVocabDiversity"))
		concerns++
	}
	if concerns == 0 {
		line("  - " + i18n.T(ctx, "NoConcerns"))
	}
	line("")
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// percent renders a [0,1] ratio as a percentage with one decimal.
func percent(v float64) string {
	return number(math.Round(v*1000) / 10)
}
