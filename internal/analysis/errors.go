package analysis

import (
	"strings"

	"github.com/pavelanni/classinsight/internal/model"
)

// IssueUncertain labels answers flagged for hedging language.
const IssueUncertain = "Uncertain/correct answer"

var hedgingPhrases = []string{"don't", "does not", "not sure", "i think"}

// DetectConceptualErrors flags answers of more than HedgingMinWords words
// that contain a hedging phrase. Each question reports its full count but at
// most MaxConceptualSamples sample answers. Questions without flags are omitted.
func DetectConceptualErrors(groups []model.QuestionGroup) []model.ConceptualError {
	out := []model.ConceptualError{}
	for _, g := range groups {
		var flagged []model.FlaggedAnswer
		for _, rec := range g.Records {
			if !isHedging(rec.Answer) {
				continue
			}
			flagged = append(flagged, model.FlaggedAnswer{
				StudentID:   rec.StudentID,
				StudentName: rec.StudentName,
				Answer:      rec.Answer,
				Issue:       IssueUncertain,
			})
		}
		if len(flagged) == 0 {
			continue
		}
		out = append(out, model.ConceptualError{
			QuestionID: g.QuestionID,
			Count:      len(flagged),
			Answers:    flagged[:min(len(flagged), MaxConceptualSamples)],
		})
	}
	return out
}

func isHedging(answer string) bool {
	if wordCount(answer) <= HedgingMinWords {
		return false
	}
	lower := strings.ToLower(answer)
	for _, p := range hedgingPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
