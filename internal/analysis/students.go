package analysis

import (
	"sort"

	"github.com/pavelanni/classinsight/internal/model"
)

const (
	longAnswerWords   = 10
	mediumAnswerWords = 5

	longAnswerBonus   = 30.0
	mediumAnswerBonus = 20.0
	shortAnswerBonus  = 5.0
	shortPenalty      = 10.0
	uniqueBonus       = 20.0
)

// studentTally accumulates one student's per-answer scores within a run.
type studentTally struct {
	id      string
	name    string
	scores  float64
	words   int
	answers int
}

func (t *studentTally) add(score float64, words int) {
	t.scores += score
	t.words += words
	t.answers++
}

func (t *studentTally) standing() (model.StudentStanding, float64) {
	avg := ratio(t.scores, float64(t.answers))
	return model.StudentStanding{
		StudentID:       t.id,
		Name:            t.name,
		AvgScore:        round(avg, 1),
		AvgAnswerLength: round(ratio(float64(t.words), float64(t.answers)), 1),
	}, avg
}

// AnswerStrength scores a single answer by length, plus a bonus when the
// answer is not one of the question's repeated answers.
func AnswerStrength(answer string, insight model.Insight) float64 {
	n := wordCount(answer)
	var score float64
	switch {
	case n >= longAnswerWords:
		score = longAnswerBonus
	case n >= mediumAnswerWords:
		score = mediumAnswerBonus
	default:
		score = shortAnswerBonus
	}
	if n <= ShortAnswerWords {
		score -= shortPenalty
	}
	if !insight.IsFrequent(answer) {
		score += uniqueBonus
	}
	return score
}

// ClassifyStudents splits students into strong, weak and average tiers by
// their mean answer strength. Strong and weak lists keep only the top and
// bottom MaxTierSize students.
func ClassifyStudents(groups []model.QuestionGroup, insights map[string]model.Insight) model.StudentClassification {
	var tallies []*studentTally
	index := make(map[string]*studentTally)
	for _, g := range groups {
		insight := insights[g.QuestionID]
		for _, rec := range g.Records {
			t, ok := index[rec.StudentID]
			if !ok {
				t = &studentTally{id: rec.StudentID, name: rec.StudentName}
				index[rec.StudentID] = t
				tallies = append(tallies, t)
			}
			t.add(AnswerStrength(rec.Answer, insight), wordCount(rec.Answer))
		}
	}

	out := model.StudentClassification{
		Strong:  []model.StudentStanding{},
		Weak:    []model.StudentStanding{},
		Average: []model.StudentStanding{},
	}
	for _, t := range tallies {
		s, avg := t.standing()
		switch {
		case avg >= StrongStudentScore:
			out.Strong = append(out.Strong, s)
		case avg <= WeakStudentScore:
			out.Weak = append(out.Weak, s)
		default:
			out.Average = append(out.Average, s)
		}
	}

	byScoreDesc := func(list []model.StudentStanding) func(i, j int) bool {
		return func(i, j int) bool { return list[i].AvgScore > list[j].AvgScore }
	}
	sort.SliceStable(out.Strong, byScoreDesc(out.Strong))
	sort.SliceStable(out.Average, byScoreDesc(out.Average))
	sort.SliceStable(out.Weak, func(i, j int) bool {
		return out.Weak[i].AvgScore < out.Weak[j].AvgScore
	})

	if len(out.Strong) > MaxTierSize {
		out.Strong = out.Strong[:MaxTierSize]
	}
	if len(out.Weak) > MaxTierSize {
		out.Weak = out.Weak[:MaxTierSize]
	}
	return out
}
