package analysis

import (
	"sort"
	"strings"

	"github.com/pavelanni/classinsight/internal/model"
)

// Mistake detector names as reported in model.Mistake.Type.
const (
	MistakeShortAnswer = "short_answer"
	MistakeNoContent   = "no_content"
	MistakeIncomplete  = "incomplete"
)

var noContentAnswers = map[string]bool{
	"":           true,
	"n/a":        true,
	"none":       true,
	"idk":        true,
	"don't know": true,
}

type mistakeDetector struct {
	name  string
	match func(answer string) bool
}

// Detectors run in this order and are reported in this order.
var mistakeDetectors = []mistakeDetector{
	{MistakeShortAnswer, func(a string) bool {
		return wordCount(a) <= MistakeShortWords
	}},
	{MistakeNoContent, func(a string) bool {
		return noContentAnswers[strings.ToLower(strings.TrimSpace(a))]
	}},
	{MistakeIncomplete, func(a string) bool {
		return !strings.HasSuffix(a, ".") && wordCount(a) < IncompleteWords
	}},
}

// AnalyzeQuestion builds the insight record for one question.
func AnalyzeQuestion(group model.QuestionGroup) model.Insight {
	answers := group.Answers()
	sim := AverageSimilarity(answers)
	return model.Insight{
		TotalResponses:  len(answers),
		CommonWords:     CommonWords(answers, CommonWordsLimit),
		AvgSimilarity:   sim,
		FrequentAnswers: FrequentAnswers(answers),
		Difficulty:      CalculateDifficulty(answers, sim),
		CommonMistakes:  DetectCommonMistakes(answers),
	}
}

// CommonWords returns the limit most frequent words of the lowercased,
// whitespace-split concatenation of answers. Ties keep first-encounter order.
func CommonWords(answers []string, limit int) []model.WordCount {
	var counts []model.WordCount
	index := make(map[string]int)
	for _, w := range words(strings.ToLower(strings.Join(answers, " "))) {
		if i, ok := index[w]; ok {
			counts[i].Count++
			continue
		}
		index[w] = len(counts)
		counts = append(counts, model.WordCount{Word: w, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	if counts == nil {
		counts = []model.WordCount{}
	}
	return counts
}

// FrequentAnswers returns the distinct answers occurring more than once,
// in order of first appearance.
func FrequentAnswers(answers []string) []string {
	counts := make(map[string]int, len(answers))
	for _, a := range answers {
		counts[a]++
	}
	frequent := []string{}
	for _, a := range answers {
		if counts[a] > 1 {
			frequent = append(frequent, a)
			counts[a] = 0
		}
	}
	return frequent
}

// CalculateDifficulty scores a question from answer length, vocabulary
// spread and agreement between answers:
//
//	0.4*(avg_words/20) + 0.3*(distinct_words/total_words) + 0.3*(1-avg_similarity)
func CalculateDifficulty(answers []string, avgSimilarity float64) model.Difficulty {
	var totalWords int
	for _, a := range answers {
		totalWords += wordCount(a)
	}
	avgLength := ratio(float64(totalWords), float64(len(answers)))

	all := words(strings.Join(answers, " "))
	uniqueRatio := float64(countDistinct(all)) / float64(max(len(all), 1))

	score := 0.4*(avgLength/20) + 0.3*uniqueRatio + 0.3*(1-avgSimilarity)
	switch {
	case score > HardDifficulty:
		return model.DifficultyHard
	case score > MediumDifficulty:
		return model.DifficultyMedium
	default:
		return model.DifficultyEasy
	}
}

// DetectCommonMistakes reports each mistake pattern present in at least one
// answer, with its share of all answers as a percentage rounded to 1 decimal.
func DetectCommonMistakes(answers []string) []model.Mistake {
	mistakes := []model.Mistake{}
	for _, d := range mistakeDetectors {
		var count int
		for _, a := range answers {
			if d.match(a) {
				count++
			}
		}
		if count == 0 {
			continue
		}
		mistakes = append(mistakes, model.Mistake{
			Type:       d.name,
			Count:      count,
			Percentage: round(ratio(float64(count), float64(len(answers)))*100, 1),
		})
	}
	return mistakes
}
