package analysis

import (
	"strings"

	"github.com/pavelanni/classinsight/internal/model"
)

// DetectWeakConcepts counts short answers and measures vocabulary diversity
// over the whitespace-split concatenation of all answers.
func DetectWeakConcepts(answers []string) model.WeakConceptSignal {
	var short int
	for _, a := range answers {
		if wordCount(a) <= ShortAnswerWords {
			short++
		}
	}

	all := words(strings.Join(answers, " "))
	unique := ratio(float64(countDistinct(all)), float64(len(all)))

	return model.WeakConceptSignal{
		ShortAnswers:      short,
		LowVocabDiversity: unique < LowVocabRatio,
		UniqueRatio:       round(unique, 2),
	}
}
