package analysis

import (
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// minTermLength drops single-character terms such as stray letters and digits.
const minTermLength = 2

// termExtractor turns free text into vocabulary terms:
// unicode word segmentation, lowercasing, English stop-word removal.
type termExtractor struct {
	tokenizer analysis.Tokenizer
	filters   []analysis.TokenFilter
}

var terms = newTermExtractor()

func newTermExtractor() *termExtractor {
	stopWords := analysis.NewTokenMap()
	if err := stopWords.LoadBytes(en.EnglishStopWords); err != nil {
		panic("load english stop words: " + err.Error())
	}
	return &termExtractor{
		tokenizer: unicode.NewUnicodeTokenizer(),
		filters: []analysis.TokenFilter{
			lowercase.NewLowerCaseFilter(),
			stop.NewStopTokensFilter(stopWords),
		},
	}
}

// Extract returns the vocabulary terms of text in order of appearance.
func (e *termExtractor) Extract(text string) []string {
	stream := e.tokenizer.Tokenize([]byte(text))
	for _, f := range e.filters {
		stream = f.Filter(stream)
	}
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		term := string(tok.Term)
		if utf8.RuneCountInString(term) < minTermLength {
			continue
		}
		out = append(out, term)
	}
	return out
}

// words splits text on whitespace. Every word count in the pipeline uses it.
func words(text string) []string {
	return strings.Fields(text)
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
