package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/classinsight/internal/model"
)

//go:embed templates/*.txt
var embedded embed.FS

var (
	studentAnswerRegex      = regexp.MustCompile(`(?i)</?\s*student-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

const (
	// MaxSamples is the number of answers quoted in a draft prompt.
	MaxSamples = 5
	// maxSampleRunes caps a single quoted answer.
	maxSampleRunes = 500
	maxKeywords    = 5
)

// PromptVariant selects how elaborate the drafted teaching action should be.
type PromptVariant string

const (
	// PromptBrief asks for a single sentence.
	PromptBrief PromptVariant = "brief"
	// PromptStandard is the default variant.
	PromptStandard PromptVariant = "standard"
	// PromptDetailed asks for a short lesson plan.
	PromptDetailed PromptVariant = "detailed"
)

var variants = []PromptVariant{PromptBrief, PromptStandard, PromptDetailed}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[PromptVariant]*template.Template
)

// IsValidVariant checks if a prompt variant name is valid.
func IsValidVariant(v string) bool {
	for _, known := range variants {
		if PromptVariant(v) == known {
			return true
		}
	}
	return false
}

// DraftData holds template data for teaching-action prompts.
type DraftData struct {
	QuestionText   string
	Understanding  model.UnderstandingLevel
	Risk           model.RiskLevel
	Pattern        string
	CurrentAction  string
	SummaryText    string
	TotalResponses int
	ShortAnswers   int
	LowVocab       bool
	Keywords       []string
	Mistakes       []string
	Samples        []string
}

// Load parses the draft templates. Passing nil uses the templates built into
// the binary. It uses sync.Once so only the first call has any effect.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		if fsys == nil {
			fsys = embedded
		}
		parsed := make(map[PromptVariant]*template.Template, len(variants))
		funcs := template.FuncMap{"join": strings.Join}
		for _, v := range variants {
			file := "templates/draft_" + string(v) + ".txt"
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", file, err)
				return
			}
			tmpl, err := template.New(string(v)).Funcs(funcs).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", file, err)
				return
			}
			parsed[v] = tmpl
		}
		templates = parsed
	})
	return loadErr
}

// NewDraftData extracts the prompt inputs from a question's analysis.
func NewDraftData(q model.QuestionAnalysis) DraftData {
	d := DraftData{
		QuestionText:   sanitize(q.QuestionText),
		Understanding:  q.Summary.UnderstandingLevel,
		Risk:           q.Summary.RiskLevel,
		Pattern:        q.Summary.PatternType,
		CurrentAction:  q.Summary.EffectiveTeachingAction(),
		SummaryText:    q.Summary.SummaryText,
		TotalResponses: q.Insight.TotalResponses,
		ShortAnswers:   q.WeakConcepts.ShortAnswers,
		LowVocab:       q.WeakConcepts.LowVocabDiversity,
		Samples:        sampleAnswers(q),
	}
	for i, wc := range q.Insight.CommonWords {
		if i == maxKeywords {
			break
		}
		d.Keywords = append(d.Keywords, wc.Word)
	}
	for _, m := range q.Insight.CommonMistakes {
		d.Mistakes = append(d.Mistakes, fmt.Sprintf("%s (%d students, %g%%)", m.Type, m.Count, m.Percentage))
	}
	return d
}

// BuildDraftPrompt renders the teaching-action prompt for a question.
func BuildDraftPrompt(variant PromptVariant, q model.QuestionAnalysis) (string, error) {
	if templates == nil {
		if loadErr != nil {
			return "", fmt.Errorf("templates load failed: %w", loadErr)
		}
		return "", errors.New("templates not initialized: call Load first")
	}
	tmpl, ok := templates[variant]
	if !ok {
		return "", errors.New("invalid prompt variant: " + string(variant))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, NewDraftData(q)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sampleAnswers takes frequent answers first, then the first answer of each
// cluster, without repeats.
func sampleAnswers(q model.QuestionAnalysis) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(a string) {
		if len(out) == MaxSamples || seen[a] {
			return
		}
		seen[a] = true
		out = append(out, sanitize(a))
	}
	for _, a := range q.Insight.FrequentAnswers {
		add(a)
	}
	for _, c := range q.Clusters {
		if len(c) > 0 {
			add(c[0])
		}
	}
	if len(out) == 0 {
		out = append(out, noSamples(q.Insight.TotalResponses))
	}
	return out
}

func sanitize(s string) string {
	s = studentAnswerRegex.ReplaceAllString(s, "")
	s = systemInstructionsRegex.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")

	if s == "" {
		return "[No answer provided]"
	}
	if utf8.RuneCountInString(s) > maxSampleRunes {
		s = string([]rune(s)[:maxSampleRunes]) + " [truncated]"
	}
	return s
}

// noSamples stands in for quoted answers when nothing was repeated or
// clustered. Stored runs keep no raw answers outside those two lists.
func noSamples(responses int) string {
	switch responses {
	case 0:
		return "[No answers available]"
	case 1:
		return "[1 response, not quoted: a single answer has no clusters or repeats]"
	default:
		return fmt.Sprintf("[%d responses, none repeated or clustered]", responses)
	}
}
