// Package ingest turns uploaded answer files into normalised answer records.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pavelanni/classinsight/internal/model"
)

var (
	// ErrInvalidInput wraps every error caused by a malformed upload.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedFormat is returned for file types other than CSV and JSON.
	ErrUnsupportedFormat = errors.New("unsupported file format: upload a .csv or .json file")
)

// Columns every upload must provide.
var requiredFields = []string{"student_id", "student_name", "question_id", "question", "answer"}

// Parse dispatches on the file extension of filename.
func Parse(filename string, r io.Reader) ([]model.AnswerRecord, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".json":
		return ParseJSON(r)
	default:
		return nil, fmt.Errorf("%q: %w", filename, ErrUnsupportedFormat)
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// newRecord trims every field and reports false for blank answers.
func newRecord(studentID, studentName, questionID, question, answer string) (model.AnswerRecord, bool) {
	rec := model.AnswerRecord{
		StudentID:    strings.TrimSpace(studentID),
		StudentName:  strings.TrimSpace(studentName),
		QuestionID:   strings.TrimSpace(questionID),
		QuestionText: strings.TrimSpace(question),
		Answer:       strings.TrimSpace(answer),
	}
	return rec, rec.Answer != ""
}
