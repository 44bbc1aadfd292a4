package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/classinsight/internal/model"
)

const sampleCSV = `student_id,student_name,question_id,question,answer
1, Ann ,Q1,What is gravity?, A force that pulls objects together.
2,Bob,Q1,What is gravity?,
3,Cid,Q2,What is inertia?,Resistance to change in motion
`

func TestParseCSV(t *testing.T) {
	records, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records (blank answer skipped), got %d", len(records))
	}
	want := model.AnswerRecord{
		StudentID:    "1",
		StudentName:  "Ann",
		QuestionID:   "Q1",
		QuestionText: "What is gravity?",
		Answer:       "A force that pulls objects together.",
	}
	if records[0] != want {
		t.Errorf("records[0] = %+v, want %+v", records[0], want)
	}
	if records[1].StudentName != "Cid" {
		t.Errorf("records[1].StudentName = %q, want Cid", records[1].StudentName)
	}
}

func TestParseCSVColumnOrderAndExtras(t *testing.T) {
	in := "answer,extra,question,question_id,student_name,student_id\nforty two,x,Meaning?,Q9,Dee,7\n"
	records, err := ParseCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(records) != 1 || records[0].Answer != "forty two" || records[0].StudentID != "7" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"missing column", "student_id,student_name,question_id,answer\n1,Ann,Q1,yes\n"},
		{"bad quoting", "student_id,student_name,question_id,question,answer\n1,Ann,Q1,\"unterminated,yes\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.in))
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestParseJSON(t *testing.T) {
	in := `[
		{"student_id": 12, "student_name": " Ann ", "question_id": "Q1", "question": "What is gravity?", "answer": " A force. "},
		{"student_id": "13", "student_name": "Bob", "question_id": "Q1", "question": "What is gravity?", "answer": "  "}
	]`
	records, err := ParseJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].StudentID != "12" {
		t.Errorf("StudentID = %q, want 12", records[0].StudentID)
	}
	if records[0].StudentName != "Ann" || records[0].Answer != "A force." {
		t.Errorf("fields not trimmed: %+v", records[0])
	}
}

func TestParseJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", "{nope"},
		{"not a list", `{"student_id": "1"}`},
		{"missing key", `[{"student_id": "1", "student_name": "Ann", "question_id": "Q1", "answer": "yes"}]`},
		{"wrong type", `[{"student_id": "1", "student_name": "Ann", "question_id": "Q1", "question": "Q?", "answer": 5}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON(strings.NewReader(tt.in))
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestParseDispatch(t *testing.T) {
	if _, err := Parse("answers.CSV", strings.NewReader(sampleCSV)); err != nil {
		t.Errorf("Parse csv: %v", err)
	}
	if _, err := Parse("answers.json", strings.NewReader("[]")); err != nil {
		t.Errorf("Parse json: %v", err)
	}
	_, err := Parse("answers.xlsx", strings.NewReader(""))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestGroupByQuestion(t *testing.T) {
	records := []model.AnswerRecord{
		{StudentID: "1", QuestionID: "Q2", QuestionText: "Second?", Answer: "a"},
		{StudentID: "1", QuestionID: "Q1", QuestionText: "First?", Answer: "b"},
		{StudentID: "2", QuestionID: "Q2", QuestionText: "Second, reworded?", Answer: "c"},
	}
	groups := GroupByQuestion(records)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].QuestionID != "Q2" || groups[1].QuestionID != "Q1" {
		t.Errorf("groups out of first-seen order: %s, %s", groups[0].QuestionID, groups[1].QuestionID)
	}
	if groups[0].QuestionText != "Second?" {
		t.Errorf("QuestionText = %q, want first occurrence", groups[0].QuestionText)
	}
	if got := groups[0].Answers(); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("Answers() = %v, want [a c]", got)
	}
}
