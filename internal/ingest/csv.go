package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/pavelanni/classinsight/internal/model"
)

// ParseCSV reads a CSV upload with a header row. Column order is free;
// extra columns are ignored and rows with blank answers are skipped.
func ParseCSV(r io.Reader) ([]model.AnswerRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, invalid("uploaded CSV file is empty")
	}
	if err != nil {
		return nil, invalid("read CSV header: %v", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, f := range requiredFields {
		if _, ok := col[f]; !ok {
			return nil, invalid("CSV must contain columns: %s", strings.Join(requiredFields, ", "))
		}
	}

	var records []model.AnswerRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid("read CSV line %d: %v", line, err)
		}
		field := func(name string) string {
			if i := col[name]; i < len(row) {
				return row[i]
			}
			return ""
		}
		rec, ok := newRecord(field("student_id"), field("student_name"),
			field("question_id"), field("question"), field("answer"))
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}
