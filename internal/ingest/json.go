package ingest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/pavelanni/classinsight/internal/model"
)

//go:embed records.schema.json
var recordsSchemaJSON []byte

const recordsSchemaURL = "schema://records.json"

var (
	recordsSchemaOnce sync.Once
	recordsSchema     *jsonschema.Schema
	recordsSchemaErr  error
)

func compiledRecordsSchema() (*jsonschema.Schema, error) {
	recordsSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(recordsSchemaJSON))
		if err != nil {
			recordsSchemaErr = fmt.Errorf("parse records schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(recordsSchemaURL, doc); err != nil {
			recordsSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		recordsSchema, recordsSchemaErr = c.Compile(recordsSchemaURL)
	})
	return recordsSchema, recordsSchemaErr
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type jsonRecord struct {
	StudentID   flexString `json:"student_id"`
	StudentName string     `json:"student_name"`
	QuestionID  flexString `json:"question_id"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
}

// ParseJSON reads a JSON array of answer objects. The document is validated
// against the embedded schema before decoding; blank answers are skipped.
func ParseJSON(r io.Reader) ([]model.AnswerRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read JSON upload: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("invalid JSON file: %v", err)
	}
	schema, err := compiledRecordsSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, invalid("each JSON object must contain %s: %v",
			strings.Join(requiredFields, ", "), err)
	}

	var raw []jsonRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, invalid("decode JSON records: %v", err)
	}

	var records []model.AnswerRecord
	for _, item := range raw {
		rec, ok := newRecord(string(item.StudentID), item.StudentName,
			string(item.QuestionID), item.Question, item.Answer)
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}
