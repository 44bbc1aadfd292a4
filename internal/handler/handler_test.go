package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/classinsight/internal/analysis"
	"github.com/pavelanni/classinsight/internal/i18n"
	"github.com/pavelanni/classinsight/internal/llm"
	"github.com/pavelanni/classinsight/internal/model"
	"github.com/pavelanni/classinsight/internal/store"
)

const recordsJSON = `[
	{"student_id": "1", "student_name": "Ann", "question_id": "Q1", "question": "What is gravity?", "answer": "A force that pulls objects together."},
	{"student_id": "2", "student_name": "Bob", "question_id": "Q1", "question": "What is gravity?", "answer": "A force that pulls objects together."},
	{"student_id": "3", "student_name": "Cid", "question_id": "Q1", "question": "What is gravity?", "answer": "idk"},
	{"student_id": "1", "student_name": "Ann", "question_id": "Q2", "question": "What is inertia?", "answer": "Resistance to any change in motion of a body."},
	{"student_id": "2", "student_name": "Bob", "question_id": "Q2", "question": "What is inertia?", "answer": "I think it is maybe the speed of an object"}
]`

type fakeDrafter struct {
	err error
}

func (f fakeDrafter) DraftTeachingAction(_ context.Context, q model.QuestionAnalysis) (*llm.Draft, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Draft{QuestionID: q.QuestionID, TeachingAction: "Demo with two magnets", Model: "fake"}, nil
}

func newTestServer(t *testing.T, drafter Drafter) *httptest.Server {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	h, err := New(s, analysis.NewAnalyzer(model.AnalysisConfig{}, nil), drafter, Config{Teacher: "Ms. Rivera"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := chi.NewRouter()
	h.Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, contentType string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func createRun(t *testing.T, srv *httptest.Server) model.AnalysisResult {
	t.Helper()
	resp, body := do(t, http.MethodPost, srv.URL+"/runs", "application/json", []byte(recordsJSON))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /runs status = %d, body = %s", resp.StatusCode, body)
	}
	var run model.AnalysisResult
	if err := json.Unmarshal(body, &run); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	return run
}

func multipartBody(t *testing.T, filename, content string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, body := do(t, http.MethodGet, srv.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Errorf("GET /health = %d %s", resp.StatusCode, body)
	}
}

func TestCreateRunFromJSONBody(t *testing.T) {
	srv := newTestServer(t, nil)
	run := createRun(t, srv)

	if run.RunID == "" {
		t.Fatal("run_id is empty")
	}
	if len(run.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(run.Questions))
	}
	if run.TotalStudents != 3 {
		t.Errorf("total_students = %d, want 3", run.TotalStudents)
	}

	resp, body := do(t, http.MethodGet, srv.URL+"/runs/"+run.RunID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET run status = %d, body = %s", resp.StatusCode, body)
	}
}

func TestCreateRunDuplicateUpload(t *testing.T) {
	srv := newTestServer(t, nil)
	first := createRun(t, srv)

	resp, body := do(t, http.MethodPost, srv.URL+"/runs", "application/json", []byte(recordsJSON))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("duplicate upload status = %d, want 200", resp.StatusCode)
	}
	var again model.AnalysisResult
	if err := json.Unmarshal(body, &again); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if again.RunID != first.RunID {
		t.Errorf("duplicate upload created run %s, want existing %s", again.RunID, first.RunID)
	}
}

func TestCreateRunFromMultipartCSV(t *testing.T) {
	srv := newTestServer(t, nil)
	csv := "student_id,student_name,question_id,question,answer\n" +
		"1,Ann,Q1,What is gravity?,A force that pulls objects together\n" +
		"2,Bob,Q1,What is gravity?,Mass attracts mass\n"
	body, contentType := multipartBody(t, "answers.csv", csv)

	resp, out := do(t, http.MethodPost, srv.URL+"/runs", contentType, body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, out)
	}
}

func TestCreateRunErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	xlsx, xlsxType := multipartBody(t, "answers.xlsx", "binary")
	tests := []struct {
		name        string
		contentType string
		body        []byte
	}{
		{"malformed json", "application/json", []byte("{nope")},
		{"schema violation", "application/json", []byte(`[{"student_id": "1"}]`)},
		{"no answers", "application/json", []byte("[]")},
		{"unsupported format", xlsxType, xlsx},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/runs", tt.contentType, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", resp.StatusCode, body)
			}
		})
	}
}

func TestListRuns(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := do(t, http.MethodGet, srv.URL+"/runs", "", nil)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("empty list = %d %s", resp.StatusCode, body)
	}

	run := createRun(t, srv)
	_, body = do(t, http.MethodGet, srv.URL+"/runs", "", nil)
	var runs []model.RunHeader
	if err := json.Unmarshal(body, &runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != run.RunID || runs[0].NumQuestions != 2 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestGetRunNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{
		"/runs/missing",
		"/runs/missing/questions/Q1/transparency",
		"/runs/missing/report.txt",
	} {
		resp, _ := do(t, http.MethodGet, srv.URL+path, "", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestTransparency(t *testing.T) {
	srv := newTestServer(t, nil)
	run := createRun(t, srv)

	resp, body := do(t, http.MethodGet, srv.URL+"/runs/"+run.RunID+"/questions/Q1/transparency", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var tr model.TransparencyReport
	if err := json.Unmarshal(body, &tr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tr.QuestionID != "Q1" {
		t.Errorf("question_id = %q", tr.QuestionID)
	}

	resp, _ = do(t, http.MethodGet, srv.URL+"/runs/"+run.RunID+"/questions/Q9/transparency", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown question status = %d, want 404", resp.StatusCode)
	}
}

func TestSetTeachingAction(t *testing.T) {
	srv := newTestServer(t, nil)
	run := createRun(t, srv)
	url := srv.URL + "/runs/" + run.RunID + "/questions/Q1/teaching-action"
	text := "  Use the falling apple demo.  "

	payload, _ := json.Marshal(teachingActionRequest{TeachingAction: text})
	resp, body := do(t, http.MethodPut, url, "application/json", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", resp.StatusCode, body)
	}
	var summary model.Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.EffectiveTeachingAction() != text {
		t.Errorf("effective action = %q, want verbatim %q", summary.EffectiveTeachingAction(), text)
	}
	if summary.TeachingAction != run.Questions[0].Summary.TeachingAction {
		t.Error("generated teaching action must not change")
	}

	_, body = do(t, http.MethodGet, srv.URL+"/runs/"+run.RunID, "", nil)
	var got model.AnalysisResult
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if got.Question("Q1").Summary.EffectiveTeachingAction() != text {
		t.Error("override not applied to stored run")
	}
	if got.Question("Q2").Summary.TeachingActionOverride != nil {
		t.Error("override leaked to another question")
	}
}

func TestSetTeachingActionWhitespaceOnly(t *testing.T) {
	srv := newTestServer(t, nil)
	run := createRun(t, srv)
	url := srv.URL + "/runs/" + run.RunID + "/questions/Q1/teaching-action"

	resp, body := do(t, http.MethodPut, url, "application/json", []byte(`{"teaching_action": "  \t "}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", resp.StatusCode, body)
	}
	var summary model.Summary
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TeachingActionOverride == nil || *summary.TeachingActionOverride != "  \t " {
		t.Errorf("override = %v, want whitespace stored verbatim", summary.TeachingActionOverride)
	}
}

func TestSetTeachingActionErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	run := createRun(t, srv)
	valid, _ := json.Marshal(teachingActionRequest{TeachingAction: "x"})

	tests := []struct {
		name string
		path string
		body []byte
		want int
	}{
		{"empty text", "/runs/" + run.RunID + "/questions/Q1/teaching-action", []byte(`{"teaching_action": ""}`), http.StatusBadRequest},
		{"missing text", "/runs/" + run.RunID + "/questions/Q1/teaching-action", []byte(`{}`), http.StatusBadRequest},
		{"bad json", "/runs/" + run.RunID + "/questions/Q1/teaching-action", []byte("nope"), http.StatusBadRequest},
		{"unknown question", "/runs/" + run.RunID + "/questions/Q9/teaching-action", valid, http.StatusNotFound},
		{"unknown run", "/runs/missing/questions/Q1/teaching-action", valid, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPut, srv.URL+tt.path, "application/json", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d (body %s)", resp.StatusCode, tt.want, body)
			}
		})
	}
}

func TestDraftAction(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		srv := newTestServer(t, nil)
		run := createRun(t, srv)
		resp, _ := do(t, http.MethodPost, srv.URL+"/runs/"+run.RunID+"/questions/Q1/draft-action", "", nil)
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", resp.StatusCode)
		}
	})

	t.Run("draft is not stored", func(t *testing.T) {
		srv := newTestServer(t, fakeDrafter{})
		run := createRun(t, srv)
		resp, body := do(t, http.MethodPost, srv.URL+"/runs/"+run.RunID+"/questions/Q1/draft-action", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
		}
		var d llm.Draft
		if err := json.Unmarshal(body, &d); err != nil {
			t.Fatalf("decode draft: %v", err)
		}
		if d.TeachingAction != "Demo with two magnets" || d.QuestionID != "Q1" {
			t.Errorf("draft = %+v", d)
		}

		_, body = do(t, http.MethodGet, srv.URL+"/runs/"+run.RunID, "", nil)
		var got model.AnalysisResult
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode run: %v", err)
		}
		if got.Question("Q1").Summary.TeachingActionOverride != nil {
			t.Error("draft must not be saved as an override")
		}
	})

	t.Run("llm failure", func(t *testing.T) {
		srv := newTestServer(t, fakeDrafter{err: errors.New("connection refused")})
		run := createRun(t, srv)
		resp, _ := do(t, http.MethodPost, srv.URL+"/runs/"+run.RunID+"/questions/Q1/draft-action", "", nil)
		if resp.StatusCode != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", resp.StatusCode)
		}
	})
}

func TestReport(t *testing.T) {
	srv := newTestServer(t, nil)
	run := createRun(t, srv)

	resp, body := do(t, http.MethodGet, srv.URL+"/runs/"+run.RunID+"/report.txt", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	text := string(body)
	for _, want := range []string{"ASSIGNMENT ANALYTICS REPORT", run.RunID, "Ms. Rivera", "What is inertia?"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q", want)
		}
	}

	_, body = do(t, http.MethodGet, srv.URL+"/runs/"+run.RunID+"/report.txt?lang=ru", "", nil)
	if !strings.Contains(string(body), "ОБЩАЯ СВОДКА") {
		t.Error("report not localised for lang=ru")
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, nil)
	run := createRun(t, srv)

	resp, body := do(t, http.MethodGet, srv.URL+"/runs/"+run.RunID+"/export", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var exp model.RunExport
	if err := json.Unmarshal(body, &exp); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if exp.Overall.TotalQuestions != 2 || exp.Teacher != "Ms. Rivera" {
		t.Errorf("export overall = %+v teacher = %q", exp.Overall, exp.Teacher)
	}
}
