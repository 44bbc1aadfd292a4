package ingest

import "github.com/pavelanni/classinsight/internal/model"

// GroupByQuestion groups records by question id. Groups follow the order in
// which each question is first seen and keep record order within a group.
// The question text of a group is taken from its first record.
func GroupByQuestion(records []model.AnswerRecord) []model.QuestionGroup {
	var groups []model.QuestionGroup
	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.QuestionID]
		if !ok {
			i = len(groups)
			index[rec.QuestionID] = i
			groups = append(groups, model.QuestionGroup{
				QuestionID:   rec.QuestionID,
				QuestionText: rec.QuestionText,
			})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}
