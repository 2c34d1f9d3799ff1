package model

import "github.com/samber/lo"

// Report is the JSON structure sent to the model when asking for study
// suggestions.
type Report struct {
	Subject string         `json:"subject"`
	Score   int            `json:"score"`
	Total   int            `json:"total"`
	Results []AnswerResult `json:"results"`
	Missed  []string       `json:"missed"` // question texts answered wrong, in quiz order
}

// Report builds the feedback report for the session.
func (s *Session) Report() Report {
	results := s.Results
	if results == nil {
		results = []AnswerResult{}
	}
	missed := lo.Map(s.Wrong(), func(r AnswerResult, _ int) string { return r.Question })
	return Report{
		Subject: s.Subject,
		Score:   s.Score,
		Total:   s.Total,
		Results: results,
		Missed:  missed,
	}
}
