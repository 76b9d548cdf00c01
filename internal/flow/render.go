package flow

import (
	"fmt"
	"strings"

	"applybot/internal/domain"
	"applybot/internal/forms"
	"applybot/internal/messages"
)

const (
	reviewAnswerLimit = 110
	reviewEdgeRunes   = 50
)

// RenderReview formats the whole draft for the confirmation screen: the
// name, the general questions, then each selected department's block in
// canonical order, then the closing questions.
func (q *Questionnaire) RenderReview(sess *domain.Session) string {
	app := &sess.Application

	parts := make([]string, 0, 16)
	parts = append(parts, reviewEntry(q.Name.Title(), app.Name))

	for i, question := range q.Before {
		parts = append(parts, reviewEntry(question.Title(), stringify(question, domain.AnswerAt(app.BeforeQA, i))))
	}

	parts = append(parts, messages.DepartmentsQATitle)
	for _, dep := range domain.DepartmentIDs {
		if !app.Selected(dep) {
			continue
		}
		for i, question := range q.Departments[dep] {
			title := fmt.Sprintf("%s, %d. %s", dep.DisplayName(), i+1, question.Title())
			ans := domain.AnswerAt(app.DepartmentQA[dep], i)
			parts = append(parts, reviewEntry(title, stringify(question, ans)))
		}
	}

	for i, question := range q.After {
		parts = append(parts, reviewEntry(question.Title(), stringify(question, domain.AnswerAt(app.AfterQA, i))))
	}

	return strings.Join(parts, "\n\n")
}

// BuildApplication flattens the draft into the record sent to the candidate
// store. General questions cover both the pre-department and the closing
// lists; department answers keep the canonical order and only selected
// departments are included.
func (q *Questionnaire) BuildApplication(telegramID int64, username string, sess *domain.Session) domain.CandidateApplication {
	app := &sess.Application

	general := make([]domain.QA, 0, len(q.Before)+len(q.After))
	for i, question := range q.Before {
		general = append(general, domain.QA{
			Question: question.Title(),
			Answer:   stringify(question, domain.AnswerAt(app.BeforeQA, i)),
		})
	}
	for i, question := range q.After {
		general = append(general, domain.QA{
			Question: question.Title(),
			Answer:   stringify(question, domain.AnswerAt(app.AfterQA, i)),
		})
	}

	selected := make([]domain.DepartmentID, 0, len(app.SelectedDepartments))
	departmentsQA := make(map[domain.DepartmentID][]domain.QA)
	for _, dep := range domain.DepartmentIDs {
		if !app.Selected(dep) {
			continue
		}
		selected = append(selected, dep)
		qa := make([]domain.QA, 0, len(q.Departments[dep]))
		for i, question := range q.Departments[dep] {
			qa = append(qa, domain.QA{
				Question: question.Title(),
				Answer:   stringify(question, domain.AnswerAt(app.DepartmentQA[dep], i)),
			})
		}
		departmentsQA[dep] = qa
	}

	return domain.CandidateApplication{
		TelegramID:          telegramID,
		TelegramUsername:    username,
		Name:                app.Name,
		GeneralQA:           general,
		SelectedDepartments: selected,
		DepartmentsQA:       departmentsQA,
	}
}

func reviewEntry(title, answer string) string {
	if answer == "" {
		answer = messages.EmptyAnswer
	}
	return title + "\n" + shorten(answer)
}

func stringify(q forms.Question, a *domain.Answer) string {
	if a == nil {
		return ""
	}
	return q.Stringify(*a)
}

// shorten keeps long free-text answers from bloating the review message,
// preserving both ends so the candidate can still recognize the answer.
func shorten(s string) string {
	runes := []rune(s)
	if len(runes) <= reviewAnswerLimit {
		return s
	}
	return string(runes[:reviewEdgeRunes]) + "………" + string(runes[len(runes)-reviewEdgeRunes:])
}
