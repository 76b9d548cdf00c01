package flow

import (
	"fmt"

	"applybot/internal/domain"
	"applybot/internal/forms"
	"applybot/internal/messages"
)

// Option ids for the flow-control select prompts.
const (
	optBegin    = "begin"
	optContinue = "continue"
	optCancel   = "cancel"
	optOK       = "okay"
	optSubmit   = "submit"
	optReview   = "review"
)

// Questionnaire is the fixed question set of the candidate application:
// the flow-control prompts plus the three data question phases.
type Questionnaire struct {
	Begin             *forms.Select
	Continue          *forms.Select
	Name              *forms.Open
	SelectDepartments *forms.MultiSelect
	Ready             *forms.Select
	Confirm           *forms.Select

	Before      []forms.Question
	After       []forms.Question
	Departments map[domain.DepartmentID][]forms.Question
}

// NewQuestionnaire builds the default candidate application questionnaire.
func NewQuestionnaire() *Questionnaire {
	q := &Questionnaire{
		Begin: &forms.Select{
			QuestionKey: "begin",
			Text:        messages.Begin,
			Rows: [][]forms.Option{{
				{ID: optBegin, Label: messages.BtnBeginGo},
				{ID: optCancel, Label: messages.BtnBeginCancel},
			}},
		},
		Continue: &forms.Select{
			QuestionKey: "begin-returned",
			Text:        messages.BeginReturned,
			Rows: [][]forms.Option{{
				{ID: optContinue, Label: messages.BtnContinue},
				{ID: optCancel, Label: messages.BtnBeginCancel},
			}},
		},
		Name: &forms.Open{
			QuestionKey: "q-name",
			Text:        messages.QName,
			MaxLen:      100,
			Parse:       forms.ParseFullName,
			InvalidText: messages.InvalidName,
		},
		SelectDepartments: &forms.MultiSelect{
			QuestionKey: "q-select-departments",
			Text:        messages.QSelectDepartments,
			Rows: [][]forms.Option{
				{departmentOption(domain.DepartmentTech), departmentOption(domain.DepartmentDesign)},
				{departmentOption(domain.DepartmentMedia), departmentOption(domain.DepartmentManagement)},
			},
			Min: 1,
		},
		Before: []forms.Question{
			&forms.Open{QuestionKey: "q-skills", Text: messages.QSkills},
		},
		After: []forms.Question{
			&forms.Open{QuestionKey: "q-motivation", Text: messages.QMotivation},
			&forms.Select{
				QuestionKey: "q-time-to-spend",
				Text:        messages.QTimeToSpend,
				Rows: [][]forms.Option{
					{{ID: "hours-per-week-1-5", Label: messages.TimeHours1to5}},
					{{ID: "hours-per-week-5-10", Label: messages.TimeHours5to10}},
					{{ID: "hours-per-week-10-plus", Label: messages.TimeHours10Plus}},
				},
				PrintSelected: true,
			},
			&forms.Open{QuestionKey: "q-deadlines", Text: messages.QDeadlines, MaxLen: 500},
			&forms.Open{QuestionKey: "q-portfolio", Text: messages.QPortfolio, MaxLen: 500},
			&forms.Open{QuestionKey: "q-learnt-from", Text: messages.QLearntFrom, MaxLen: 300},
		},
		Departments: map[domain.DepartmentID][]forms.Question{
			domain.DepartmentTech: {
				&forms.Open{QuestionKey: "q-tech-1", Text: messages.QTech1},
				&forms.Open{QuestionKey: "q-tech-2", Text: messages.QTech2},
				&forms.Open{QuestionKey: "q-tech-3", Text: messages.QTech3},
				&forms.Open{QuestionKey: "q-tech-4", Text: messages.QTech4, MaxLen: 100},
			},
			domain.DepartmentDesign: {
				&forms.MultiSelect{
					QuestionKey: "q-design-1",
					Text:        messages.QDesign1,
					Rows: [][]forms.Option{
						{{ID: "ux-ui", Label: messages.DesignUxUi}, {ID: "web", Label: messages.DesignWeb}},
						{{ID: "art", Label: messages.DesignArt}, {ID: "vector", Label: messages.DesignVector}},
						{{ID: "smm", Label: messages.DesignSMM}, {ID: "photo", Label: messages.DesignPhoto}},
					},
					Min:             1,
					AtLeastOnButton: true,
				},
				&forms.Open{QuestionKey: "q-design-2", Text: messages.QDesign2, MaxLen: 300},
				&forms.Open{QuestionKey: "q-design-3", Text: messages.QDesign3},
			},
			domain.DepartmentMedia: {
				&forms.Open{QuestionKey: "q-media-1", Text: messages.QMedia1, MaxLen: 300},
				&forms.Open{QuestionKey: "q-media-2", Text: messages.QMedia2},
				&forms.Open{QuestionKey: "q-media-3", Text: messages.QMedia3},
			},
			domain.DepartmentManagement: {
				&forms.Open{QuestionKey: "q-management-1", Text: messages.QManagement1},
				&forms.Open{QuestionKey: "q-management-2", Text: messages.QManagement2},
				&forms.Open{QuestionKey: "q-management-3", Text: messages.QManagement3},
				&forms.Open{QuestionKey: "q-management-4", Text: messages.QManagement4},
				&forms.Open{QuestionKey: "q-management-5", Text: messages.QManagement5},
			},
		},
	}

	q.Ready = &forms.Select{
		QuestionKey: "departments-selected",
		TextFunc: func(sess *domain.Session) string {
			selected := sess.Application.SelectedDepartments
			return fmt.Sprintf(
				messages.DepartmentsSelected,
				joinDepartmentNames(selected), len(selected),
			)
		},
		Rows: [][]forms.Option{{{ID: optOK, Label: messages.BtnOK}}},
	}

	q.Confirm = &forms.Select{
		QuestionKey: "summary",
		TextFunc: func(sess *domain.Session) string {
			return fmt.Sprintf(messages.Summary, q.RenderReview(sess))
		},
		Rows: [][]forms.Option{{
			{ID: optSubmit, Label: messages.BtnSubmit},
			{ID: optReview, Label: messages.BtnReview},
		}},
	}

	return q
}

func departmentOption(dep domain.DepartmentID) forms.Option {
	return forms.Option{ID: string(dep), Label: dep.DisplayName()}
}

func joinDepartmentNames(deps []domain.DepartmentID) string {
	out := ""
	for i, d := range deps {
		if i > 0 {
			out += ", "
		}
		out += d.DisplayName()
	}
	return out
}
