package domain

import "time"

// Member is a record of an existing organization member.
type Member struct {
	TelegramID int64
	FullName   string
	IsActive   bool
	Level      string
	Joined     *time.Time
	Languages  []string
}

// Candidate is a record of someone who already submitted an application.
type Candidate struct {
	TelegramID    int64
	Username      string
	Name          string
	CommonQA      string
	Departments   []DepartmentID
	DepartmentsQA string
	CreatedAt     time.Time
}

// QA is a question/answer pair in display form.
type QA struct {
	Question string
	Answer   string
}

// CandidateApplication is the flattened submission payload, built once at the
// confirmation step from the session draft.
type CandidateApplication struct {
	TelegramID          int64
	TelegramUsername    string
	Name                string
	GeneralQA           []QA
	SelectedDepartments []DepartmentID
	DepartmentsQA       map[DepartmentID][]QA
}
