package domain

import "time"

// Draft is the partially filled application accumulated while the user walks
// the conversation. Answer slots are positional, matching the question lists;
// a nil slot means "not answered yet".
type Draft struct {
	Name                string                     `json:"name,omitempty"`
	SelectedDepartments []DepartmentID             `json:"selectedDepartments,omitempty"`
	BeforeQA            []*Answer                  `json:"beforeDepartmentsQa,omitempty"`
	DepartmentQA        map[DepartmentID][]*Answer `json:"departmentsQa,omitempty"`
	AfterQA             []*Answer                  `json:"afterDepartmentsQa,omitempty"`
}

// Selected reports whether the department was chosen by the user.
func (d *Draft) Selected(dep DepartmentID) bool {
	for _, s := range d.SelectedDepartments {
		if s == dep {
			return true
		}
	}
	return false
}

// SetDepartmentAnswer writes the answer for one department question,
// growing the slot list as needed. Writing the same slot twice overwrites,
// so re-running a step never duplicates an answer.
func (d *Draft) SetDepartmentAnswer(dep DepartmentID, index, total int, a Answer) {
	if d.DepartmentQA == nil {
		d.DepartmentQA = make(map[DepartmentID][]*Answer)
	}
	answers := d.DepartmentQA[dep]
	for len(answers) < total {
		answers = append(answers, nil)
	}
	answers[index] = &a
	d.DepartmentQA[dep] = answers
}

// SetAt writes an answer into a positional slot list.
func SetAt(slots []*Answer, index int, a Answer) []*Answer {
	for len(slots) <= index {
		slots = append(slots, nil)
	}
	slots[index] = &a
	return slots
}

// AnswerAt returns the answer in a positional slot list, or nil.
func AnswerAt(slots []*Answer, index int) *Answer {
	if index < 0 || index >= len(slots) {
		return nil
	}
	return slots[index]
}

// Session is the durable per-user conversation state. It is serialized as a
// JSON document; new fields must be optional so older rows keep decoding.
type Session struct {
	UserID int64 `json:"-"`

	// CurrentStep is the sole resumption pointer. It always names a valid
	// node; answers for a node are only written by that node's handler.
	CurrentStep Step `json:"currentStep"`

	// Active is true while the conversation owns inbound events for the user.
	Active bool `json:"active"`

	// Began is set the first time the user confirms the intro prompt and is
	// never reset; it switches the intro between "begin" and "continue".
	Began bool `json:"begun"`

	// Editing is set when the user chooses to review answers from the
	// confirmation step and cleared when confirmation is reached again.
	Editing bool `json:"editing"`

	Ready               bool `json:"readyForDepartmentsQuestions"`
	AnsweredDepartments bool `json:"answeredDepartmentsQuestions"`

	SubmittedAt *time.Time `json:"submittedAt,omitempty"`

	Application Draft `json:"application"`

	// Pending holds in-progress multi-select ticks keyed by question key.
	// It is checkpointed on every toggle and cleared on confirm or cancel,
	// so a restart re-renders the keyboard with the ticks preserved.
	Pending map[string][]string `json:"pending,omitempty"`
}

// NewSession returns an all-empty session positioned at the beginning.
func NewSession(userID int64) *Session {
	return &Session{
		UserID:      userID,
		CurrentStep: At(StepBeginning),
	}
}

// PendingOptions returns the checkpointed multi-select ticks for a question.
func (s *Session) PendingOptions(key string) []string {
	if s.Pending == nil {
		return nil
	}
	return s.Pending[key]
}

// SetPendingOptions records in-progress multi-select ticks for a question.
func (s *Session) SetPendingOptions(key string, options []string) {
	if s.Pending == nil {
		s.Pending = make(map[string][]string)
	}
	s.Pending[key] = options
}

// ClearPendingOptions drops the in-progress state for a question.
func (s *Session) ClearPendingOptions(key string) {
	delete(s.Pending, key)
}

// ClearPending drops all in-progress multi-select state.
func (s *Session) ClearPending() {
	s.Pending = nil
}
