package domain

// StepName identifies a node of the conversation graph.
type StepName string

const (
	StepBeginning            StepName = "beginning"
	StepFullName             StepName = "name"
	StepBeforeDepartments    StepName = "before-departments-questions"
	StepSelectingDepartments StepName = "selecting-departments"
	StepDepartmentsPreparing StepName = "departments-questions-preparing"
	StepDepartments          StepName = "departments-questions"
	StepDepartmentsDone      StepName = "departments-questions-done"
	StepAfterDepartments     StepName = "after-departments-questions"
	StepConfirming           StepName = "confirming-submission"
)

// Step is the persisted pointer into the conversation graph: a node name plus
// the parameters that make the node instance-specific. Question is meaningful
// for the indexed question steps, Department only for department questions.
type Step struct {
	Name       StepName     `json:"name"`
	Department DepartmentID `json:"department,omitempty"`
	Question   int          `json:"questionIndex,omitempty"`
}

// At builds a parameterless step.
func At(name StepName) Step {
	return Step{Name: name}
}

// AtQuestion builds an indexed question step.
func AtQuestion(name StepName, index int) Step {
	return Step{Name: name, Question: index}
}

// AtDepartment builds a department question step.
func AtDepartment(dep DepartmentID, index int) Step {
	return Step{Name: StepDepartments, Department: dep, Question: index}
}
