package domain

// DepartmentID identifies one of the fixed departments.
type DepartmentID string

const (
	DepartmentTech       DepartmentID = "tech"
	DepartmentDesign     DepartmentID = "design"
	DepartmentMedia      DepartmentID = "media"
	DepartmentManagement DepartmentID = "management"
)

// DepartmentIDs is the canonical department order. Department questions are
// always visited in this order, not in the order the user clicked.
var DepartmentIDs = []DepartmentID{
	DepartmentTech,
	DepartmentDesign,
	DepartmentMedia,
	DepartmentManagement,
}

var departmentNames = map[DepartmentID]string{
	DepartmentTech:       "Tech",
	DepartmentDesign:     "Design",
	DepartmentMedia:      "Media",
	DepartmentManagement: "Management",
}

// DisplayName returns the human-readable department name.
func (d DepartmentID) DisplayName() string {
	if name, ok := departmentNames[d]; ok {
		return name
	}
	return string(d)
}

// IsValid reports whether d is one of the known departments.
func (d DepartmentID) IsValid() bool {
	_, ok := departmentNames[d]
	return ok
}
