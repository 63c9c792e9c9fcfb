package project

// DepartmentUnknown is the folder used for projects whose department code
// cannot be derived from the project ID.
const DepartmentUnknown = "Unknown"

// departmentFolders maps two-digit department codes to the department
// folder each project is filed under.
var departmentFolders = map[string]string{
	"01": "Raleigh",
	"02": "Charlotte",
	"03": "Richmond",
	"04": "Nashville",
	"05": "Greenville",
}

// DepartmentFolder resolves a department code to its folder name.
// Unrecognized codes map to the Unknown folder.
func DepartmentFolder(code string) string {
	if folder, ok := departmentFolders[code]; ok {
		return folder
	}
	return DepartmentUnknown
}

// DepartmentFolderFor resolves the department folder for a project.
func DepartmentFolderFor(p *Project) string {
	return DepartmentFolder(p.DepartmentCode())
}
