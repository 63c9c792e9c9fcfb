package project

import (
	"fmt"
	"path"
)

// ---------------------------------------------------------------------------
// Folder Path Composition
// ---------------------------------------------------------------------------
//
// All paths are relative to a fixed shared root configured on the storage
// client. Folders are only ever created or renamed, never removed.

// FolderName composes the leaf folder name for a project:
// "{ID} - {ClientCustomerID} - {Name}".
func (p *Project) FolderName() string {
	return fmt.Sprintf("%s - %s - %s", p.ID, p.ClientCustomerID, p.Name)
}

// FolderPath composes the standalone folder path for a project:
// "{departmentFolder}/{FolderName}".
func (p *Project) FolderPath() string {
	return path.Join(DepartmentFolderFor(p), p.FolderName())
}

// MasterFolderPath composes the folder path of the master project a series
// project nests under. The master folder must already exist before a
// series folder can be provisioned.
func (p *Project) MasterFolderPath() string {
	return path.Join(DepartmentFolderFor(p), p.MasterProjectName)
}

// SeriesFolderPath composes the folder path for a series project, nested
// under its master project's folder.
func (p *Project) SeriesFolderPath() string {
	return path.Join(p.MasterFolderPath(), p.FolderName())
}
