package erp

import (
	"github.com/erp/egnyte-provisioner/internal/domain/project"
)

// normalize converts a raw ERP record into a typed project with named
// defaults, so downstream logic never touches the payload shape.
func normalize(rec projectRecord) project.Project {
	return project.Project{
		ID:                    rec.ProjectID.String(),
		ClientCustomerID:      rec.ClientCustomerID.String(),
		Name:                  rec.ProjectName.String(),
		MasterProjectName:     rec.MasterProjectName.String(),
		Status:                rec.Status.String(),
		Branch:                rec.Branch.String(),
		EgnyteFolderStatus:    rec.EgnyteFolderStatus.String(),
		MasterProject:         project.ParseFlag(rec.MasterProjectTrue.String()),
		AddToExistingSeries:   project.ParseFlag(rec.AddToExistingSeries.String()),
		DepartmentDescription: rec.DepartmentDescription.String(),
		ContractAmount:        project.ParseAmount(rec.ContractAmount.String()),
		Market:                rec.Market.String(),
		SubMarket:             rec.SubMarket.String(),
		ServiceType:           rec.ServiceType.String(),
	}
}
