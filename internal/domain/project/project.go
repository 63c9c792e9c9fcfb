package project

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Project Entity
// ---------------------------------------------------------------------------

// Status values reported by the ERP for a project.
const (
	StatusActive = "Active"
)

// FolderStatusCreated marks a project whose Egnyte folder has already been
// provisioned by a previous run.
const FolderStatusCreated = "Created"

// Project is a normalized ERP project record. It is a read-only input for a
// provisioning run; all loosely-typed payload handling happens upstream in
// the ERP client's normalization step.
type Project struct {
	// ID is the dot-delimited project identifier, e.g. "24.07.0001".
	// The second segment is the two-digit department code.
	ID string
	// ClientCustomerID is the ERP identifier of the client.
	ClientCustomerID string
	// Name is the project display name.
	Name string
	// MasterProjectName is the folder name of the master project this
	// project nests under (series projects only).
	MasterProjectName string
	// Status is the ERP project status, e.g. "Active".
	Status string
	// Branch is the branch/office the project belongs to.
	Branch string
	// EgnyteFolderStatus tracks whether provisioning already happened.
	EgnyteFolderStatus string
	// MasterProject indicates this project is a parent for series projects.
	MasterProject bool
	// AddToExistingSeries indicates this project must nest under an
	// existing master project folder.
	AddToExistingSeries bool
	// DepartmentDescription is the human-readable department name.
	DepartmentDescription string
	// ContractAmount is the contract value; zero when absent or unparseable.
	ContractAmount decimal.Decimal
	// Market and SubMarket classify the project commercially.
	Market    string
	SubMarket string
	// ServiceType classifies the engineering service provided.
	ServiceType string
}

// Eligible reports whether this project should be considered for
// provisioning: it must be active and not already provisioned.
func (p *Project) Eligible() bool {
	return p.Status == StatusActive && p.EgnyteFolderStatus != FolderStatusCreated
}

// DepartmentCode extracts the two-digit department code from the project ID.
// Unparseable IDs return an empty string, which maps to the Unknown
// department folder.
func (p *Project) DepartmentCode() string {
	segments := strings.Split(p.ID, ".")
	if len(segments) < 2 {
		return ""
	}
	code := segments[1]
	if len(code) != 2 {
		return ""
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return code
}

// ParseFlag converts the ERP's bool-as-string representation to a bool.
// "true", "True" and "1" are true; everything else, including empty
// values, is false.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true
	default:
		return false
	}
}

// ParseAmount converts the ERP's contract amount to a decimal, defaulting
// to zero when the value is absent or unparseable.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
