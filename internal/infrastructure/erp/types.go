package erp

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// The ERP wraps every attribute as {"value": ...}, with values that may be
// strings, numbers, or booleans depending on the field. attrValue absorbs
// that shape; normalization turns records into typed domain projects.
type attrValue struct {
	Value any `json:"value"`
}

// String renders the wrapped value as a string, with numbers and booleans
// formatted the way the ERP's string fields carry them. Absent values
// render as the empty string.
func (v attrValue) String() string {
	switch val := v.Value.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// projectRecord is one raw project row from the listing endpoint.
type projectRecord struct {
	ProjectID             attrValue `json:"ProjectID"`
	ClientCustomerID      attrValue `json:"ClientCustomerID"`
	ProjectName           attrValue `json:"ProjectName"`
	MasterProjectName     attrValue `json:"MasterProjectName"`
	Status                attrValue `json:"Status"`
	Branch                attrValue `json:"Branch"`
	EgnyteFolderStatus    attrValue `json:"EgnyteFolderStatus"`
	MasterProjectTrue     attrValue `json:"MasterProjectTrue"`
	AddToExistingSeries   attrValue `json:"AddToExistingSeries"`
	DepartmentDescription attrValue `json:"DepartmentDescription"`
	ContractAmount        attrValue `json:"ContractAmount"`
	Market                attrValue `json:"Market"`
	SubMarket             attrValue `json:"SubMarket"`
	ServiceType           attrValue `json:"ServiceType"`
}

// projectListResponse is the envelope of the project listing endpoint.
type projectListResponse struct {
	Value []projectRecord `json:"value"`
}
