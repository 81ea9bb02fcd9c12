package entity

// FormType tags the kind of field paperwork a record holds
type FormType string

const (
	FormTimesheet       FormType = "timesheet"
	FormMaterialLog     FormType = "material_log"
	FormSafetyChecklist FormType = "safety_checklist"
	FormBillOfLading    FormType = "bill_of_lading"
)

var validFormTypes = map[FormType]bool{
	FormTimesheet:       true,
	FormMaterialLog:     true,
	FormSafetyChecklist: true,
	FormBillOfLading:    true,
}

// IsValid returns true if the form type is one of the known paperwork kinds
func (f FormType) IsValid() bool {
	return validFormTypes[f]
}

// String returns the string representation of the form type
func (f FormType) String() string {
	return string(f)
}
