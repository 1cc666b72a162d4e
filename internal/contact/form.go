package contact

import "strings"

// Method is the contact channel the submitter prefers.
type Method string

const (
	// MethodUnset means no channel was selected.
	MethodUnset Method = ""
	// MethodPhone selects phone contact; phone becomes required.
	MethodPhone Method = "phone"
	// MethodEmail selects email contact; email becomes required.
	MethodEmail Method = "email"
)

// ParseMethod trims v and matches it exactly, so "Phone" is not a method.
// Unknown values map to MethodUnset.
func ParseMethod(v string) Method {
	switch Method(strings.TrimSpace(v)) {
	case MethodPhone:
		return MethodPhone
	case MethodEmail:
		return MethodEmail
	default:
		return MethodUnset
	}
}

// Form holds the raw field values of a contact form submission.
type Form struct {
	FullName         string `json:"fullName" validate:"required"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	PreferredContact Method `json:"preferredContact"`
	Comments         string `json:"comments" validate:"required"`
}

// Normalize trims every field. A field counts as filled only after trimming.
func (f Form) Normalize() Form {
	return Form{
		FullName:         strings.TrimSpace(f.FullName),
		Phone:            strings.TrimSpace(f.Phone),
		Email:            strings.TrimSpace(f.Email),
		PreferredContact: ParseMethod(string(f.PreferredContact)),
		Comments:         strings.TrimSpace(f.Comments),
	}
}

// Request is the accepted submission built from a valid form.
type Request struct {
	FullName         string `json:"fullName"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	PreferredContact Method `json:"preferredContact"`
	Comments         string `json:"comments"`
}
