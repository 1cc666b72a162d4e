package contact

// Field names used as keys in Result.FieldErrors.
const (
	FieldFullName         = "fullName"
	FieldPhone            = "phone"
	FieldEmail            = "email"
	FieldComments         = "comments"
	FieldPreferredContact = "preferredContact"
)

const (
	msgNameRequired     = "Name is required."
	msgCommentsRequired = "Comments are required."
	msgMethodRequired   = "Please select how you'd like us to contact you."
	msgPhoneRequired    = "Phone number is required because you chose phone."
	msgPhoneFormat      = "Use format 123-456-7890."
	msgEmailRequired    = "Email is required because you chose email."
	msgEmailInvalid     = "Please enter a valid email address."
	msgEmailFormat      = "Email format looks incorrect."

	// SummaryMessage accompanies every invalid result.
	SummaryMessage = "Please fix the highlighted fields above."
)

// message maps a failed rule to the text shown next to the field. param carries
// the selected channel for rules that depend on it.
func message(field, tag, param string) string {
	switch field {
	case FieldFullName:
		return msgNameRequired
	case FieldComments:
		return msgCommentsRequired
	case FieldPreferredContact:
		return msgMethodRequired
	case FieldPhone:
		if tag == "required" {
			return msgPhoneRequired
		}
		return msgPhoneFormat
	case FieldEmail:
		if tag == "required" {
			return msgEmailRequired
		}
		if param == string(MethodEmail) {
			return msgEmailInvalid
		}
		return msgEmailFormat
	default:
		return "Invalid value."
	}
}
