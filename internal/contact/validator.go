package contact

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/toko-storefront/internal/common"
)

var (
	phonePattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)
	// \s in RE2 is ASCII only; \p{Z} and U+FEFF cover the remaining Unicode spaces.
	emailPattern = regexp.MustCompile(`^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]+$`)
)

const (
	tagPhone = "phone_dashed"
	tagEmail = "email_shape"
)

// Result is the outcome of one validation pass. A new Result is built on every
// pass and never modified afterwards.
type Result struct {
	Valid       bool              `json:"valid"`
	FieldErrors map[string]string `json:"fieldErrors"`
	FormError   string            `json:"formError,omitempty"`
	Notice      common.Notice     `json:"notice"`
	Request     *Request          `json:"request,omitempty"`
	// Reset tells the caller to clear the stored field values. Only set on success.
	Reset bool `json:"reset"`
}

// Validator checks contact forms. The zero value is not usable; call NewValidator.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the field formats and the channel rules.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, tagPhone, phonePattern)
	mustRegister(v, tagEmail, emailPattern)
	v.RegisterStructValidation(channelRules, Form{})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("contact: register %s: %v", tag, err))
	}
}

// channelRules applies the rules that depend on the selected contact method. The
// channel that was not chosen is optional but still format checked when filled.
func channelRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(Form)
	method := string(f.PreferredContact)
	switch f.PreferredContact {
	case MethodPhone:
		requireChannel(sl, f.Phone, FieldPhone, "Phone", tagPhone, method)
		optionalChannel(sl, f.Email, FieldEmail, "Email", tagEmail, method)
	case MethodEmail:
		requireChannel(sl, f.Email, FieldEmail, "Email", tagEmail, method)
		optionalChannel(sl, f.Phone, FieldPhone, "Phone", tagPhone, method)
	default:
		sl.ReportError(f.PreferredContact, FieldPreferredContact, "PreferredContact", "required", "")
	}
}

func requireChannel(sl validator.StructLevel, value, field, structField, format, method string) {
	if value == "" {
		sl.ReportError(value, field, structField, "required", method)
		return
	}
	optionalChannel(sl, value, field, structField, format, method)
}

func optionalChannel(sl validator.StructLevel, value, field, structField, format, method string) {
	if value == "" {
		return
	}
	if err := sl.Validator().Var(value, format); err != nil {
		sl.ReportError(value, field, structField, format, method)
	}
}

// Validate runs every rule against form and collects all failures. On success the
// result carries the accepted Request and a confirmation notice.
func (val *Validator) Validate(form Form) Result {
	form = form.Normalize()
	res := Result{FieldErrors: map[string]string{}}

	if err := val.v.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			res.FormError = fmt.Sprintf("validation failed: %v", err)
		}
		for _, fe := range verrs {
			field := fe.Field()
			msg := message(field, fe.Tag(), fe.Param())
			if field == FieldPreferredContact {
				res.FormError = msg
				continue
			}
			if _, exists := res.FieldErrors[field]; !exists {
				res.FieldErrors[field] = msg
			}
		}
	}

	if len(res.FieldErrors) > 0 || res.FormError != "" {
		res.Notice = common.ErrorNotice(SummaryMessage)
		return res
	}

	req := Request(form)
	res.Valid = true
	res.Request = &req
	res.Reset = true
	res.Notice = common.SuccessNotice(fmt.Sprintf("Message sent! Thanks, %s. We will contact you via %s.", req.FullName, req.PreferredContact))
	return res
}
