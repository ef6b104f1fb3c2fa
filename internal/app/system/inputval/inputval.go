// Package inputval validates decoded JSON request bodies using
// waffle/pantry/validate.
//
// Required-field checks go through RequireAll so a request missing several
// fields gets one 400 naming all of them. Format rules (lengths, enums,
// URLs, ids) are struct tags checked by Validate:
//
//	type createNewsInput struct {
//	    Title    string `json:"title" validate:"max=200" label:"Title"`
//	    ImageURL string `json:"imageUrl" validate:"httpurl" label:"Image URL"`
//	}
//
//	if err := inputval.RequireAll(inputval.Need("title", in.Title != "")); err != nil {
//	    jsonutil.Fail(w, r, h.log, err)
//	    return
//	}
//	if err := inputval.Validate(in).Err(); err != nil {
//	    jsonutil.Fail(w, r, h.log, err)
//	    return
//	}
package inputval

import (
	"net/mail"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dalemusser/noorhub/internal/app/system/apperr"
	"github.com/dalemusser/noorhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError represents a validation error for a single field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors returns true if there are any validation errors.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or empty string if no errors.
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// All returns all error messages joined with "; ".
func (r *Result) All() string {
	if len(r.Errors) == 0 {
		return ""
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Err converts the result into a 400 carrying the first message and the
// offending field names, or nil when valid.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	fields := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		fields[i] = e.Field
	}
	return apperr.Invalid(r.First(), fields...)
}

// Check is one required-field test for RequireAll.
type Check struct {
	Field string
	OK    bool
}

// Need pairs a JSON field name with whether it was supplied.
func Need(field string, ok bool) Check {
	return Check{Field: field, OK: ok}
}

// RequireAll returns a MissingFields error naming every failed check, in
// order, or nil.
func RequireAll(checks ...Check) error {
	var missing []string
	for _, c := range checks {
		if !c.OK {
			missing = append(missing, c.Field)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return apperr.MissingFields(missing...)
}

var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

func stringRule(fn func(string) bool) func(any) bool {
	return func(value any) bool {
		s, ok := value.(string)
		return ok && fn(s)
	}
}

// optional lets empty strings through; pair with "required" when needed.
func optional(fn func(string) bool) func(string) bool {
	return func(s string) bool {
		return strings.TrimSpace(s) == "" || fn(s)
	}
}

func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New(validate.WithStopOnFirstError())

		customValidator.RegisterRuleFunc("authmethod", stringRule(IsValidAuthMethod), "authmethod")
		customValidator.RegisterRuleFunc("httpurl", stringRule(optional(IsValidHTTPURL)), "httpurl")
		customValidator.RegisterRuleFunc("objectid", stringRule(optional(IsValidObjectID)), "objectid")
		customValidator.RegisterRuleFunc("role", stringRule(optional(IsValidRole)), "role")
		customValidator.RegisterRuleFunc("contenttype", stringRule(optional(IsValidContentType)), "contenttype")
		customValidator.RegisterRuleFunc("collection", stringRule(optional(IsValidCollection)), "collection")
		customValidator.RegisterRuleFunc("navtype", stringRule(optional(IsValidNavType)), "navtype")
	})
	return customValidator
}

// Validate validates a struct and returns a Result with user-friendly errors.
// The struct should have `validate` tags for rules and optional `label` tags
// for user-friendly field names.
//
// Rules from pantry/validate: required, email, oneof, min, max.
// Rules registered here: authmethod, httpurl, objectid, role, contenttype,
// collection, navtype. The registered rules accept an empty string.
func Validate(s any) *Result {
	result := &Result{}

	err := getValidator().Struct(s)
	if err == nil {
		return result
	}

	fields := describeFields(s)

	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			f := fields[e.Field]
			label := f.label
			if label == "" {
				label = e.Field
			}
			result.Errors = append(result.Errors, FieldError{
				Field:   e.Field,
				Label:   label,
				Message: formatMessage(label, e.Rule, e.Param, f.numeric),
			})
		}
	}

	return result
}

type fieldInfo struct {
	label   string
	numeric bool
}

// describeFields maps a field's JSON name (or Go name) to its label and kind.
func describeFields(s any) map[string]fieldInfo {
	out := make(map[string]fieldInfo)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return out
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		name := field.Name
		if jsonTag := field.Tag.Get("json"); jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" && parts[0] != "-" {
				name = parts[0]
			}
		}

		switch field.Type.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			out[name] = fieldInfo{label: field.Tag.Get("label"), numeric: true}
		default:
			out[name] = fieldInfo{label: field.Tag.Get("label")}
		}
	}

	return out
}

func formatMessage(label, rule, param string, numeric bool) string {
	switch rule {
	case "required":
		return label + " is required."
	case "email":
		return "A valid email address is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		if numeric {
			return label + " must be at least " + param + "."
		}
		return label + " must be at least " + param + " characters."
	case "max":
		if numeric {
			return label + " must be at most " + param + "."
		}
		return label + " must be at most " + param + " characters."
	case "authmethod":
		return label + " must be one of: " + strings.Join(models.AllAuthMethods, ", ") + "."
	case "httpurl":
		return label + " must be a valid URL starting with http:// or https://."
	case "objectid":
		return label + " is not a valid ID."
	case "role":
		return label + " must be one of: " + strings.Join(models.RoleStrings(), ", ") + "."
	case "contenttype":
		return label + " must be one of: " + strings.Join(models.AllContentTypes(), ", ") + "."
	case "collection":
		return label + " must be one of: " + strings.Join(models.AllHadithCollections(), ", ") + "."
	case "navtype":
		return label + " must be one of: " + strings.Join(models.AllNavTypes(), ", ") + "."
	default:
		return label + " is invalid."
	}
}

// IsValidEmail checks if the given string is a bare RFC 5322 address.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// ParseAddress accepts "Name <email>"; only the bare form is allowed.
	return addr.Address == email
}

// IsValidAuthMethod checks if the given method (case-insensitive) is a valid auth method.
func IsValidAuthMethod(method string) bool {
	return models.IsValidAuthMethod(strings.ToLower(strings.TrimSpace(method)))
}

// IsValidHTTPURL checks if the given string is a valid http:// or https:// URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidObjectID checks if the given string is a valid MongoDB ObjectID hex.
func IsValidObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

// IsValidRole reports whether s names a role.
func IsValidRole(s string) bool {
	_, ok := models.ParseRole(s)
	return ok
}

// IsValidContentType reports whether s is a bookmarkable content type.
func IsValidContentType(s string) bool {
	return contains(models.AllContentTypes(), s)
}

// IsValidCollection reports whether s is a known hadith collection.
func IsValidCollection(s string) bool {
	return contains(models.AllHadithCollections(), s)
}

// IsValidNavType reports whether s is a navbar item type.
func IsValidNavType(s string) bool {
	return contains(models.AllNavTypes(), s)
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Length checks that s has between min and max runes after trimming.
// It is for optional update fields, where struct tags do not apply.
func Length(field, label, s string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	switch {
	case n < min && min <= 1:
		return apperr.Invalid(label+" is required.", field)
	case n < min:
		return apperr.Invalid(label+" must be at least "+strconv.Itoa(min)+" characters.", field)
	case max > 0 && n > max:
		return apperr.Invalid(label+" must be at most "+strconv.Itoa(max)+" characters.", field)
	}
	return nil
}

// URL checks an optional http(s) URL for update fields.
func URL(field, label, s string) error {
	if strings.TrimSpace(s) == "" || IsValidHTTPURL(s) {
		return nil
	}
	return apperr.Invalid(label+" must be a valid URL starting with http:// or https://.", field)
}
