// Package validation checks request payloads before they reach the store.
package validation

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"stockroom/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	msgBodyRequired     = "body required"
	msgImmutableFields  = "immutable fields present"
	msgNoUpdatable      = "no updatable fields"
	msgUserRequired     = "first_name,last_name,username,password required"
	msgUsernameEmail    = "username must be a valid email address"
	msgPasswordLength   = "password must be >= 8 chars"
	msgProductRequired  = "name,description,sku,manufacturer required"
	msgQuantity         = "quantity must be a non-negative integer"
	msgTokenCredentials = "username,password required"
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("email_shape", validateEmailShape); err != nil {
		panic(err)
	}
}

func validateEmailShape(fl validator.FieldLevel) bool {
	return emailShape.MatchString(fl.Field().String())
}

// fields is a decoded JSON object keyed by its raw member names.
type fields map[string]json.RawMessage

func decodeObject(body []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(body, &f); err != nil || f == nil {
		return nil, models.NewValidationError(msgBodyRequired)
	}
	return f, nil
}

func (f fields) has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := f[k]; ok {
			return true
		}
	}
	return false
}

// str returns the member as a string. Non-string members read as empty so
// they fail the blank checks.
func (f fields) str(key string) string {
	raw, ok := f[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func (f fields) optionalStr(key string) *string {
	if _, ok := f[key]; !ok {
		return nil
	}
	s := f.str(key)
	return &s
}

// integer accepts JSON numbers with no fractional part only.
func (f fields) integer(key string) (int, bool) {
	raw, ok := f[key]
	if !ok {
		return 0, false
	}
	text := strings.TrimSpace(string(raw))
	if text == "" || (text[0] != '-' && (text[0] < '0' || text[0] > '9')) {
		return 0, false
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil || n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, false
	}
	return int(n), true
}

// firstFailure returns the struct field name of the first failed rule.
func firstFailure(err error) (field, tag string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].StructField(), verrs[0].Tag()
	}
	return "", ""
}

func hasTag(err error, tag string) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() == tag {
			return true
		}
	}
	return false
}
