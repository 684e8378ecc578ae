package validation

import "stockroom/internal/models"

var userSystemFields = []string{"id", "account_created", "account_updated", "email_verified"}

// NewUserInput is a validated account creation request.
type NewUserInput struct {
	FirstName string `validate:"notblank"`
	LastName  string `validate:"notblank"`
	Username  string `validate:"notblank,email_shape"`
	Password  string `validate:"notblank,min=8"`
}

// UserUpdateInput holds the profile fields a user may change. Nil means untouched.
type UserUpdateInput struct {
	FirstName *string `validate:"omitnil,notblank"`
	LastName  *string `validate:"omitnil,notblank"`
	Password  *string `validate:"omitnil,min=8"`
}

// Credentials is a token exchange request.
type Credentials struct {
	Username string `validate:"notblank"`
	Password string `validate:"notblank"`
}

// NewUser validates an account creation body.
func NewUser(body []byte) (*NewUserInput, error) {
	f, err := decodeObject(body)
	if err != nil {
		return nil, err
	}

	in := &NewUserInput{
		FirstName: f.str("first_name"),
		LastName:  f.str("last_name"),
		Username:  f.str("username"),
		Password:  f.str("password"),
	}
	if err := validate.Struct(in); err != nil {
		if hasTag(err, "notblank") {
			return nil, models.NewValidationError(msgUserRequired)
		}
		if field, _ := firstFailure(err); field == "Username" {
			return nil, models.NewValidationError(msgUsernameEmail)
		}
		return nil, models.NewValidationError(msgPasswordLength)
	}

	if f.has(userSystemFields...) {
		return nil, models.NewValidationError(msgImmutableFields)
	}
	return in, nil
}

// UserUpdate validates a profile update body. Usernames never change. An
// object with no recognized members is accepted and only touches account_updated.
func UserUpdate(body []byte) (*UserUpdateInput, error) {
	f, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	if f.has("username") || f.has(userSystemFields...) {
		return nil, models.NewValidationError(msgImmutableFields)
	}

	in := &UserUpdateInput{
		FirstName: f.optionalStr("first_name"),
		LastName:  f.optionalStr("last_name"),
		Password:  f.optionalStr("password"),
	}
	if err := validate.Struct(in); err != nil {
		switch field, _ := firstFailure(err); field {
		case "FirstName":
			return nil, models.NewValidationError("first_name required")
		case "LastName":
			return nil, models.NewValidationError("last_name required")
		default:
			return nil, models.NewValidationError(msgPasswordLength)
		}
	}
	return in, nil
}

// TokenRequest validates a username and password exchange body.
func TokenRequest(body []byte) (*Credentials, error) {
	f, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	in := &Credentials{Username: f.str("username"), Password: f.str("password")}
	if err := validate.Struct(in); err != nil {
		return nil, models.NewValidationError(msgTokenCredentials)
	}
	return in, nil
}
