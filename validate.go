package gofeed

import (
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// UserInput is the signup payload.
type UserInput struct {
	Email    string `json:"email" validate:"required,email" msg:"Email is invalid."`
	Password string `json:"password" validate:"required,min=5" msg:"Password is too short."`
	Name     string `json:"name" validate:"required" msg:"Name is invalid."`
}

// PostInput is the create and update payload for posts.
type PostInput struct {
	Title    string `json:"title" validate:"required,min=5" msg:"title is invalid."`
	Content  string `json:"content" validate:"required,min=5" msg:"content is invalid."`
	ImageURL string `json:"imageUrl"`
}

type statusInput struct {
	Status string `validate:"required,min=5"`
}

// Validator checks operation inputs. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// User checks a signup payload, collecting every violation.
func (v *Validator) User(in UserInput) error {
	return v.collect(in, "Invalid user input.")
}

// Post checks a post payload, collecting every violation.
func (v *Validator) Post(in PostInput) error {
	return v.collect(in, "Invalid input")
}

// Status checks a status update.
func (v *Validator) Status(status string) error {
	if err := v.v.Struct(statusInput{Status: status}); err != nil {
		return NewError(CodeValidationFailed, "Invalid status.", err)
	}
	return nil
}

// collect converts a struct's validation errors into one ValidationFailed error whose Data
// carries the msg tag of each failing field, in declaration order.
func (v *Validator) collect(in any, message string) error {
	err := v.v.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Classify(err)
	}

	t := reflect.TypeOf(in)
	data := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Field() + " is invalid."
		if f, ok := t.FieldByName(fe.StructField()); ok && f.Tag.Get("msg") != "" {
			msg = f.Tag.Get("msg")
		}
		data = append(data, FieldError{Message: msg})
	}
	return &Error{Code: CodeValidationFailed, Message: message, Data: data, Err: err}
}
