package handler

import (
	"strings"

	"github.com/asaskevich/govalidator"

	"customerapi/internal/customer/models"
	dErrors "customerapi/pkg/domain-errors"
)

// CustomerRequest is the body of create and update calls. A null field and an
// empty string are both treated as missing.
type CustomerRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (r *CustomerRequest) Normalize() {
	if r.Name != nil {
		v := strings.TrimSpace(*r.Name)
		r.Name = &v
	}
	if r.Email != nil {
		v := strings.TrimSpace(*r.Email)
		r.Email = &v
	}
}

func (r *CustomerRequest) Validate() error {
	name, email := r.NameValue(), r.EmailValue()
	if msg := models.MissingFieldsMessage(name, email); msg != "" {
		return dErrors.New(dErrors.CodeValidation, msg)
	}
	if !govalidator.StringLength(name, "1", "255") {
		return dErrors.New(dErrors.CodeValidation, "name must be 255 characters or less")
	}
	if !govalidator.StringLength(email, "1", "255") {
		return dErrors.New(dErrors.CodeValidation, "email must be 255 characters or less")
	}
	if !govalidator.IsEmail(email) {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid email address")
	}
	return nil
}

func (r *CustomerRequest) NameValue() string {
	if r.Name == nil {
		return ""
	}
	return *r.Name
}

func (r *CustomerRequest) EmailValue() string {
	if r.Email == nil {
		return ""
	}
	return *r.Email
}
