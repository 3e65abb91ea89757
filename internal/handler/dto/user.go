// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/devops-challenge/userapi/internal/model"
)

// CreateUserRequest is the POST /v1/users body, an Item[NewUser].
type CreateUserRequest struct {
	Data *NewUserRequest `json:"data" validate:"required"`
}

// NewUserRequest is the data of CreateUserRequest. Fields are pointers so a
// missing key or null is told apart from an empty string; only presence is
// required.
type NewUserRequest struct {
	Email *string `json:"email" validate:"required"`
	Name  *string `json:"name" validate:"required"`
}

// NewUser converts a validated request into the model.
func (r *NewUserRequest) NewUser() model.NewUser {
	var in model.NewUser
	if r.Email != nil {
		in.Email = *r.Email
	}
	if r.Name != nil {
		in.Name = *r.Name
	}
	return in
}

// UserResponse wraps a single user.
type UserResponse = model.Item[model.User]

// UserListResponse is one page of users.
type UserListResponse = model.Collection[model.User]

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// InfoResponse is returned by GET /.
type InfoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks v against its validate tags. On failure it returns the
// offending fields keyed by JSON path (e.g. "data.email") with the failed
// rule as value.
func Validate(v any) (map[string]string, error) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return fields, nil
}

// fieldPath drops the Go type name that leads a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
