package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

func OK() Response {
	return Response{Status: StatusOK}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// FieldErrors reports a per-field validation failure.
func FieldErrors(fields map[string]string) Response {
	return Response{
		Status: StatusError,
		Error:  "Validation failed",
		Fields: fields,
	}
}

// ValidationError maps struct-tag violations from the request decoder to a
// user-facing message per field.
func ValidationError(errs validator.ValidationErrors) Response {
	fields := make(map[string]string, len(errs))

	for _, err := range errs {
		field := strings.ToLower(err.Field())

		switch err.ActualTag() {
		case "required":
			fields[field] = fmt.Sprintf("field %s is required", field)
		case "email":
			fields[field] = fmt.Sprintf("field %s must be a valid email", field)
		default:
			fields[field] = fmt.Sprintf("field %s is not valid", field)
		}
	}

	return FieldErrors(fields)
}
