package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// UseWireFieldNames makes validation errors report fields by their form or
// JSON name instead of the Go struct field name.
func UseWireFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"form", "json"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	})
}

// FromBinding converts an error returned by gin's ShouldBind* family into an
// API error. Errors it does not recognize become a bad request.
func FromBinding(err error) *Error {
	if err == nil {
		return nil
	}
	if apiErr := classifyBinding(err); apiErr != nil {
		return apiErr
	}
	return BadRequest("invalid request").WithCause(err)
}

// classifyValidation recognizes the error shape produced by the validator.
func classifyValidation(err error) *Error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}
	violations := make([]Violation, 0, len(validationErrs))
	for _, fe := range validationErrs {
		violations = append(violations, Violation{
			Field:   fe.Field(),
			Message: describe(fe),
		})
	}
	return Validation(violations...).WithCause(err)
}

func classifyBinding(err error) *Error {
	if apiErr := classifyValidation(err); apiErr != nil {
		return apiErr
	}

	var (
		numErr    *strconv.NumError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &numErr):
		return ValidationMessages(fmt.Sprintf("%q is not a valid number", numErr.Num)).WithCause(err)
	case errors.As(err, &tooLarge):
		return New(http.StatusRequestEntityTooLarge, "request body too large").WithCause(err)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return BadRequest("malformed JSON body").WithCause(err)
	case errors.As(err, &typeErr):
		return Validation(Violation{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type),
		}).WithCause(err)
	case errors.Is(err, io.EOF):
		return BadRequest("request body is empty").WithCause(err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", field)
	default:
		return fmt.Sprintf("%s failed the %q check", field, fe.Tag())
	}
}
