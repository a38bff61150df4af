package anthropicadapter

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator caches struct metadata per instance.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so errors match the request body.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(validateMessageContent, Message{})
	v.RegisterStructValidation(validateSystemContent, CreateMessageRequest{})

	return v
}

// validateMessageContent requires message content to be a string or a block array.
func validateMessageContent(sl validator.StructLevel) {
	msg := sl.Current().Interface().(Message)
	switch msg.Content.Kind() {
	case ContentKindText, ContentKindBlocks:
	default:
		sl.ReportError(msg.Content, "content", "Content", "text_or_blocks", msg.Content.Kind().String())
	}
}

// validateSystemContent allows an absent system prompt, a string or a block array.
func validateSystemContent(sl validator.StructLevel) {
	req := sl.Current().Interface().(CreateMessageRequest)
	switch req.System.Kind() {
	case ContentKindAbsent, ContentKindText, ContentKindBlocks:
	default:
		sl.ReportError(req.System, "system", "System", "text_or_blocks", req.System.Kind().String())
	}
}

// Validate checks field types and ranges of the request.
// The returned error is an *ErrorResponse of type invalid_request_error.
func (r *CreateMessageRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return NewErrorResponse(ErrorTypeInvalidRequest, err.Error())
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return NewErrorResponse(ErrorTypeInvalidRequest, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	// Drop the root struct name from the namespace.
	_, field, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		field = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: field required", field)
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s: must be less than or equal to %s", field, fe.Param())
	case "text_or_blocks":
		return fmt.Sprintf("%s: must be a string or an array of content blocks, got %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s: failed on the %q rule", field, fe.Tag())
	}
}
