package validator

import (
	"context"
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

var (
	global        *validator.Validate
	paymentStates = map[string]struct{}{"pending": {}, "completed": {}}
)

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrInvalidEmail       = "Invalid email address"
	ErrInvalidImageURL    = "Image must be an http(s) URL or a data:image URI"
	ErrInvalidPayment     = "Unknown payment status"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("notblank", validateNotBlank)
	_ = v.RegisterValidation("imageurl", imageURLRule(v))
	_ = v.RegisterValidation("paymentstatus", validatePaymentStatus)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

// jsonFieldName reports fields by their wire name so messages match what clients sent.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// imageURLRule accepts an absolute http(s) URL or a base64 data:image URI,
// reusing the built-in url and datauri checks.
func imageURLRule(v *validator.Validate) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		switch {
		case strings.HasPrefix(s, "data:image/"):
			return v.Var(s, "datauri") == nil
		case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
			u, err := url.Parse(s)
			return err == nil && u.Host != "" && v.Var(s, "url") == nil
		}
		return false
	}
}

func validatePaymentStatus(fl validator.FieldLevel) bool {
	_, ok := paymentStates[fl.Field().String()]
	return ok
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return err
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required", "notblank":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
		if isNumeric(ve.Kind()) {
			msg = ErrFieldExceedsMaxVal
		}
	case "min":
		msg = ErrFieldBelowMinLen
		if isNumeric(ve.Kind()) {
			msg = ErrFieldBelowMinVal
		}
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal
	case "gt", "gte":
		msg = ErrFieldBelowMinVal
	case "email":
		msg = ErrInvalidEmail
	case "imageurl":
		msg = ErrInvalidImageURL
	case "paymentstatus":
		msg = ErrInvalidPayment
	default:
		msg = ErrUnknownValidation
	}
	return errors.New(msg + ": " + ve.Field())
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
