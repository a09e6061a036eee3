package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"stockapi/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Violation is a single failed rule for a field.
type Violation struct {
	Field   string
	Message string
}

// Check is a data-dependent rule, such as uniqueness or existence, evaluated
// after the declarative struct rules.
type Check func(ctx context.Context) ([]Violation, error)

// Validator checks request DTOs against their `validate` struct tags and any
// additional data-dependent checks, collecting every violation.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// maxbytes bounds the encoded length of a string, not its rune count.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})

	return &Validator{validate: v}
}

// Validate runs the struct rules of req followed by every check. It returns
// nil when everything passes, a *model.Error of kind validation listing every
// violation, or a plain error when a check could not be evaluated.
func (v *Validator) Validate(ctx context.Context, req any, checks ...Check) error {
	fields := make(map[string][]string)

	if err := v.validate.StructCtx(ctx, req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate request: %w", err)
		}
		for _, fe := range verrs {
			name := fieldName(fe)
			fields[name] = append(fields[name], message(name, fe))
		}
	}

	for _, check := range checks {
		violations, err := check(ctx)
		if err != nil {
			return err
		}
		for _, vl := range violations {
			fields[vl.Field] = append(fields[vl.Field], vl.Message)
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return model.NewValidationError(fields)
}

// Unique fails field when taken reports that value is already used by
// another row.
func Unique(field string, taken func(ctx context.Context) (bool, error)) Check {
	return func(ctx context.Context) ([]Violation, error) {
		exists, err := taken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to check uniqueness of %s: %w", field, err)
		}
		if exists {
			return []Violation{{Field: field, Message: UniqueMessage(field)}}, nil
		}
		return nil, nil
	}
}

// Exists fails field for every id that missing reports as not referencing an
// existing row. It is a no-op for an empty id list.
func Exists(field string, ids []int64, missing func(ctx context.Context, ids []int64) ([]int64, error)) Check {
	return func(ctx context.Context) ([]Violation, error) {
		if len(ids) == 0 {
			return nil, nil
		}
		absent, err := missing(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to check existence of %s: %w", field, err)
		}
		if len(absent) == 0 {
			return nil, nil
		}
		sort.Slice(absent, func(i, j int) bool { return absent[i] < absent[j] })
		parts := make([]string, len(absent))
		for i, id := range absent {
			parts[i] = strconv.FormatInt(id, 10)
		}
		return []Violation{{
			Field:   field,
			Message: fmt.Sprintf("The selected %s are invalid: %s.", field, strings.Join(parts, ", ")),
		}}, nil
	}
}

// Decimals fails field when value has more than places fractional digits.
// It is a no-op for a nil value.
func Decimals(field string, value *decimal.Decimal, places int32) Check {
	return func(ctx context.Context) ([]Violation, error) {
		if value == nil || value.Equal(value.Truncate(places)) {
			return nil, nil
		}
		return []Violation{{
			Field:   field,
			Message: fmt.Sprintf("The %s field must not have more than %d decimal places.", field, places),
		}}, nil
	}
}

// UniqueMessage is the message reported when a unique rule fails.
func UniqueMessage(field string) string {
	return fmt.Sprintf("The %s has already been taken.", field)
}

// FromDecodeError turns a JSON type mismatch into a validation error on the
// offending field. Any other decode error is returned unchanged.
func FromDecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return model.NewValidationError(map[string][]string{
			typeErr.Field: {fmt.Sprintf("The %s field must be of type %s.", typeErr.Field, typeName(typeErr.Type))},
		})
	}
	return err
}

// fieldName drops the struct name from the namespace so nested and dived
// fields read as "categories.0".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	ns = strings.ReplaceAll(ns, "[", ".")
	return strings.ReplaceAll(ns, "]", "")
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "min":
		if fe.Kind() == reflect.String {
			if fe.Param() == "1" {
				return fmt.Sprintf("The %s field is required.", field)
			}
			return fmt.Sprintf("The %s field must be at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", field, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("The %s field must not be greater than %s bytes.", field, fe.Param())
	case "gte":
		return fmt.Sprintf("The %s field must be at least %s.", field, fe.Param())
	case "lte":
		return fmt.Sprintf("The %s field must not be greater than %s.", field, fe.Param())
	case "gt":
		return fmt.Sprintf("The selected %s is invalid.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "unknown"
	}
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice {
		if t.Kind() == reflect.Slice {
			return "array"
		}
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "numeric"
	case reflect.String:
		return "string"
	default:
		if t == reflect.TypeOf(decimal.Decimal{}) {
			return "numeric"
		}
		return t.Kind().String()
	}
}
