package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"stockapi/internal/model"

	"github.com/shopspring/decimal"
)

// ParseIDList decodes a form field holding a list of ids. The values may be
// a single JSON array ("[1,2]"), repeated fields, comma-separated lists, or a
// mix of the last two. Blank entries are skipped.
func ParseIDList(field string, values []string) ([]int64, error) {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var ids []int64
		if err := json.Unmarshal([]byte(values[0]), &ids); err != nil {
			return nil, fieldError(field, fmt.Sprintf("The %s field must be an array.", field))
		}
		return ids, nil
	}

	ids := []int64{}
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				name := fmt.Sprintf("%s.%d", field, len(ids))
				return nil, fieldError(name, fmt.Sprintf("The %s field must be an integer.", name))
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ParseDecimal decodes an optional numeric form field. An empty value is
// reported as absent.
func ParseDecimal(field, value string) (*decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fieldError(field, fmt.Sprintf("The %s field must be a number.", field))
	}
	return &d, nil
}

// ParseInt decodes an optional integer form field. An empty value is
// reported as absent.
func ParseInt(field, value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return nil, fieldError(field, fmt.Sprintf("The %s field must be an integer.", field))
	}
	return &i, nil
}

// Merge combines the field violations of several validation errors into
// one. Nil errors are skipped; the first error that is not a validation
// error is returned as is.
func Merge(errs ...error) error {
	fields := make(map[string][]string)
	for _, err := range errs {
		if err == nil {
			continue
		}
		de, ok := model.AsError(err)
		if !ok {
			return err
		}
		for name, msgs := range de.Fields {
			fields[name] = append(fields[name], msgs...)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return model.NewValidationError(fields)
}

func fieldError(field, msg string) error {
	return model.NewValidationError(map[string][]string{field: {msg}})
}
