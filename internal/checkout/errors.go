package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrLoginRequired     = errors.New("login required to checkout")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition = errors.New("illegal transition of checkout step")
)

// ValidationError lists delivery fields that were left empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func illegal(from, to Step) error {
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

func missingFields(fields map[string]string) *ValidationError {
	var missing []string
	for name, value := range fields {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &ValidationError{Fields: missing}
}
