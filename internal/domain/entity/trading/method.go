package trading

import (
	"fmt"
	"strings"
)

// Method selects the order in which open lots are consumed by a sell.
type Method string

const (
	MethodFIFO Method = "FIFO"
	MethodLIFO Method = "LIFO"

	DefaultMethod = MethodFIFO
)

func (m Method) String() string {
	return string(m)
}

func (m Method) IsValid() bool {
	switch m {
	case MethodFIFO, MethodLIFO:
		return true
	default:
		return false
	}
}

// Descending reports whether lots are walked newest first.
func (m Method) Descending() bool {
	return m == MethodLIFO
}

// ParseMethod accepts FIFO or LIFO in any letter case. An empty value yields DefaultMethod.
func ParseMethod(s string) (Method, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultMethod, nil
	}
	m := Method(strings.ToUpper(s))
	if !m.IsValid() {
		return "", &ValidationError{
			Fields: []FieldError{{Field: "method", Message: fmt.Sprintf("must be either FIFO or LIFO, got %q", s)}},
		}
	}
	return m, nil
}
