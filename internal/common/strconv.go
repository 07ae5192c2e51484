package common

import (
	"strconv"
	"strings"
)

// ParseOptionalBool parses "true"/"false" style flags. An empty value yields nil.
func ParseOptionalBool(value string) (*bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
