package tenancy

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxTenantIDLength bounds the identifier length regardless of the configured pattern.
	MaxTenantIDLength = 64

	// DefaultTenantIDPattern allows letters, digits and underscores.
	DefaultTenantIDPattern = `^[A-Za-z0-9_]{1,64}$`
)

// deniedFragments are rejected case-insensitively anywhere in an identifier.
// Identifiers end up in database names and cache keys.
var deniedFragments = []string{";", "--", "/*", "*/", "xp_", "sp_", "drop", "delete", "insert", "update"}

// IDValidator checks tenant identifiers before they are turned into resource names.
// Every component deriving a name from a tenant id goes through the same validator.
type IDValidator struct {
	pattern *regexp.Regexp
}

var defaultIDValidator = &IDValidator{pattern: regexp.MustCompile(DefaultTenantIDPattern)}

// DefaultIDValidator returns the validator using DefaultTenantIDPattern.
func DefaultIDValidator() *IDValidator {
	return defaultIDValidator
}

// NewIDValidator compiles pattern into a validator. An empty pattern selects the default.
func NewIDValidator(pattern string) (*IDValidator, error) {
	if pattern == "" {
		return defaultIDValidator, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: tenant id pattern: %v", ErrConfiguration, err)
	}
	return &IDValidator{pattern: re}, nil
}

// Validate returns nil for an acceptable id, otherwise ErrInvalidTenantID wrapped with the reason.
func (v *IDValidator) Validate(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidTenantID)
	case len(id) > MaxTenantIDLength:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidTenantID, MaxTenantIDLength)
	case !isIDCharset(id):
		return fmt.Errorf("%w: only letters, digits and underscores are allowed", ErrInvalidTenantID)
	case !v.pattern.MatchString(id):
		return fmt.Errorf("%w: does not match %s", ErrInvalidTenantID, v.pattern.String())
	}

	lower := strings.ToLower(id)
	for _, fragment := range deniedFragments {
		if strings.Contains(lower, fragment) {
			return fmt.Errorf("%w: contains forbidden sequence %q", ErrInvalidTenantID, fragment)
		}
	}
	return nil
}

// IsValid reports whether id passes Validate.
func (v *IDValidator) IsValid(id string) bool {
	return v.Validate(id) == nil
}

// ValidateID checks id with the default validator.
func ValidateID(id string) bool {
	return defaultIDValidator.IsValid(id)
}

// isIDCharset enforces [A-Za-z0-9_] even when a looser pattern is configured.
func isIDCharset(id string) bool {
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}
