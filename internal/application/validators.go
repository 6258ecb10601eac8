package application

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/outcmp/internal/domain"
)

// caseIDPattern restricts case IDs to names that are safe to use as file
// names on every platform.
var caseIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// RegisterSuiteValidators registers the custom validation tags used by
// SuiteConfig with v.
// RegisterSuiteValidators returns an error if any registration fails.
func RegisterSuiteValidators(v *validator.Validate) error {
	validators := map[string]validator.Func{
		"semver":        validateSemver,
		"caseid":        validateCaseID,
		"compare_mode":  validateCompareMode,
		"strategy_mode": validateStrategyMode,
	}
	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

// validateSemver validates that a string follows semantic versioning
// format (X.Y.Z where X, Y, Z are non-negative integers).
func validateSemver(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	var major, minor, patch int
	n, err := fmt.Sscanf(value, "%d.%d.%d", &major, &minor, &patch)
	return err == nil && n == 3 && major >= 0 && minor >= 0 && patch >= 0
}

func validateCaseID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	return caseIDPattern.MatchString(id) && !strings.Contains(id, "..")
}

// validateCompareMode accepts AUTO and every forcible mode, including
// aliases. Unlike compare requests, suite files reject unknown modes.
func validateCompareMode(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if strings.EqualFold(strings.TrimSpace(value), string(domain.ModeAuto)) {
		return true
	}
	return domain.ParseMode(value) != domain.ModeAuto
}

func validateStrategyMode(fl validator.FieldLevel) bool {
	return domain.ParseMode(fl.Field().String()).IsForcible()
}
