package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfigParse   = errors.New("config parse error")
	ErrMissingKey    = errors.New("missing key")
	ErrExternalTool  = errors.New("external tool error")
	ErrCatalogFormat = errors.New("catalog format error")
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps an error to the status the jedisim process exits with.
// Every failure is fatal to the run, so there is no finer taxonomy than zero
// and nonzero.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// Hint returns a short next step for the operator based on the error marker.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigParse):
		return "fix the malformed line in the settings file"
	case errors.Is(err, ErrMissingKey):
		return "add the missing key to the settings file"
	case errors.Is(err, ErrExternalTool):
		return "inspect the stage output above; downstream files are stale until the run is repeated"
	case errors.Is(err, ErrCatalogFormat):
		return "regenerate the catalog with jedicatalog"
	case errors.Is(err, ErrConfiguration):
		return "check the jedisim configuration file"
	case errors.Is(err, ErrNotFound):
		return "verify the referenced path exists"
	default:
		return "check logs for details"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
