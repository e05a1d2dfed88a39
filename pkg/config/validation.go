package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if !filepath.IsAbs(cfg.Storage.BaseDir) {
		return fmt.Errorf("storage.base_dir must be an absolute path, got %q", cfg.Storage.BaseDir)
	}
	if cfg.Journal.Enabled && isWithin(cfg.Journal.Path, cfg.Storage.BaseDir) {
		return fmt.Errorf("journal.path %q must not be inside storage.base_dir", cfg.Journal.Path)
	}
	return nil
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

// formatValidationError turns validator errors into one readable error per field.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s (failed on 'oneof')", field, e.Param())
	case "gte", "lt":
		return fmt.Sprintf("%s is out of range (failed on '%s=%s')", field, e.Tag(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid (failed on '%s')", field, e.Tag())
	}
}
