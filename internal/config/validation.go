package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate reports fields by their koanf key, e.g. "import.max_bytes".
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate returns nil or one joined error with a line per invalid key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	problems := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := configKey(fe)
		problems = append(problems, fmt.Errorf("%s %s", key, describe(key, fe)))
	}
	return fmt.Errorf("invalid config: %w", errors.Join(problems...))
}

// configKey drops the root type from the namespace: "Config.log.level" is "log.level".
func configKey(fe validator.FieldError) string {
	if _, key, ok := strings.Cut(fe.Namespace(), "."); ok {
		return key
	}
	return fe.Field()
}

func describe(key string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_unless":
		// Param is "<StructField> <value>" on the same section.
		other, value, _ := strings.Cut(fe.Param(), " ")
		section := key
		if i := strings.LastIndex(key, "."); i >= 0 {
			section = key[:i]
		}
		return fmt.Sprintf("is required unless %s.%s is %s", section, strings.ToLower(other), value)
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return fmt.Sprintf("must be one of %s (got %q)", strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("fails the %q rule", fe.Tag())
	}
}
