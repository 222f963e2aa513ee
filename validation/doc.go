// Package validation provides validation utilities for stackup configuration
// and stack declarations.
//
// It supports struct tag validation (using go-playground/validator) and
// programmatic validation with error collection. Both return an
// *errors.AppError with code INVALID_INPUT and per-field details.
//
// # Struct Tag Validation
//
//	type RunConfig struct {
//	    MaxAttempts int `mapstructure:"max_attempts" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("tasks[0].bucket", spec.Bucket)
//	err := v.Validate()
package validation
