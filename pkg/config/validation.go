package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks struct tags plus the cross-field rules tags cannot
// express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

func validateCustomRules(cfg *Config) error {
	ns := cfg.Namespace
	if !isPowerOfTwo(ns.SegmentSize) {
		return fmt.Errorf("namespace.segment_size: %d is not a power of two", ns.SegmentSize)
	}
	if !isPowerOfTwo(ns.ChunkSize) {
		return fmt.Errorf("namespace.chunk_size: %d is not a power of two", ns.ChunkSize)
	}
	if ns.SegmentSize%ns.ChunkSize != 0 {
		return fmt.Errorf("namespace.chunk_size: %d does not divide segment_size %d",
			ns.ChunkSize, ns.SegmentSize)
	}
	if ns.MinFileLength%ns.SegmentSize != 0 {
		return fmt.Errorf("namespace.min_file_length: %d is not a whole number of segments",
			ns.MinFileLength)
	}
	if len(cfg.Pool.Copysets) == 0 {
		return fmt.Errorf("pool.copysets: at least one copyset must be configured")
	}
	return nil
}

// formatValidationError converts validator errors into readable messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
