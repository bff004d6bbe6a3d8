package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// BindProperties binds a map of job properties to a target struct using
// mapstructure. The "yaml" tag is reused for binding and weakly typed input
// is allowed, so string property values convert to numbers and bools.
func BindProperties(properties map[string]interface{}, target interface{}) error {
	decoderConfig := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(properties); err != nil {
		return fmt.Errorf("failed to decode properties: %w", err)
	}

	return nil
}
