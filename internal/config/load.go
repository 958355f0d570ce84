package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LoadFile reads, decodes and validates a definition file.
func LoadFile(path string) (*Definition, error) {
	def, err := LoadFileWithoutValidation(path)
	if err != nil {
		return nil, err
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("definition validation failed: %w", err)
	}

	return def, nil
}

// LoadFileWithoutValidation reads and decodes a definition file without
// validating it.
func LoadFileWithoutValidation(path string) (*Definition, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve definition path: %w", err)
	}

	// #nosec G304
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	def, err := Parse(data)
	if err != nil {
		return nil, err
	}

	def.Path = abs
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	return def, nil
}

// Parse decodes definition YAML. Name and Path are left as written.
func Parse(data []byte) (*Definition, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("definition is empty")
	}

	var def Definition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			outputShorthandHook,
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &def,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}

	def.Digest = Digest(data)
	return &def, nil
}

// Digest returns the content digest stored in run ledgers.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// outputShorthandHook lets an output be written as just its name.
func outputShorthandHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(OutputConfig{}) {
		return data, nil
	}
	return map[string]interface{}{"name": data}, nil
}
