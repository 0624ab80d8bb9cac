// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ghodss/yaml"
	"github.com/xeipuuv/gojsonschema"

	"github.com/netflexity/anypoint-mq-exporter/pkg/util"
)

// packageDir is the directory this source file lives in, used as a
// CWD-independent fallback location for schema.json.
func packageDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// ValidateWithSchema validates the configuration file against schema.json.
func ValidateWithSchema(path string) error {
	schemaPath := filepath.Join(filepath.Dir(path), "schema.json")
	if _, statErr := os.Stat(schemaPath); statErr != nil {
		schemaPath = filepath.Join(packageDir(), "schema.json")
	}
	absSchemaPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("could not get absolute path for schema: %w", err)
	}
	schemaLoader := gojsonschema.NewReferenceLoader("file://" + absSchemaPath)

	yamlFile, err := util.ReadFileSafely(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var configData interface{}
	if err := yaml.Unmarshal(yamlFile, &configData); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	jsonData, err := json.Marshal(configData)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate config schema: %w", err)
	}

	if !result.Valid() {
		fmt.Fprintf(os.Stderr, "Configuration is not valid, see errors:\n")
		for _, desc := range result.Errors() {
			fmt.Fprintf(os.Stderr, "- %s\n", desc)
		}
		return fmt.Errorf("configuration is not valid")
	}

	return nil
}
