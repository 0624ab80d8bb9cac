// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateWithSchema_ValidConfig(t *testing.T) {
	validConfig := `baseUrl: https://anypoint.mulesoft.com
auth:
  clientId: my-client-id
  clientSecret: my-client-secret
organizationId: org-1
autoDiscovery: true
scrape:
  intervalSeconds: 60
  periodSeconds: 600
  enabled: true
logging:
  level: info
`

	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(validConfig), 0600); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	if err := ValidateWithSchema(tmpFile); err != nil {
		t.Errorf("ValidateWithSchema() with valid config failed: %v", err)
	}
}

func TestValidateWithSchema_MissingRequired(t *testing.T) {
	invalidConfig := `organizationId: org-1
logging:
  level: info
`

	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(invalidConfig), 0600); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	if err := ValidateWithSchema(tmpFile); err == nil {
		t.Error("ValidateWithSchema() should fail with missing required fields")
	}
}

func TestValidateWithSchema_InvalidType(t *testing.T) {
	invalidConfig := `baseUrl: https://anypoint.mulesoft.com
auth:
  clientId: my-client-id
  clientSecret: my-client-secret
scrape:
  intervalSeconds: "not-a-number"
logging:
  level: info
`

	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(invalidConfig), 0600); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	if err := ValidateWithSchema(tmpFile); err == nil {
		t.Error("ValidateWithSchema() should fail with wrong type for intervalSeconds")
	}
}

func TestValidateWithSchema_InvalidEnum(t *testing.T) {
	invalidConfig := `baseUrl: https://anypoint.mulesoft.com
auth:
  clientId: my-client-id
  clientSecret: my-client-secret
logging:
  level: shout-really-loud
`

	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(invalidConfig), 0600); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	if err := ValidateWithSchema(tmpFile); err == nil {
		t.Error("ValidateWithSchema() should fail with invalid log level")
	}
}

func TestValidateWithSchema_MinimumValues(t *testing.T) {
	invalidConfig := `baseUrl: https://anypoint.mulesoft.com
auth:
  clientId: my-client-id
  clientSecret: my-client-secret
discovery:
  refreshIntervalMs: 10
logging:
  level: info
`

	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(invalidConfig), 0600); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	if err := ValidateWithSchema(tmpFile); err == nil {
		t.Error("ValidateWithSchema() should fail with refreshIntervalMs below minimum")
	}
}

func TestValidateWithSchema_FileNotFound(t *testing.T) {
	if err := ValidateWithSchema("nonexistent-file.yaml"); err == nil {
		t.Error("ValidateWithSchema() should fail with nonexistent file")
	}
}

func TestValidateWithSchema_InvalidYAML(t *testing.T) {
	invalidYAML := `baseUrl: https://anypoint.mulesoft.com
auth:
  clientId: [invalid yaml structure
`

	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(invalidYAML), 0600); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	if err := ValidateWithSchema(tmpFile); err == nil {
		t.Error("ValidateWithSchema() should fail with invalid YAML")
	}
}
