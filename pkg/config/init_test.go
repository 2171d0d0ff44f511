package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// withConfigHome points getConfigDir at a temp directory for the test.
func withConfigHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	return tmpDir
}

func TestInitConfig_Success(t *testing.T) {
	withConfigHome(t)

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	expectedSections := []string{
		"# Daylytics Configuration File",
		"logging:",
		"database:",
		"blob:",
		"api:",
	}
	for _, section := range expectedSections {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing section: %s", section)
		}
	}

	// Verify the generated file is valid YAML and loads cleanly
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		t.Fatalf("Generated config is not valid YAML: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Generated config failed to load: %v", err)
	}
	if len(loaded.API.JWT.Secret) != 64 {
		t.Errorf("Expected 64-char generated JWT secret, got %d chars", len(loaded.API.JWT.Secret))
	}
}

func TestInitConfig_AlreadyExists(t *testing.T) {
	withConfigHome(t)

	if _, err := InitConfig(false); err != nil {
		t.Fatalf("First InitConfig failed: %v", err)
	}

	_, err := InitConfig(false)
	if err == nil {
		t.Fatal("Expected error when config already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Expected 'already exists' error, got: %v", err)
	}
}

func TestInitConfig_Force(t *testing.T) {
	withConfigHome(t)

	first, err := InitConfig(false)
	if err != nil {
		t.Fatalf("First InitConfig failed: %v", err)
	}
	firstContent, _ := os.ReadFile(first)

	second, err := InitConfig(true)
	if err != nil {
		t.Fatalf("InitConfig with force failed: %v", err)
	}
	secondContent, _ := os.ReadFile(second)

	// Each init generates a fresh JWT secret
	if string(firstContent) == string(secondContent) {
		t.Error("Expected force overwrite to regenerate the config file")
	}
}

func TestInitConfigToPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Config file not created: %v", err)
	}
}
