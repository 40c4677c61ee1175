package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config stores the client's connection settings and cached credentials.
type Config struct {
	Version  int    `json:"version"`
	Host     string `json:"host"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".config", "m3")
	return filepath.Join(configDir, "m3-config.json"), nil
}

func ensureConfigDir() (string, error) {
	path, err := configPath()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// ReadConfig reads the config file if present. Returns nil without error
// when no config exists yet.
func ReadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// WriteConfig writes the config to disk, creating the directory as needed.
func WriteConfig(config Config) error {
	path, err := ensureConfigDir()
	if err != nil {
		return err
	}
	if config.Version == 0 {
		config.Version = 1
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// ResolveHost returns the document-store base URL, preferring the M3_HOST
// environment variable, then the flag value, then the config file.
func ResolveHost(flagValue string, config *Config) (string, error) {
	host := strings.TrimSpace(os.Getenv("M3_HOST"))
	if host == "" {
		host = strings.TrimSpace(flagValue)
	}
	if host == "" && config != nil {
		host = strings.TrimSpace(config.Host)
	}
	if host == "" {
		return "", fmt.Errorf("no host configured: pass --host, set M3_HOST, or run 'm3 login'")
	}
	return host, nil
}
