package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v2"

	"ragchat-cli/cmd/utils"
)

const (
	// DefaultServerURL is used when neither flag, environment nor file name a backend.
	DefaultServerURL = "http://localhost:5000"
	// ServerURLEnv overrides the config file but not the --server-url flag.
	ServerURLEnv = "RAGCHAT_SERVER_URL"
)

var (
	// SupportedConfigFiles lists the config file names searched in order.
	SupportedConfigFiles = []string{
		"ragchat.yaml",
		"ragchat.yml",
		"ragchat.toml",
		"ragchat.json",
	}

	// DefaultAllowedExtensions is the upload allow-list when the config has none.
	DefaultAllowedExtensions = []string{".pdf", ".doc", ".docx", ".txt"}
)

// LoadConfigFile loads and parses a config file, choosing the decoder by extension.
func LoadConfigFile(filePath string) (*RagChatConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	fileExt := strings.ToLower(filepath.Ext(filePath))

	var config RagChatConfig
	switch fileExt {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file %s: %w", filePath, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config file %s: %w", filePath, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config file %s: %w", filePath, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", fileExt)
	}

	return &config, nil
}

// FindConfigFile searches for ragchat config files (yaml/toml/json) in the specified directory
func FindConfigFile(searchPath string) (string, error) {
	if searchPath == "" {
		return "", fmt.Errorf("search path is required")
	}

	for _, configFile := range SupportedConfigFiles {
		fullPath := filepath.Join(searchPath, configFile)
		if _, err := os.Stat(fullPath); err == nil {
			return fullPath, nil
		}
	}
	return "", fmt.Errorf("no ragchat config file (yaml/toml/json) found in %s", searchPath)
}

// IsConfigFile checks if the given file path is a ragchat config file
func IsConfigFile(filePath string) bool {
	baseName := filepath.Base(filePath)
	for _, configFile := range SupportedConfigFiles {
		if baseName == configFile {
			return true
		}
	}
	return false
}

// ServerConfig represents server connection configuration
type ServerConfig struct {
	URL     string
	Timeout time.Duration
}

// Settings is the fully resolved configuration the commands run with.
type Settings struct {
	Server            ServerConfig
	AllowedExtensions []string
	DiscardStale      bool
	// Source is the config file that contributed, or "" when defaults were used.
	Source string
}

// ResolveOptions carries the command-line inputs to Resolve.
type ResolveOptions struct {
	// ConfigPath is an explicit --config file. It must exist when set.
	ConfigPath string
	// Dir is searched for a config file when ConfigPath is empty.
	Dir string
	// ServerURL is the --server-url flag value.
	ServerURL string
}

// Resolve merges flags, environment, config file and defaults, in that order of precedence.
func Resolve(opts ResolveOptions) (*Settings, error) {
	var (
		file   *RagChatConfig
		source string
		err    error
	)
	switch {
	case opts.ConfigPath != "":
		file, err = LoadConfigFile(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		source = opts.ConfigPath
	case opts.Dir != "":
		if found, findErr := FindConfigFile(opts.Dir); findErr == nil {
			file, err = LoadConfigFile(found)
			if err != nil {
				return nil, err
			}
			source = found
		}
	}
	if file == nil {
		file = &RagChatConfig{}
	}

	settings := &Settings{
		Server:            ServerConfig{URL: DefaultServerURL},
		AllowedExtensions: NormalizeExtensions(file.Upload.AllowedExtensions),
		DiscardStale:      file.Chat.DiscardStaleAnswers,
		Source:            source,
	}
	if len(settings.AllowedExtensions) == 0 {
		settings.AllowedExtensions = append([]string(nil), DefaultAllowedExtensions...)
	}

	switch {
	case strings.TrimSpace(opts.ServerURL) != "":
		settings.Server.URL = strings.TrimSpace(opts.ServerURL)
	case strings.TrimSpace(os.Getenv(ServerURLEnv)) != "":
		settings.Server.URL = strings.TrimSpace(os.Getenv(ServerURLEnv))
	case strings.TrimSpace(file.Server.URL) != "":
		settings.Server.URL = strings.TrimSpace(file.Server.URL)
	}
	if err := utils.ValidateServerURL(settings.Server.URL); err != nil {
		return nil, err
	}

	if t := strings.TrimSpace(file.Server.Timeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return nil, fmt.Errorf("invalid server.timeout %q: %w", t, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("invalid server.timeout %q: must not be negative", t)
		}
		settings.Server.Timeout = d
	}

	utils.LogDebugf("config resolved: server=%s timeout=%s source=%q", settings.Server.URL, settings.Server.Timeout, source)
	return settings, nil
}

// NormalizeExtensions lower-cases extensions, adds a leading dot and drops blanks and duplicates.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
