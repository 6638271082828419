package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// SandboxSettings selects the filesystem sandbox mode and, for
// workspace-write, the set of writable roots beyond the working directory.
type SandboxSettings struct {
	Mode             string   `json:"mode"` // "read-only", "workspace-write", "danger-full-access"
	WritableRoots    []string `json:"writable_roots,omitempty"`
	NetworkAccess    bool     `json:"network_access,omitempty"`
	ExcludeTmpdirEnv bool     `json:"exclude_tmpdir_env_var,omitempty"`
	ExcludeSlashTmp  bool     `json:"exclude_slash_tmp,omitempty"`
	BestEffortLinux  bool     `json:"best_effort_linux"`
}

// SessionSettings bounds the exec session table and controls reclaim.
type SessionSettings struct {
	MaxSessions      int  `json:"max_sessions"`
	ProtectedRecent  int  `json:"protected_recent"`
	DefaultYieldMs   int  `json:"default_yield_ms"`
	StdinYieldMs     int  `json:"stdin_yield_ms"`
	MaxOutputTokens  int  `json:"max_output_tokens"`
	DeterministicIDs bool `json:"deterministic_ids,omitempty"`
}

// RecoverySettings tunes the retry scheduler for transient failures.
type RecoverySettings struct {
	MaxRetries  int `json:"max_retries"`
	BaseDelayMs int `json:"base_delay_ms"`
}

// Config represents application configuration
type Config struct {
	WorkingDir     string           `json:"working_dir"`
	ApprovalPolicy string           `json:"approval_policy"` // untrusted, on-failure, on-request, never
	Sandbox        SandboxSettings  `json:"sandbox"`
	Sessions       SessionSettings  `json:"sessions"`
	Recovery       RecoverySettings `json:"recovery"`
	TrustRulesPath string           `json:"trust_rules_path,omitempty"`
	AuditDBPath    string           `json:"audit_db_path,omitempty"`
	LogLevel       string           `json:"log_level"` // debug, info, warn, error, none
	LogPath        string           `json:"-"`
}

func defaultConfigDir() string {
	if runtime.GOOS == "windows" {
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, "execguard")
		}
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "execguard")
}

func defaultStateDir() string {
	if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
		return filepath.Join(stateHome, "execguard")
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "state", "execguard")
}

func DefaultConfig() *Config {
	stateDir := defaultStateDir()

	return &Config{
		WorkingDir:     ".",
		ApprovalPolicy: "on-request",
		Sandbox: SandboxSettings{
			Mode:            "workspace-write",
			BestEffortLinux: true,
		},
		Sessions: SessionSettings{
			MaxSessions:     32,
			ProtectedRecent: 8,
			DefaultYieldMs:  10_000,
			StdinYieldMs:    250,
			MaxOutputTokens: 10_000,
		},
		Recovery: RecoverySettings{
			MaxRetries:  3,
			BaseDelayMs: 500,
		},
		AuditDBPath: filepath.Join(stateDir, "audit.db"),
		LogLevel:    "info",
		LogPath:     filepath.Join(stateDir, "execguard.log"),
	}
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return config, nil
		}
		return nil, err
	}

	// Unmarshal into default config (overrides only provided fields)
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	// Ensure critical fields have defaults if still empty
	if config.WorkingDir == "" {
		config.WorkingDir = "."
	}
	if config.ApprovalPolicy == "" {
		config.ApprovalPolicy = "on-request"
	}
	if config.Sandbox.Mode == "" {
		config.Sandbox.Mode = "workspace-write"
	}
	if config.Sessions.MaxSessions <= 0 {
		config.Sessions.MaxSessions = 32
	}
	if config.Sessions.ProtectedRecent <= 0 {
		config.Sessions.ProtectedRecent = 8
	}
	if config.Sessions.DefaultYieldMs <= 0 {
		config.Sessions.DefaultYieldMs = 10_000
	}
	if config.Sessions.StdinYieldMs <= 0 {
		config.Sessions.StdinYieldMs = 250
	}
	if config.Sessions.MaxOutputTokens <= 0 {
		config.Sessions.MaxOutputTokens = 10_000
	}
	if config.Recovery.MaxRetries <= 0 {
		config.Recovery.MaxRetries = 3
	}
	if config.Recovery.BaseDelayMs <= 0 {
		config.Recovery.BaseDelayMs = 500
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogPath == "" {
		config.LogPath = filepath.Join(defaultStateDir(), "execguard.log")
	}

	return config, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}
