package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/agenthands/scribe/internal/subject"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

// SyncConfig locates the external tabular mirror. The Google credentials
// here are only file paths; token handling lives in the sync package.
type SyncConfig struct {
	SpreadsheetID   string `toml:"spreadsheet_id"`
	WorkbookPath    string `toml:"workbook_path"`
	CredentialsFile string `toml:"credentials_file"`
	TokenFile       string `toml:"token_file"`
}

// AgentConfig declares one conversational agent. The whole block is
// immutable after load.
type AgentConfig struct {
	EntryType       string            `toml:"entry_type"`
	SheetTab        string            `toml:"sheet_tab"`
	SystemPrompt    string            `toml:"system_prompt"`
	DeveloperPrompt string            `toml:"developer_prompt"`
	Policy          subject.Policy    `toml:"policy"`
	Reports         map[string]string `toml:"reports"`
}

type Config struct {
	LLM     LLMConfig              `toml:"llm"`
	Storage StorageConfig          `toml:"storage"`
	Sync    SyncConfig             `toml:"sync"`
	Agents  map[string]AgentConfig `toml:"agents"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Agents) == 0 {
		return fmt.Errorf("config declares no agents")
	}
	for name, a := range c.Agents {
		if a.EntryType == "" {
			return fmt.Errorf("agent %q: entry_type is required", name)
		}
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/entries.db"
	}
	return nil
}
