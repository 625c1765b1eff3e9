package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RulesConfig contains the filter and rewrite rules loaded from YAML
type RulesConfig struct {
	// Compound score at or below which a message is rejected; nil disables the gate
	SentimentCompound *float64 `yaml:"sentiment_compound"`

	ExcludeParagraphsByBadwords []string `yaml:"exclude_paragraphs_by_badwords"`
	SkipMessagesByBadwords      []string `yaml:"skip_messages_by_badwords"`

	// Extra directives passed to the rewriter
	RewriterRequests []string `yaml:"rewriter_requests"`

	// Trailing line linking to the destination channel
	Sign string `yaml:"sign"`

	// Source is the file the rules were read from, empty for defaults
	Source string `yaml:"-"`
}

// LoadRulesConfig loads rules from a YAML file
func LoadRulesConfig(configPath string) (*RulesConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/rules.yaml",
			"/etc/tg-resender/rules.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "rules.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			data, loadedPath = b, p
			break
		}
	}

	if data == nil {
		if configPath != "" {
			return nil, fmt.Errorf("rules file %s not found", configPath)
		}
		return DefaultRulesConfig(), nil
	}

	var config RulesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	config.Source = loadedPath
	config.dropBlankWords()

	return &config, nil
}

// dropBlankWords removes empty entries, which would match every text
func (c *RulesConfig) dropBlankWords() {
	c.ExcludeParagraphsByBadwords = nonEmpty(c.ExcludeParagraphsByBadwords)
	c.SkipMessagesByBadwords = nonEmpty(c.SkipMessagesByBadwords)
	c.RewriterRequests = nonEmpty(c.RewriterRequests)
}

func nonEmpty(list []string) []string {
	var out []string
	for _, s := range list {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DefaultRulesConfig returns rules that forward everything unchanged
func DefaultRulesConfig() *RulesConfig {
	return &RulesConfig{}
}
