package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/pulse/internal/errors"
)

const fileHeader = `# pulse configuration
# Durations accept Go syntax: 500ms, 2s, 5m.
# Environment overrides use the PULSE_ prefix, e.g. PULSE_POLL_INTERVAL=5s.
`

// Render encodes cfg as YAML. When cfg has no rules the built-in defaults
// are written out so they can be edited.
func Render(cfg *Config) ([]byte, error) {
	out := *cfg
	if !cfg.HasRules() {
		out.Rules = nil
		for _, r := range cfg.AlertRules() {
			out.Rules = append(out.Rules, RuleConfigFrom(r))
		}
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode config", "")
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default config to path, creating parent
// directories. It refuses to overwrite unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrConfig,
				"Config already exists at "+path,
				"Pass --force to overwrite it")
		}
	}

	data, err := Render(DefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot create config directory",
			"Check permissions on "+filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot write config file",
			"Check permissions on "+path)
	}
	return nil
}

// SetRuleEnabled flips one rule's enabled flag in the file at configPath.
// It edits the YAML tree in place so comments and ordering survive.
func SetRuleEnabled(configPath, ruleID string, enabled bool) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}
	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	rulesNode := findMapValue(docNode, "rules")
	if rulesNode == nil || rulesNode.Kind != yaml.SequenceNode {
		return errors.New(errors.ErrConfig,
			"No rules list in "+configPath,
			"The built-in rules are in effect; run 'pulse rules --yaml' and paste them into the file to edit")
	}

	var ruleNode *yaml.Node
	for _, item := range rulesNode.Content {
		if id := findMapValue(item, "id"); id != nil && id.Value == ruleID {
			ruleNode = item
			break
		}
	}
	if ruleNode == nil {
		return errors.New(errors.ErrRule,
			fmt.Sprintf("Rule '%s' not found in %s", ruleID, configPath),
			"Run 'pulse rules' to list rule ids")
	}

	value := strconv.FormatBool(enabled)
	if enabledNode := findMapValue(ruleNode, "enabled"); enabledNode != nil {
		if enabledNode.Value == value {
			return nil
		}
		enabledNode.Kind = yaml.ScalarNode
		enabledNode.Tag = "!!bool"
		enabledNode.Value = value
	} else {
		ruleNode.Content = append(ruleNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "enabled"},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: value},
		)
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(configPath, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// yaml.v3 writes time.Duration as integer nanoseconds, which viper would
// then read back as nanoseconds. These marshalers keep durations readable.

func (p PollConfig) MarshalYAML() (any, error) {
	return struct {
		Interval         string   `yaml:"interval"`
		FailureThreshold int      `yaml:"failure_threshold"`
		ProbeEvery       int      `yaml:"probe_every"`
		FetchTimeout     string   `yaml:"fetch_timeout"`
		AutoRefresh      bool     `yaml:"auto_refresh"`
		MaxProcesses     int      `yaml:"max_processes"`
		DiskPaths        []string `yaml:"disk_paths"`
	}{
		Interval:         p.Interval.String(),
		FailureThreshold: p.FailureThreshold,
		ProbeEvery:       p.ProbeEvery,
		FetchTimeout:     p.FetchTimeout.String(),
		AutoRefresh:      p.AutoRefresh,
		MaxProcesses:     p.MaxProcesses,
		DiskPaths:        nonNil(p.DiskPaths),
	}, nil
}

func (h HistoryConfig) MarshalYAML() (any, error) {
	return struct {
		Retention string `yaml:"retention"`
	}{h.Retention.String()}, nil
}

func (j JournalConfig) MarshalYAML() (any, error) {
	return struct {
		Enabled   bool   `yaml:"enabled"`
		Path      string `yaml:"path"`
		Retention string `yaml:"retention"`
	}{j.Enabled, j.Path, j.Retention.String()}, nil
}

func (r RuleConfig) MarshalYAML() (any, error) {
	return struct {
		ID        string  `yaml:"id"`
		Name      string  `yaml:"name,omitempty"`
		Metric    string  `yaml:"metric"`
		Operator  string  `yaml:"operator"`
		Threshold float64 `yaml:"threshold"`
		Duration  string  `yaml:"duration"`
		Severity  string  `yaml:"severity,omitempty"`
		Enabled   bool    `yaml:"enabled"`
	}{r.ID, r.Name, r.Metric, r.Operator, r.Threshold, r.Duration.String(), r.Severity, r.IsEnabled()}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
