package cli

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/ui"
)

// Output formats for list commands.
const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

// RuleStatus is one rule plus whether the engine would accept it.
type RuleStatus struct {
	alert.Rule
	Valid   bool   `json:"valid"`
	Problem string `json:"problem,omitempty"`
}

// RulesOutput is the --json payload of pulse rules.
type RulesOutput struct {
	ConfigPath string       `json:"config_path,omitempty"`
	Defaults   bool         `json:"defaults"`
	Rules      []RuleStatus `json:"rules"`
}

// rulesCommand lists the configured rules in the requested format.
func rulesCommand(w io.Writer, format string) error {
	cfg, path, err := loadConfig(logger.NewEnvLogger("[pulse]"))
	if err != nil {
		return err
	}
	out := collectRules(cfg, path)

	switch format {
	case formatJSON:
		return WriteJSONSuccess(w, out)
	case formatYAML:
		return writeRulesYAML(w, out.Rules)
	}

	rows := make([]ui.RuleRow, 0, len(out.Rules))
	for _, r := range out.Rules {
		row := ui.RuleRow{
			Status:    ui.RuleOn,
			ID:        r.ID,
			Name:      r.Name,
			Condition: r.Condition(),
			Severity:  string(r.Severity),
			Problem:   r.Problem,
		}
		switch {
		case !r.Valid:
			row.Status = ui.RuleInvalid
		case !r.Enabled:
			row.Status = ui.RuleOff
		}
		rows = append(rows, row)
	}

	if out.Defaults {
		fmt.Fprintln(w, "Using built-in rules (no rules key in config)")
	} else if out.ConfigPath != "" {
		fmt.Fprintf(w, "Rules from %s\n", out.ConfigPath)
	}
	fmt.Fprintln(w)
	_, err = io.WriteString(w, ui.RenderRuleTable(rows))
	return err
}

// collectRules validates each configured rule the way the engine does,
// including duplicate IDs.
func collectRules(cfg *config.Config, path string) RulesOutput {
	rules := cfg.AlertRules()
	out := RulesOutput{
		ConfigPath: path,
		Defaults:   !cfg.HasRules(),
		Rules:      make([]RuleStatus, 0, len(rules)),
	}

	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.Severity == "" {
			r.Severity = alert.SeverityWarning
		}
		status := RuleStatus{Rule: r, Valid: true}
		if err := r.Validate(); err != nil {
			status.Valid = false
			status.Problem = problemText(err)
		} else if seen[r.ID] {
			status.Valid = false
			status.Problem = fmt.Sprintf("duplicate rule id %q, only the first one is used", r.ID)
		}
		seen[r.ID] = true
		out.Rules = append(out.Rules, status)
	}
	return out
}

// problemText is the message part of a structured error.
func problemText(err error) string {
	if e, ok := err.(*errors.Error); ok {
		return e.Message
	}
	return err.Error()
}

// writeRulesYAML prints rules in config-file form so they can be pasted
// under a rules key.
func writeRulesYAML(w io.Writer, rules []RuleStatus) error {
	doc := struct {
		Rules []config.RuleConfig `yaml:"rules"`
	}{Rules: make([]config.RuleConfig, 0, len(rules))}
	for _, r := range rules {
		doc.Rules = append(doc.Rules, config.RuleConfigFrom(r.Rule))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode rules", "")
	}
	return enc.Close()
}

// setRuleEnabledCommand flips a rule's enabled flag in the active config file.
func setRuleEnabledCommand(w io.Writer, ruleID string, enabled bool) error {
	path, err := config.Find(configFlag)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"No config file found",
			"Run 'pulse init' to create .pulse.yaml first")
	}

	if err := config.SetRuleEnabled(path, strings.TrimSpace(ruleID), enabled); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(w, "%s rule %s in %s\n", state, ruleID, path)
	return nil
}
