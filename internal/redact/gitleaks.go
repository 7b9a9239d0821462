package redact

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

var (
	defaultRules     config.Config
	defaultRulesErr  error
	defaultRulesOnce sync.Once
)

// loadRules reads a gitleaks TOML config, or the built-in rule set when path
// is empty. The built-in set is parsed once per process.
func loadRules(path string) (config.Config, error) {
	if path == "" {
		defaultRulesOnce.Do(func() {
			defaultRules, defaultRulesErr = parseRules(func(v *viper.Viper) error {
				return v.ReadConfig(strings.NewReader(config.DefaultConfig))
			})
		})
		return defaultRules, defaultRulesErr
	}
	cfg, err := parseRules(func(v *viper.Viper) error {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	})
	if err != nil {
		return config.Config{}, err
	}
	cfg.Path = path
	return cfg, nil
}

func parseRules(read func(*viper.Viper) error) (config.Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := read(v); err != nil {
		return config.Config{}, fmt.Errorf("reading gitleaks config: %w", err)
	}
	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return config.Config{}, fmt.Errorf("unmarshaling gitleaks config: %w", err)
	}
	cfg, err := vc.Translate()
	if err != nil {
		return config.Config{}, fmt.Errorf("translating gitleaks config: %w", err)
	}
	return cfg, nil
}

// Finding is one secret removed by a Redactor.
type Finding struct {
	RuleID string
	Path   string
	Line   int
}

// Redactor scrubs file content with gitleaks rules, regex heuristics and a
// path policy.
type Redactor struct {
	detector    *detect.Detector
	redactPaths []string
}

// NewRedactor builds a Redactor. rulesPath selects a gitleaks TOML config;
// empty uses the built-in rules.
func NewRedactor(redactPaths []string, rulesPath string) (*Redactor, error) {
	cfg, err := loadRules(rulesPath)
	if err != nil {
		return nil, err
	}
	return &Redactor{
		detector:    detect.NewDetector(cfg),
		redactPaths: redactPaths,
	}, nil
}

// Redact returns content with every detected secret replaced by [REDACTED],
// plus the gitleaks findings that were removed.
func (r *Redactor) Redact(path, content string) (string, []Finding) {
	if ShouldRedactPath(path, r.redactPaths) {
		return pathRedacted, nil
	}

	found := r.detector.Detect(detect.Fragment{Raw: content, FilePath: path})
	secrets := make([]string, 0, len(found))
	findings := make([]Finding, 0, len(found))
	for _, f := range found {
		if f.Secret == "" {
			continue
		}
		secrets = append(secrets, f.Secret)
		findings = append(findings, Finding{RuleID: f.RuleID, Path: path, Line: f.StartLine})
	}
	// Longest first so a secret containing another is replaced whole.
	sort.Slice(secrets, func(i, j int) bool { return len(secrets[i]) > len(secrets[j]) })
	for _, s := range secrets {
		content = strings.ReplaceAll(content, s, placeholder)
	}
	sort.Slice(findings, func(i, j int) bool { return findings[i].Line < findings[j].Line })
	return Secrets(content), findings
}
