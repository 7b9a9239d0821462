package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ProfileFile is the project profile name, stored at the project root.
const ProfileFile = ".aidebug.yaml"

// Profile describes the project to the model and remembers the selection.
type Profile struct {
	Language   string   `yaml:"language,omitempty"`
	Type       string   `yaml:"type,omitempty"`
	Framework  string   `yaml:"framework,omitempty"`
	RunCommand string   `yaml:"run,omitempty"`
	Files      []string `yaml:"files,omitempty"`
}

// ProfileKeys are the settable profile fields.
var ProfileKeys = []string{"language", "type", "framework", "run"}

// LoadProfile reads the profile under root. A missing file yields an empty
// profile.
func LoadProfile(fsys afero.Fs, root string) (*Profile, error) {
	data, err := afero.ReadFile(fsys, filepath.Join(root, ProfileFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Profile{}, nil
		}
		return nil, fmt.Errorf("reading project profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ProfileFile, err)
	}
	return &p, nil
}

// SaveProfile writes p under root.
func SaveProfile(fsys afero.Fs, root string, p *Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling project profile: %w", err)
	}
	if err := afero.WriteFile(fsys, filepath.Join(root, ProfileFile), data, 0o644); err != nil {
		return fmt.Errorf("writing project profile: %w", err)
	}
	return nil
}

// Set updates one profile field by key.
func (p *Profile) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(key) {
	case "language":
		p.Language = value
	case "type":
		p.Type = value
	case "framework":
		p.Framework = value
	case "run":
		p.RunCommand = value
	default:
		return fmt.Errorf("unknown project setting %q (valid: %s)", key, strings.Join(ProfileKeys, ", "))
	}
	return nil
}

// Get returns one profile field by key.
func (p *Profile) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "language":
		return p.Language, nil
	case "type":
		return p.Type, nil
	case "framework":
		return p.Framework, nil
	case "run":
		return p.RunCommand, nil
	default:
		return "", fmt.Errorf("unknown project setting %q (valid: %s)", key, strings.Join(ProfileKeys, ", "))
	}
}

// Summary is the one-sentence project description sent to the model. It is
// empty when nothing is configured.
func (p *Profile) Summary() string {
	if p.Type == "" && p.Language == "" && p.Framework == "" {
		return ""
	}
	kind := p.Type
	if kind == "" {
		kind = "software"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "This is a %s project", kind)
	switch {
	case p.Language != "" && p.Framework != "":
		fmt.Fprintf(&b, ", the project uses %s and the %s framework.", p.Language, p.Framework)
	case p.Language != "":
		fmt.Fprintf(&b, ", the project uses %s.", p.Language)
	case p.Framework != "":
		fmt.Fprintf(&b, ", the project uses the %s framework.", p.Framework)
	default:
		b.WriteString(".")
	}
	return b.String()
}
