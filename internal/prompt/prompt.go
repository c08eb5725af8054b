// Package prompt holds the versioned instruction prompts sent to the
// extraction model.
package prompt

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var catalogYAML []byte

// Analysis modes. Each catalog version holds one instruction per mode.
const (
	ModeSummary = "summary"
	ModeName    = "name"
)

// Template is one instruction prompt.
type Template struct {
	Version     string
	Mode        string
	Instruction string
}

// Build combines the instruction with the user's hint into the full prompt
// text. An empty hint is kept as an empty details line. The closing cue
// follows the mode: "Name:" for name templates, "Summary:" otherwise.
func (t Template) Build(hint string) string {
	cue := "Summary:"
	if t.Mode == ModeName {
		cue = "Name:"
	}
	return fmt.Sprintf("%s\n\nTablet Details: %s\n\n%s", strings.TrimSpace(t.Instruction), hint, cue)
}

// Catalog maps version -> mode -> instruction.
type Catalog struct {
	versions map[string]map[string]string
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse decodes a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	versions := make(map[string]map[string]string)
	if err := yaml.Unmarshal(data, &versions); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("prompt catalog is empty")
	}
	return &Catalog{versions: versions}, nil
}

// Template returns the instruction for version and mode.
func (c *Catalog) Template(version, mode string) (Template, error) {
	modes, ok := c.versions[version]
	if !ok {
		return Template{}, fmt.Errorf("unknown prompt version %q (have %s)", version, strings.Join(c.Versions(), ", "))
	}
	instruction, ok := modes[mode]
	if !ok || strings.TrimSpace(instruction) == "" {
		return Template{}, fmt.Errorf("prompt version %q has no %q instruction", version, mode)
	}
	return Template{Version: version, Mode: mode, Instruction: instruction}, nil
}

// Versions lists the known versions in sorted order.
func (c *Catalog) Versions() []string {
	out := make([]string, 0, len(c.versions))
	for v := range c.versions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
