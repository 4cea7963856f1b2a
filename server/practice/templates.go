package practice

import (
	_ "embed"
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// TemplateCatalog holds the per-kind session instructions and the named
// scenario prompts used as instruction overrides by interactive chat.
type TemplateCatalog struct {
	sessions  map[string]string
	scenarios map[string]string
}

// LoadTemplateCatalog parses the embedded template catalog.
// A missing daily-session instruction is a configuration defect caught at
// startup, not at fire time.
func LoadTemplateCatalog() (*TemplateCatalog, error) {
	return parseTemplateCatalog(templatesYAML)
}

func parseTemplateCatalog(data []byte) (*TemplateCatalog, error) {
	var raw struct {
		Sessions  map[string]string `yaml:"sessions"`
		Scenarios map[string]string `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse template catalog")
	}

	for _, kind := range []Kind{KindMorning, KindMidday, KindEvening} {
		if raw.Sessions[string(kind)] == "" {
			return nil, errors.Errorf("template catalog is missing session instruction %q", kind)
		}
	}

	if raw.Scenarios == nil {
		raw.Scenarios = map[string]string{}
	}

	return &TemplateCatalog{
		sessions:  raw.Sessions,
		scenarios: raw.Scenarios,
	}, nil
}

// Instruction returns the session instruction for a daily kind.
func (c *TemplateCatalog) Instruction(kind Kind) (string, error) {
	instruction, ok := c.sessions[string(kind)]
	if !ok || instruction == "" {
		return "", fmt.Errorf("no session instruction configured for kind %q", kind)
	}
	return instruction, nil
}

// Scenario returns the named scenario prompt, or "" for free conversation.
func (c *TemplateCatalog) Scenario(name string) string {
	return c.scenarios[name]
}

// Scenarios lists the available scenario names.
func (c *TemplateCatalog) Scenarios() []string {
	names := make([]string, 0, len(c.scenarios))
	for name := range c.scenarios {
		names = append(names, name)
	}
	return names
}
