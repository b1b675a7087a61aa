package main

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// testMetadata is the YAML frontmatter between /*--- and ---*/.
type testMetadata struct {
	Description string    `yaml:"description"`
	Includes    []string  `yaml:"includes"`
	Flags       []string  `yaml:"flags"`
	Features    []string  `yaml:"features"`
	Negative    *negative `yaml:"negative"`
}

type negative struct {
	Phase string `yaml:"phase"` // parse, resolution or runtime
	Type  string `yaml:"type"`
}

func (m *testMetadata) hasFlag(flag string) bool {
	return slices.Contains(m.Flags, flag)
}

// extractFrontmatter returns the text between the leading /*--- and ---*/
// markers, or "" when the test has none.
func extractFrontmatter(content string) string {
	start := strings.Index(content, "/*---")
	if start == -1 {
		return ""
	}
	rest := content[start+len("/*---"):]
	end := strings.Index(rest, "---*/")
	if end == -1 {
		return ""
	}
	return rest[:end]
}

// parseMetadata decodes a test's frontmatter. Tests without one get empty
// metadata.
func parseMetadata(content string) (*testMetadata, error) {
	meta := &testMetadata{}
	header := extractFrontmatter(content)
	if strings.TrimSpace(header) == "" {
		return meta, nil
	}
	if err := yaml.Unmarshal([]byte(header), meta); err != nil {
		return nil, fmt.Errorf("frontmatter: %w", err)
	}
	return meta, nil
}

// includes lists the harness files to prepend, in order.
func (m *testMetadata) harnessIncludes() []string {
	if m.hasFlag("raw") {
		return nil
	}
	files := []string{"assert.js", "sta.js"}
	if m.hasFlag("async") {
		files = append(files, "doneprintHandle.js")
	}
	for _, inc := range m.Includes {
		if !slices.Contains(files, inc) {
			files = append(files, inc)
		}
	}
	return files
}

// modes lists the strictness modes the test runs in.
func (m *testMetadata) modes() []bool {
	switch {
	case m.hasFlag("raw"), m.hasFlag("noStrict"):
		return []bool{false}
	case m.hasFlag("onlyStrict"):
		return []bool{true}
	}
	return []bool{false, true}
}
