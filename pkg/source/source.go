package source

import (
	"path/filepath"
	"strings"

	"github.com/dop251/goja/file"
)

// SourceFile represents a script source with its content and metadata.
type SourceFile struct {
	Name    string // Display name (e.g., "script.js", "<stdin>", "<eval>")
	Path    string // Full file path (empty for eval/stdin)
	Content string
	lines   []string // lazily split
	file    *file.File
}

// NewSourceFile creates a new source file
func NewSourceFile(name, path, content string) *SourceFile {
	return &SourceFile{
		Name:    name,
		Path:    path,
		Content: content,
	}
}

// NewEvalSource creates a source file for text handed to eval-like entry
// points ($262.evalScript, the Function constructor).
func NewEvalSource(content string) *SourceFile {
	return NewSourceFile("<eval>", "", content)
}

// NewStdinSource creates a source file for stdin input
func NewStdinSource(content string) *SourceFile {
	return NewSourceFile("<stdin>", "", content)
}

// FromFile creates a SourceFile from a file path and content
func FromFile(filePath, content string) *SourceFile {
	return NewSourceFile(filepath.Base(filePath), filePath, content)
}

// Lines returns the source split into lines (cached)
func (sf *SourceFile) Lines() []string {
	if sf.lines == nil {
		sf.lines = strings.Split(sf.Content, "\n")
	}
	return sf.lines
}

// DisplayPath returns the best path for display (prefers Path, falls back to Name)
func (sf *SourceFile) DisplayPath() string {
	if sf.Path != "" {
		return sf.Path
	}
	return sf.Name
}

// IsFile returns true if this represents an actual file (has a path)
func (sf *SourceFile) IsFile() bool {
	return sf.Path != ""
}

// Attach binds the parser's file record so that node offsets can be turned
// into line/column positions.
func (sf *SourceFile) Attach(f *file.File) {
	sf.file = f
}

// Position converts a parser index into a 1-based line and column. Both are
// zero when no parser file has been attached or idx is out of range.
func (sf *SourceFile) Position(idx file.Idx) (line, column int) {
	if sf == nil || sf.file == nil || idx <= 0 {
		return 0, 0
	}
	offset := int(idx) - sf.file.Base()
	if offset < 0 || offset > len(sf.Content) {
		return 0, 0
	}
	p := sf.file.Position(offset)
	return p.Line, p.Column
}
