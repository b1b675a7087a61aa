package errors

import "github.com/nooga/specjs/pkg/source"

// Position represents a specific location in the source code.
// Line and Column are 1-based; StartPos and EndPos are 0-based byte offsets.
type Position struct {
	Line     int
	Column   int
	StartPos int
	EndPos   int
	Source   *source.SourceFile
}
