package engine

import (
	"fmt"

	"github.com/nooga/specjs/pkg/errors"
)

// CompletionType is the [[Type]] of a Completion Record.
type CompletionType uint8

const (
	CompletionNormal CompletionType = iota
	CompletionThrow
	CompletionReturn
	CompletionBreak
	CompletionContinue
)

func (t CompletionType) String() string {
	switch t {
	case CompletionNormal:
		return "normal"
	case CompletionThrow:
		return "throw"
	case CompletionReturn:
		return "return"
	case CompletionBreak:
		return "break"
	case CompletionContinue:
		return "continue"
	}
	return fmt.Sprintf("completion(%d)", t)
}

// Completion is a Completion Record. Target is the label of a break or
// continue; the empty string means no label.
//
// Operations that can only complete normally or abruptly return their result
// alongside a *Completion that is nil on the normal path, mirroring the
// (value, error) convention: `v, ab := Get(a, o, k); if ab != nil { return ab }`
// is the `?` operator, Must is the `!` operator.
type Completion struct {
	Type   CompletionType
	Value  Value
	Target string
}

func NormalCompletion(v Value) Completion {
	return Completion{Type: CompletionNormal, Value: v}
}

func ThrowCompletion(v Value) *Completion {
	return &Completion{Type: CompletionThrow, Value: v}
}

func ReturnCompletion(v Value) *Completion {
	return &Completion{Type: CompletionReturn, Value: v}
}

func BreakCompletion(target string) *Completion {
	return &Completion{Type: CompletionBreak, Value: Empty, Target: target}
}

func ContinueCompletion(target string) *Completion {
	return &Completion{Type: CompletionContinue, Value: Empty, Target: target}
}

// IsAbrupt is nil-safe so it can be called on the abrupt half of an
// operation result directly.
func (c *Completion) IsAbrupt() bool {
	return c != nil && c.Type != CompletionNormal
}

func (c *Completion) IsThrow() bool {
	return c != nil && c.Type == CompletionThrow
}

// Must unwraps a completion that the caller knows is normal. An abrupt
// completion here is an engine bug.
func (c Completion) Must() Value {
	if c.Type != CompletionNormal {
		panic(errors.Assertf("expected normal completion, got %s %s", c.Type, c.Value))
	}
	return c.Value
}

func (c Completion) String() string {
	if c.Target != "" {
		return fmt.Sprintf("%s(%s, %s)", c.Type, c.Value, c.Target)
	}
	return fmt.Sprintf("%s(%s)", c.Type, c.Value)
}

// Must is the `!` operator for operations returning (T, *Completion).
func Must[T any](v T, ab *Completion) T {
	if ab != nil {
		panic(errors.Assertf("expected normal completion, got %s", ab))
	}
	return v
}

// MustOK is Must for operations that only return a completion.
func MustOK(ab *Completion) {
	if ab != nil {
		panic(errors.Assertf("expected normal completion, got %s", ab))
	}
}

// UpdateEmpty replaces an empty completion value with v.
func UpdateEmpty(c Completion, v Value) Completion {
	if c.Value.IsEmpty() {
		c.Value = v
	}
	return c
}

// abrupt turns a statement completion into the pointer form used by
// operations; normal completions become nil.
func (c Completion) abrupt() *Completion {
	if c.Type == CompletionNormal {
		return nil
	}
	cc := c
	return &cc
}

// fromAbrupt is the inverse of abrupt for a known abrupt completion.
func fromAbrupt(ab *Completion) Completion {
	return *ab
}

// Assert panics with an AssertionError when cond is false.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(errors.Assertf(format, args...))
	}
}

func assertionf(format string, args ...any) error {
	return errors.Assertf(format, args...)
}
