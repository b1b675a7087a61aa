package builtins

import (
	"github.com/nooga/specjs/pkg/engine"
)

// Initializer is implemented by each builtin module. It is the engine's
// IntrinsicsInitializer; InitRealm runs once per realm after the core
// skeleton (Object.prototype, Function.prototype, Array, errors, Promise,
// generator prototypes) has been built.
type Initializer = engine.IntrinsicsInitializer

// Priority constants for initialization order
const (
	PriorityObject   = 0  // Object statics and Object.prototype methods
	PriorityFunction = 1  // Function.prototype methods
	PrioritySymbol   = 2  // Symbol must exist before anything keys by it
	PriorityIterator = 3  // Iterator constructor and helpers
	PriorityArray    = 4  // Array statics and prototype methods
	PriorityError    = 5  // Error.prototype.toString
	PriorityString   = 10 // String primitives
	PriorityNumber   = 11 // Number primitives
	PriorityBoolean  = 12 // Boolean primitives
	PriorityBigInt   = 13 // BigInt primitives
	PriorityRegExp   = 14 // RegExp constructor
	PriorityBuffer   = 20 // ArrayBuffer
	PriorityTyped    = 21 // typed array constructors, after ArrayBuffer
	PriorityPromise  = 30 // Promise statics and prototype methods
	PriorityProxy    = 40 // Proxy constructor
	PriorityReflect  = 41 // Reflect namespace
	PriorityMath     = 100
	PriorityJSON     = 101
	PriorityGlobals  = 200 // global functions last
)
