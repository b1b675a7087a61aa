package builtins

import "sort"

// Standard returns all built-in initializers sorted by priority
func Standard() []Initializer {
	var initializers []Initializer

	// Core builtins
	initializers = append(initializers, &ObjectInitializer{})
	initializers = append(initializers, &FunctionInitializer{})
	initializers = append(initializers, &SymbolInitializer{})
	initializers = append(initializers, &IteratorInitializer{})
	initializers = append(initializers, &ArrayInitializer{})
	initializers = append(initializers, &ErrorInitializer{})

	// Primitive wrappers
	initializers = append(initializers, &StringInitializer{})
	initializers = append(initializers, &NumberInitializer{})
	initializers = append(initializers, &BooleanInitializer{})
	initializers = append(initializers, &BigIntInitializer{})
	initializers = append(initializers, &RegExpInitializer{})

	// Binary data
	initializers = append(initializers, &ArrayBufferInitializer{})
	initializers = append(initializers, &TypedArrayInitializer{})

	initializers = append(initializers, &PromiseInitializer{})
	initializers = append(initializers, &ProxyInitializer{})
	initializers = append(initializers, &ReflectInitializer{})
	initializers = append(initializers, &MathInitializer{})
	initializers = append(initializers, &JSONInitializer{})
	initializers = append(initializers, &GlobalsInitializer{})

	// Sort by priority (lower numbers first)
	sort.SliceStable(initializers, func(i, j int) bool {
		return initializers[i].Priority() < initializers[j].Priority()
	})

	return initializers
}
