package engine

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/dop251/goja/ast"
	"github.com/google/uuid"
)

// Realm is a Realm Record: an isolated set of intrinsics with its own global
// object and global environment.
type Realm struct {
	// ID identifies the realm in logs and host bookkeeping.
	ID uuid.UUID

	Intrinsics    map[string]*Object
	GlobalObject  *Object
	GlobalEnv     *GlobalEnvironment
	TemplateMap   map[*ast.TemplateLiteral]*Object
	LoadedModules map[string]*ModuleRecord
	HostDefined   any

	// Rand backs Math.random.
	Rand *rand.Rand

	agent *Agent
}

// Agent returns the agent that created the realm.
func (r *Realm) Agent() *Agent { return r.agent }

// Intrinsic returns the %name% intrinsic. Asking for one that bootstrap has
// not defined yet is an engine bug.
func (r *Realm) Intrinsic(name string) *Object {
	o, ok := r.Intrinsics[name]
	if !ok {
		panic(assertionf("intrinsic %s read before it was defined", name))
	}
	return o
}

// LookupIntrinsic is Intrinsic without the assertion.
func (r *Realm) LookupIntrinsic(name string) (*Object, bool) {
	o, ok := r.Intrinsics[name]
	return o, ok
}

// SetIntrinsic records o as %name%. Library initializers use it to publish
// what they build.
func (r *Realm) SetIntrinsic(name string, o *Object) {
	Assert(o != nil, "intrinsic %s set to nil", name)
	r.Intrinsics[name] = o
}

func (r *Realm) String() string {
	return fmt.Sprintf("realm %s", r.ID)
}

func (r *Realm) markRoots(mark func(Value)) {
	for _, o := range r.Intrinsics {
		mark(ObjectValue(o))
	}
	if r.GlobalObject != nil {
		mark(ObjectValue(r.GlobalObject))
	}
	if r.GlobalEnv != nil {
		markEnvironment(r.GlobalEnv, mark)
	}
	for _, t := range r.TemplateMap {
		mark(ObjectValue(t))
	}
	for _, m := range r.LoadedModules {
		mark(ObjectValue(m.Namespace()))
	}
}

// CreateRealm implements CreateRealm: a realm with its intrinsics and no
// global object yet.
func (a *Agent) CreateRealm() (*Realm, error) {
	seed := rand.Uint64()
	if a.Hooks.RandomSeed != nil {
		seed = uint64(a.Hooks.RandomSeed())
	}
	r := &Realm{
		ID:            uuid.New(),
		Intrinsics:    make(map[string]*Object, 128),
		TemplateMap:   make(map[*ast.TemplateLiteral]*Object),
		LoadedModules: make(map[string]*ModuleRecord),
		Rand:          rand.New(rand.NewPCG(seed, seed>>1|1)),
		agent:         a,
	}
	if err := a.CreateIntrinsics(r); err != nil {
		return nil, err
	}
	a.realms = append(a.realms, r)
	realmLog.Infof("created %s (%d intrinsics)", r, len(r.Intrinsics))
	return r, nil
}

// CreateIntrinsics implements CreateIntrinsics. The core skeleton is built
// in dependency order, then library initializers run by priority.
func (a *Agent) CreateIntrinsics(r *Realm) error {
	createCoreIntrinsics(a, r)
	inits := slices.Clone(a.initializers)
	slices.SortStableFunc(inits, func(x, y IntrinsicsInitializer) int {
		return cmp.Compare(x.Priority(), y.Priority())
	})
	// Initializers may create objects through operations that consult the
	// running realm.
	ctx := &ExecutionContext{Realm: r}
	a.PushContext(ctx)
	defer a.PopContext(ctx)
	for _, init := range inits {
		if debugEnabled(realmLog) {
			realmLog.Debugf("%s: init %s", r, init.Name())
		}
		if err := init.InitRealm(a, r); err != nil {
			return fmt.Errorf("initializing %s: %w", init.Name(), err)
		}
	}
	return nil
}

// SetRealmGlobalObject implements SetRealmGlobalObject. Nil arguments pick
// an ordinary global object and use it as this.
func (a *Agent) SetRealmGlobalObject(r *Realm, globalObj, thisValue *Object) {
	if globalObj == nil {
		globalObj = OrdinaryObjectCreate(r.Intrinsic("%Object.prototype%"))
	}
	if thisValue == nil {
		thisValue = globalObj
	}
	r.GlobalObject = globalObj
	r.GlobalEnv = NewGlobalEnvironment(globalObj, thisValue)
}

// globalValueProperties are installed non-writable, non-configurable.
var globalValueProperties = []struct {
	name  string
	value Value
}{
	{"Infinity", Number(math.Inf(1))},
	{"NaN", Number(math.NaN())},
	{"undefined", Undefined},
}

// globalFunctionNames lists the global function properties.
var globalFunctionNames = []string{"isFinite", "isNaN", "parseFloat", "parseInt"}

// coreConstructorNames are built by the engine itself before any library
// initializer runs, so every realm has them.
var coreConstructorNames = []string{
	"AggregateError", "Array", "Error", "EvalError", "Function", "Promise",
	"RangeError", "ReferenceError", "SyntaxError", "TypeError", "URIError",
}

// globalConstructorNames lists the constructors installed by library
// initializers. A host may leave any of these families out.
var globalConstructorNames = []string{
	"ArrayBuffer", "BigInt", "Boolean", "Float64Array", "Int32Array",
	"Int8Array", "Iterator", "Number", "Object", "Proxy", "RegExp", "String",
	"Symbol", "Uint8Array",
}

// globalNamespaceNames lists the global namespace objects.
var globalNamespaceNames = []string{"JSON", "Math", "Reflect"}

// SetDefaultGlobalBindings implements SetDefaultGlobalBindings. A missing
// core constructor is an engine bug; library globals whose initializer was
// not configured are skipped.
func (a *Agent) SetDefaultGlobalBindings(r *Realm) *Completion {
	global := r.GlobalObject
	Assert(global != nil, "%s has no global object", r)
	define := func(name string, v Value, writable, configurable bool) *Completion {
		return DefinePropertyOrThrow(a, global, StringKey(name), DataDescriptor(v, writable, false, configurable))
	}
	if ab := define("globalThis", ObjectValue(r.GlobalEnv.GlobalThisValue), true, true); ab != nil {
		return ab
	}
	for _, p := range globalValueProperties {
		if ab := define(p.name, p.value, false, false); ab != nil {
			return ab
		}
	}
	for _, name := range coreConstructorNames {
		if ab := define(name, ObjectValue(r.Intrinsic("%"+name+"%")), true, true); ab != nil {
			return ab
		}
	}
	var names []string
	names = append(names, globalFunctionNames...)
	names = append(names, globalConstructorNames...)
	names = append(names, globalNamespaceNames...)
	for _, name := range names {
		o, ok := r.LookupIntrinsic("%" + name + "%")
		if !ok {
			realmLog.Debugf("%s: no %%%s%%, global left unbound", r, name)
			continue
		}
		if ab := define(name, ObjectValue(o), true, true); ab != nil {
			return ab
		}
	}
	return nil
}

// InitializeHostDefinedRealm implements InitializeHostDefinedRealm. The new
// realm's script context is left running; the caller pops it with the
// returned context when done.
func (a *Agent) InitializeHostDefinedRealm() (*Realm, *ExecutionContext, error) {
	r, err := a.CreateRealm()
	if err != nil {
		return nil, nil, err
	}
	ctx := &ExecutionContext{Realm: r}
	a.PushContext(ctx)
	a.SetRealmGlobalObject(r, nil, nil)
	if ab := a.SetDefaultGlobalBindings(r); ab != nil {
		a.PopContext(ctx)
		return nil, nil, a.RuntimeErrorFrom(ab)
	}
	return r, ctx, nil
}

// NewRealm creates a fully initialized realm without leaving a context on
// the stack. It is the usual host entry point.
func (a *Agent) NewRealm() (*Realm, error) {
	r, ctx, err := a.InitializeHostDefinedRealm()
	if err != nil {
		return nil, err
	}
	a.PopContext(ctx)
	return r, nil
}
