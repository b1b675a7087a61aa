package driver

import (
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strings"

	"github.com/nooga/specjs/pkg/engine"
)

// ModuleBuilder provides the declarative API for building native modules.
// Exports become the bindings of a synthetic module record, and Go values
// are converted to language values with reflection.
type ModuleBuilder struct {
	agent  *engine.Agent
	realm  *engine.Realm
	names  []string
	values map[string]engine.Value
}

// NamespaceBuilder collects the members of a plain object exported from a
// module.
type NamespaceBuilder struct {
	m      *ModuleBuilder
	names  []string
	values map[string]engine.Value
}

// NativeModule is a module declared in Go code. Its builder runs once per
// realm that loads it.
type NativeModule struct {
	name    string
	builder func(*ModuleBuilder)
}

// Name returns the specifier the module was declared under.
func (nm *NativeModule) Name() string { return nm.name }

func (m *ModuleBuilder) export(name string, v engine.Value) *ModuleBuilder {
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = v
	return m
}

// Const exports a Go value converted with goValueToValue.
func (m *ModuleBuilder) Const(name string, value any) *ModuleBuilder {
	return m.export(name, goValueToValue(m.agent, m.realm, value))
}

// Function exports a Go function. fn is either an engine.NativeFunction or
// any Go func, whose arguments and results are converted by reflection. A
// trailing error result becomes a thrown Error.
func (m *ModuleBuilder) Function(name string, fn any) *ModuleBuilder {
	return m.export(name, engine.ObjectValue(goFunctionToValue(m.realm, name, fn)))
}

// Namespace exports a plain object built by builder.
func (m *ModuleBuilder) Namespace(name string, builder func(ns *NamespaceBuilder)) *ModuleBuilder {
	ns := &NamespaceBuilder{m: m, values: make(map[string]engine.Value)}
	builder(ns)
	obj := engine.OrdinaryObjectCreate(m.realm.Intrinsic("%Object.prototype%"))
	for _, prop := range ns.names {
		obj.DefineDirect(engine.StringKey(prop), ns.values[prop], true, true, true)
	}
	return m.export(name, engine.ObjectValue(obj))
}

// Default sets the default export.
func (m *ModuleBuilder) Default(value any) *ModuleBuilder {
	return m.export("default", goValueToValue(m.agent, m.realm, value))
}

func (ns *NamespaceBuilder) set(name string, v engine.Value) *NamespaceBuilder {
	if _, ok := ns.values[name]; !ok {
		ns.names = append(ns.names, name)
	}
	ns.values[name] = v
	return ns
}

func (ns *NamespaceBuilder) Const(name string, value any) *NamespaceBuilder {
	return ns.set(name, goValueToValue(ns.m.agent, ns.m.realm, value))
}

func (ns *NamespaceBuilder) Function(name string, fn any) *NamespaceBuilder {
	return ns.set(name, engine.ObjectValue(goFunctionToValue(ns.m.realm, name, fn)))
}

// DeclareModule registers a native module under name. Scripts reach it
// through process.binding(name); hosts through Session.Import.
func (s *Session) DeclareModule(name string, builder func(m *ModuleBuilder)) *NativeModule {
	module := &NativeModule{name: name, builder: builder}
	s.modules[name] = module
	return module
}

// loadModule is the engine's LoadModule hook.
func (s *Session) loadModule(a *engine.Agent, realm *engine.Realm, specifier string) (*engine.ModuleRecord, error) {
	module, ok := s.modules[specifier]
	if !ok {
		return nil, fmt.Errorf("native module %q not found", specifier)
	}
	builder := &ModuleBuilder{agent: a, realm: realm, values: make(map[string]engine.Value)}
	module.builder(builder)
	record := engine.CreateSyntheticModule(a, realm, specifier, builder.names)
	for _, name := range builder.names {
		record.SetSyntheticModuleExport(a, name, builder.values[name])
	}
	driverLog.Debugf("loaded native module %s (%d exports)", specifier, len(builder.names))
	return record, nil
}

// goValueToValue converts a Go value to a language value. Maps become
// objects with keys in sorted order; structs become objects keyed by their
// json tag or field name.
func goValueToValue(a *engine.Agent, realm *engine.Realm, value any) engine.Value {
	switch v := value.(type) {
	case nil:
		return engine.Null
	case engine.Value:
		return v
	case *engine.Object:
		return engine.ObjectValue(v)
	case *big.Int:
		return engine.BigInt(v)
	case error:
		return engine.ObjectValue(a.NewError(engine.Error, v.Error()))
	}
	return reflectToValue(a, realm, reflect.ValueOf(value))
}

func reflectToValue(a *engine.Agent, realm *engine.Realm, rv reflect.Value) engine.Value {
	if !rv.IsValid() {
		return engine.Undefined
	}
	switch rv.Kind() {
	case reflect.String:
		return engine.String(rv.String())
	case reflect.Bool:
		return engine.Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return engine.Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return engine.Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return engine.Number(rv.Float())
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return engine.Null
		}
		return goValueToValue(a, realm, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		items := make([]engine.Value, rv.Len())
		for i := range items {
			items[i] = goValueToValue(a, realm, rv.Index(i).Interface())
		}
		arr := engine.Must(engine.ArrayCreate(a, 0, realm.Intrinsic("%Array.prototype%")))
		for i, item := range items {
			engine.MustOK(engine.CreateDataPropertyOrThrow(a, arr, engine.IndexKey(int64(i)), item))
		}
		return engine.ObjectValue(arr)
	case reflect.Map:
		obj := engine.OrdinaryObjectCreate(realm.Intrinsic("%Object.prototype%"))
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(x, y reflect.Value) int {
			return strings.Compare(fmt.Sprint(x.Interface()), fmt.Sprint(y.Interface()))
		})
		for _, k := range keys {
			v := goValueToValue(a, realm, rv.MapIndex(k).Interface())
			obj.DefineDirect(engine.StringKey(fmt.Sprint(k.Interface())), v, true, true, true)
		}
		return engine.ObjectValue(obj)
	case reflect.Struct:
		obj := engine.OrdinaryObjectCreate(realm.Intrinsic("%Object.prototype%"))
		t := rv.Type()
		for i := range t.NumField() {
			field := t.Field(i)
			name, ok := jsonPropertyName(field)
			if !ok {
				continue
			}
			v := goValueToValue(a, realm, rv.Field(i).Interface())
			obj.DefineDirect(engine.StringKey(name), v, true, true, true)
		}
		return engine.ObjectValue(obj)
	case reflect.Func:
		return engine.ObjectValue(goFunctionToValue(realm, "", rv.Interface()))
	}
	return engine.Undefined
}

// jsonPropertyName picks the property name for an exported struct field,
// honoring `json:"name"` and `json:"-"`.
func jsonPropertyName(field reflect.StructField) (string, bool) {
	if !field.IsExported() {
		return "", false
	}
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return field.Name, true
}

var (
	errorType = reflect.TypeFor[error]()
	valueType = reflect.TypeFor[engine.Value]()
)

// goFunctionToValue wraps a Go function as a built-in function object.
func goFunctionToValue(realm *engine.Realm, name string, fn any) *engine.Object {
	if native, ok := fn.(engine.NativeFunction); ok {
		return engine.NewNativeFunction(realm, name, 0, native)
	}
	if native, ok := fn.(func(*engine.Agent, engine.Value, []engine.Value, *engine.Object) (engine.Value, *engine.Completion)); ok {
		return engine.NewNativeFunction(realm, name, 0, native)
	}
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	engine.Assert(ft.Kind() == reflect.Func, "native export %s is %s, not a function", name, ft)
	return engine.NewNativeFunction(realm, name, ft.NumIn(), func(a *engine.Agent, _ engine.Value, args []engine.Value, _ *engine.Object) (engine.Value, *engine.Completion) {
		in := make([]reflect.Value, ft.NumIn())
		for i := range in {
			arg := engine.Undefined
			if i < len(args) {
				arg = args[i]
			}
			rv, ab := valueToReflect(a, arg, ft.In(i))
			if ab != nil {
				return engine.Undefined, ab
			}
			in[i] = rv
		}
		out := fv.Call(in)
		if n := len(out); n > 0 && ft.Out(n-1) == errorType {
			if err, _ := out[n-1].Interface().(error); err != nil {
				return engine.Undefined, engine.ThrowCompletion(engine.ObjectValue(a.NewError(engine.Error, err.Error())))
			}
			out = out[:n-1]
		}
		if len(out) == 0 {
			return engine.Undefined, nil
		}
		return goValueToValue(a, a.CurrentRealm(), out[0].Interface()), nil
	})
}

// valueToReflect converts an argument to the Go parameter type t using the
// language's own conversions, so a throwing valueOf propagates.
func valueToReflect(a *engine.Agent, v engine.Value, t reflect.Type) (reflect.Value, *engine.Completion) {
	if t == valueType {
		return reflect.ValueOf(v), nil
	}
	switch t.Kind() {
	case reflect.String:
		s, ab := engine.ToString(a, v)
		return reflect.ValueOf(s).Convert(t), ab
	case reflect.Bool:
		return reflect.ValueOf(engine.ToBoolean(v)).Convert(t), nil
	case reflect.Float32, reflect.Float64:
		n, ab := engine.ToNumber(a, v)
		return reflect.ValueOf(n).Convert(t), ab
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ab := engine.ToIntegerOrInfinity(a, v)
		return reflect.ValueOf(int64(n)).Convert(t), ab
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ab := engine.ToIntegerOrInfinity(a, v)
		return reflect.ValueOf(uint64(max(n, 0))).Convert(t), ab
	case reflect.Slice:
		o := v.AsObject()
		if o == nil {
			return reflect.Zero(t), nil
		}
		length, ab := engine.LengthOfArrayLike(a, o)
		if ab != nil {
			return reflect.Value{}, ab
		}
		out := reflect.MakeSlice(t, int(length), int(length))
		for i := range length {
			item, ab := engine.Get(a, o, engine.IndexKey(i))
			if ab != nil {
				return reflect.Value{}, ab
			}
			rv, ab := valueToReflect(a, item, t.Elem())
			if ab != nil {
				return reflect.Value{}, ab
			}
			out.Index(int(i)).Set(rv)
		}
		return out, nil
	case reflect.Interface:
		if g := valueToGo(v); g != nil && t.NumMethod() == 0 {
			return reflect.ValueOf(g), nil
		}
	}
	return reflect.Zero(t), nil
}

// valueToGo is the loose conversion used for `any` parameters.
func valueToGo(v engine.Value) any {
	switch {
	case v.IsUndefined(), v.IsNull():
		return nil
	case v.IsBoolean():
		return v.AsBool()
	case v.IsNumber():
		return v.AsNumber()
	case v.IsString():
		return v.AsString()
	case v.IsBigInt():
		return v.AsBigInt()
	}
	return v
}
