package driver

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/nooga/specjs/pkg/engine"
)

// ProcessInitializer publishes the host objects: a Node-flavored process
// object, a print function and console. They are not part of the language;
// InstallHostGlobals binds them once the realm has a global object.
type ProcessInitializer struct {
	argv []string
	out  io.Writer
}

// NewProcessInitializer creates a ProcessInitializer writing to out.
func NewProcessInitializer(argv []string, out io.Writer) *ProcessInitializer {
	if out == nil {
		out = os.Stdout
	}
	return &ProcessInitializer{argv: argv, out: out}
}

func (p *ProcessInitializer) Name() string { return "process" }

// Priority runs after the standard library.
func (p *ProcessInitializer) Priority() int { return 300 }

func (p *ProcessInitializer) InitRealm(a *engine.Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	objectProto := r.Intrinsic("%Object.prototype%")

	argv := make([]engine.Value, len(p.argv))
	for i, s := range p.argv {
		argv[i] = engine.String(s)
	}
	env := engine.OrdinaryObjectCreate(objectProto)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env.DefineDirect(engine.StringKey(k), engine.String(v), true, true, true)
		}
	}

	stdout := engine.OrdinaryObjectCreate(objectProto)
	b.Method(stdout, "write", 1, func(a *engine.Agent, _ engine.Value, args []engine.Value, _ *engine.Object) (engine.Value, *engine.Completion) {
		s, ab := engine.ToString(a, argOrUndefined(args, 0))
		if ab != nil {
			return engine.Undefined, ab
		}
		io.WriteString(p.out, s)
		return engine.Bool(true), nil
	})

	process := b.Object()
	process.DefineDirect(engine.StringKey("argv"), engine.ObjectValue(engine.CreateArrayFromList(a, argv)), true, true, true)
	process.DefineDirect(engine.StringKey("platform"), engine.String(runtime.GOOS), true, true, true)
	process.DefineDirect(engine.StringKey("arch"), engine.String(runtime.GOARCH), true, true, true)
	process.DefineDirect(engine.StringKey("env"), engine.ObjectValue(env), true, true, true)
	process.DefineDirect(engine.StringKey("stdout"), engine.ObjectValue(stdout), true, true, true)
	b.Method(process, "cwd", 0, func(a *engine.Agent, _ engine.Value, _ []engine.Value, _ *engine.Object) (engine.Value, *engine.Completion) {
		dir, err := os.Getwd()
		if err != nil {
			return engine.Undefined, a.Throw(engine.Error, engine.MsgGeneric, err.Error())
		}
		return engine.String(dir), nil
	})
	b.Method(process, "binding", 1, func(a *engine.Agent, _ engine.Value, args []engine.Value, _ *engine.Object) (engine.Value, *engine.Completion) {
		name, ab := engine.ToString(a, argOrUndefined(args, 0))
		if ab != nil {
			return engine.Undefined, ab
		}
		ns, ab := a.GetModuleNamespace(a.CurrentRealm(), name)
		if ab != nil {
			return engine.Undefined, ab
		}
		return engine.ObjectValue(ns), nil
	})
	b.ToStringTag(process, "process")
	r.SetIntrinsic("%process%", process)

	print := engine.NewNativeFunction(r, "print", 1, p.print)
	r.SetIntrinsic("%print%", print)

	console := b.Object()
	console.DefineDirect(engine.StringKey("log"), engine.ObjectValue(print), true, false, true)
	r.SetIntrinsic("%console%", console)
	return nil
}

// print writes its arguments separated by spaces, then a newline.
func (p *ProcessInitializer) print(a *engine.Agent, _ engine.Value, args []engine.Value, _ *engine.Object) (engine.Value, *engine.Completion) {
	parts := make([]string, len(args))
	for i, v := range args {
		s, ab := engine.ToString(a, v)
		if ab != nil {
			return engine.Undefined, ab
		}
		parts[i] = s
	}
	fmt.Fprintln(p.out, strings.Join(parts, " "))
	return engine.Undefined, nil
}

// hostGlobalNames are bound by InstallHostGlobals when the realm carries
// the matching intrinsic.
var hostGlobalNames = []string{"process", "print", "console"}

// InstallHostGlobals binds the host objects published by
// ProcessInitializer on the realm's global object.
func InstallHostGlobals(a *engine.Agent, r *engine.Realm) *engine.Completion {
	for _, name := range hostGlobalNames {
		o, ok := r.LookupIntrinsic("%" + name + "%")
		if !ok {
			continue
		}
		desc := engine.DataDescriptor(engine.ObjectValue(o), true, false, true)
		if ab := engine.DefinePropertyOrThrow(a, r.GlobalObject, engine.StringKey(name), desc); ab != nil {
			return ab
		}
	}
	return nil
}

func argOrUndefined(args []engine.Value, i int) engine.Value {
	if i < len(args) {
		return args[i]
	}
	return engine.Undefined
}
