package engine

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/google/uuid"
	"golang.org/x/text/message"

	"github.com/nooga/specjs/pkg/errors"
	"github.com/nooga/specjs/pkg/runtime"
)

// HostHooks are the host-defined operations the engine calls out to. Every
// field is optional.
type HostHooks struct {
	// PromiseRejectionTracker is told about "reject" and "handle" events.
	PromiseRejectionTracker func(promise *Object, operation string)
	// HasFeature gates optional language features by name.
	HasFeature func(name string) bool
	// RandomSeed seeds Math.random for a new realm.
	RandomSeed func() int64
	// OnDebugger runs for each debugger statement.
	OnDebugger func(a *Agent)
	// BeforeMutation is called right before the engine mutates an object's
	// own properties or prototype. The key is zero for prototype changes.
	BeforeMutation func(o *Object, key PropertyKey)
	// ReportError receives uncaught job errors and unhandled rejections.
	ReportError func(err error)
	// LoadModule resolves a specifier to a synthetic module record.
	LoadModule func(a *Agent, realm *Realm, specifier string) (*ModuleRecord, error)
}

// IntrinsicsInitializer populates library intrinsics of a new realm after
// the core skeleton exists. Lower priorities run first.
type IntrinsicsInitializer interface {
	Name() string
	Priority() int
	InitRealm(a *Agent, realm *Realm) error
}

// AgentOptions configures NewAgent.
type AgentOptions struct {
	Hooks        HostHooks
	Initializers []IntrinsicsInitializer
	Jobs         runtime.JobQueue
	// MaxCallDepth bounds the execution context stack; zero picks the
	// default.
	MaxCallDepth int
	CanBlock     bool
}

const defaultMaxCallDepth = 2500

// Agent is the single logical thread of execution: the context stack, the
// job queue and host hooks shared by its realms.
type Agent struct {
	Signifier      uuid.UUID
	IsLittleEndian bool
	CanBlock       bool
	Hooks          HostHooks

	stack          []*ExecutionContext
	jobs           runtime.JobQueue
	symbolRegistry map[string]*Symbol
	coroutines     map[*coroutine]struct{}
	initializers   []IntrinsicsInitializer
	realms         []*Realm
	printer        *message.Printer
	maxCallDepth   int
	closed         bool

	// rejections holds promises rejected without a handler, in order.
	rejections []*Object

	functionInfo map[ast.Node]*functionInfo
}

// NewAgent creates an idle agent.
func NewAgent(opts AgentOptions) *Agent {
	a := &Agent{
		Signifier:      uuid.New(),
		IsLittleEndian: nativeLittleEndian(),
		CanBlock:       opts.CanBlock,
		Hooks:          opts.Hooks,
		jobs:           opts.Jobs,
		symbolRegistry: make(map[string]*Symbol),
		coroutines:     make(map[*coroutine]struct{}),
		initializers:   opts.Initializers,
		printer:        newMessagePrinter(),
		maxCallDepth:   opts.MaxCallDepth,
		functionInfo:   make(map[ast.Node]*functionInfo),
	}
	if a.jobs == nil {
		a.jobs = runtime.NewFIFOQueue()
	}
	if a.maxCallDepth <= 0 {
		a.maxCallDepth = defaultMaxCallDepth
	}
	agentLog.Debugf("agent %s created", a.Signifier)
	return a
}

func nativeLittleEndian() bool {
	var probe [2]byte
	binary.NativeEndian.PutUint16(probe[:], 1)
	return probe[0] == 1
}

// Close aborts every suspended coroutine so that their goroutines exit. The
// agent must not be used afterwards.
func (a *Agent) Close() {
	if a.closed {
		return
	}
	a.closed = true
	for co := range a.coroutines {
		co.abort()
	}
	a.coroutines = nil
	a.jobs.Reset()
	agentLog.Debugf("agent %s closed", a.Signifier)
}

// Realms lists the realms created by this agent.
func (a *Agent) Realms() []*Realm { return a.realms }

// HasFeature consults the host feature gate; features default to on.
func (a *Agent) HasFeature(name string) bool {
	if a.Hooks.HasFeature == nil {
		return true
	}
	return a.Hooks.HasFeature(name)
}

// SymbolFor returns the registered symbol for key, creating it on first use.
// The registry is shared by all realms of the agent.
func (a *Agent) SymbolFor(key string) *Symbol {
	if s, ok := a.symbolRegistry[key]; ok {
		return s
	}
	s := NewSymbol(String(key))
	a.symbolRegistry[key] = s
	return s
}

// SymbolKeyFor is the reverse lookup of SymbolFor.
func (a *Agent) SymbolKeyFor(s *Symbol) (string, bool) {
	if !s.description.IsString() {
		return "", false
	}
	key := s.description.AsString()
	return key, a.symbolRegistry[key] == s
}

func (a *Agent) beforeMutation(o *Object, k PropertyKey) {
	if a != nil && a.Hooks.BeforeMutation != nil {
		a.Hooks.BeforeMutation(o, k)
	}
}

// checkCallDepth guards against unbounded recursion of script code.
func (a *Agent) checkCallDepth() *Completion {
	if len(a.stack) >= a.maxCallDepth {
		return a.Throw(RangeError, MsgCallStackExceeded)
	}
	return nil
}

// Throw builds a throw completion whose value is a new instance of the
// running realm's %kind% constructor.
func (a *Agent) Throw(kind ErrorKind, key Msg, args ...any) *Completion {
	return ThrowCompletion(ObjectValue(a.NewError(kind, a.Format(key, args...))))
}

// NewError creates an error instance of the given kind in the running realm.
func (a *Agent) NewError(kind ErrorKind, msg string) *Object {
	realm := a.CurrentRealm()
	o := newObjectWithSlots(KindError, realm.Intrinsic("%"+string(kind)+".prototype%"), &ErrorData{})
	if msg != "" {
		o.DefineDirect(StringKey("message"), String(msg), true, false, true)
	}
	return o
}

// ErrorData marks objects that carry [[ErrorData]].
type ErrorData struct {
	// Errors backs AggregateError's errors list.
	Errors []Value
}

// --- jobs ---

// HostEnqueuePromiseJob queues job to run in realm (nil allowed).
func (a *Agent) HostEnqueuePromiseJob(name string, realm *Realm, roots []any, job func() *Completion) {
	script := a.GetActiveScriptOrModule()
	a.jobs.Enqueue(runtime.Job{
		Name:  name,
		Realm: realm,
		Roots: roots,
		Run: func() {
			r := realm
			if r == nil {
				r = a.defaultRealm()
			}
			ctx := &ExecutionContext{Realm: r, ScriptOrModule: script}
			a.PushContext(ctx)
			ab := job()
			a.PopContext(ctx)
			if ab.IsAbrupt() {
				a.reportAbrupt(name, ab)
			}
		},
	})
}

func (a *Agent) defaultRealm() *Realm {
	Assert(len(a.realms) > 0, "no realm available to run a job")
	return a.realms[0]
}

// PendingJobs reports the number of queued jobs.
func (a *Agent) PendingJobs() int { return a.jobs.Len() }

// ErrJobLimit is returned by RunJobs when the drain limit is reached.
var ErrJobLimit = fmt.Errorf("job limit reached")

// RunJobs drains the job queue in FIFO order. It may only be called with an
// empty execution context stack. limit bounds the number of jobs run (zero
// means no bound); ctx is checked between jobs.
func (a *Agent) RunJobs(ctx context.Context, limit int) error {
	Assert(len(a.stack) == 0, "RunJobs with %d execution contexts on the stack", len(a.stack))
	ran := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limit > 0 && ran >= limit {
			return ErrJobLimit
		}
		job, ok := a.jobs.Dequeue()
		if !ok {
			break
		}
		if debugEnabled(jobsLog) {
			jobsLog.Debugf("run %s (pending %d)", job.Name, a.jobs.Len())
		}
		job.Run()
		Assert(len(a.stack) == 0, "job %s left %d execution contexts on the stack", job.Name, len(a.stack))
		ran++
	}
	a.reportUnhandledRejections()
	return nil
}

func (a *Agent) reportAbrupt(where string, ab *Completion) {
	err := a.RuntimeErrorFrom(ab)
	jobsLog.Errorf("uncaught exception in %s: %s", where, err.Msg)
	if a.Hooks.ReportError != nil {
		a.Hooks.ReportError(err)
	}
}

// RuntimeErrorFrom renders an abrupt completion as a host error.
func (a *Agent) RuntimeErrorFrom(ab *Completion) *errors.RuntimeError {
	name, msg := DescribeThrown(ab.Value)
	return &errors.RuntimeError{Name: name, Msg: msg, Thrown: ab.Value}
}

// DescribeThrown extracts a name and message from a thrown value without
// running script code.
func DescribeThrown(v Value) (name, msg string) {
	o := v.AsObject()
	if o == nil {
		return "", v.String()
	}
	if _, ok := o.slots.(*ErrorData); ok {
		name = lookupDataString(o, "name")
		msg = lookupDataString(o, "message")
		if name == "" {
			name = "Error"
		}
		if msg == "" {
			return name, name
		}
		return name, name + ": " + msg
	}
	if n := lookupDataString(o, "name"); n != "" {
		// Errors produced by harness constructors such as Test262Error.
		m := lookupDataString(o, "message")
		return n, n + ": " + m
	}
	return "", v.String()
}

// lookupDataString walks the prototype chain reading plain string data
// properties only.
func lookupDataString(o *Object, name string) string {
	k := StringKey(name)
	for depth := 0; o != nil && depth < 64; depth++ {
		if p, ok := o.props.get(k); ok {
			if !p.accessor && p.value.IsString() {
				return p.value.str
			}
			return ""
		}
		if o.kind == KindProxy {
			return ""
		}
		o = o.proto
	}
	return ""
}

// --- roots ---

// MarkRoots enumerates the values the agent keeps alive: realm intrinsics
// and global objects, the context stack, queued jobs and suspended
// coroutines. Go's collector does the actual reclamation; this is for hosts
// that track reachability themselves.
func (a *Agent) MarkRoots(mark func(Value)) {
	for _, r := range a.realms {
		r.markRoots(mark)
	}
	for _, ctx := range a.stack {
		markContext(ctx, mark)
	}
	a.jobs.Each(func(j runtime.Job) {
		for _, root := range j.Roots {
			switch r := root.(type) {
			case Value:
				mark(r)
			case *Object:
				mark(ObjectValue(r))
			case *Realm:
				r.markRoots(mark)
			}
		}
	})
	for co := range a.coroutines {
		if co.ctx != nil {
			markContext(co.ctx, mark)
		}
	}
	for _, p := range a.rejections {
		mark(ObjectValue(p))
	}
}

func markContext(ctx *ExecutionContext, mark func(Value)) {
	if ctx.Function != nil {
		mark(ObjectValue(ctx.Function))
	}
	if ctx.Generator != nil {
		mark(ObjectValue(ctx.Generator))
	}
	for env := ctx.LexicalEnvironment; env != nil; env = env.Outer() {
		markEnvironment(env, mark)
	}
}
