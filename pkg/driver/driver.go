package driver

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/nooga/specjs/pkg/builtins"
	"github.com/nooga/specjs/pkg/config"
	"github.com/nooga/specjs/pkg/engine"
	"github.com/nooga/specjs/pkg/errors"
	"github.com/nooga/specjs/pkg/source"
)

var driverLog = commonlog.GetLogger("specjs.driver")

// Session is a persistent engine session: one agent and one realm. Scripts
// run in the same global environment, so bindings declared by one run are
// visible to the next.
type Session struct {
	cfg     *config.Config
	agent   *engine.Agent
	realm   *engine.Realm
	out     io.Writer
	modules map[string]*NativeModule

	// reported collects errors the engine hands to the ReportError hook
	// while jobs drain.
	reported []errors.EngineError
	// broken is set once an engine assertion fired; the agent state is no
	// longer trustworthy after that.
	broken *errors.AssertionError
}

// SessionOptions configures NewSessionWithOptions.
type SessionOptions struct {
	// Stdout receives print output; nil means os.Stdout.
	Stdout io.Writer
	// Argv is exposed to scripts as process.argv.
	Argv []string
	// Initializers run after the standard library.
	Initializers []engine.IntrinsicsInitializer
}

// NewSession creates a session with the given configuration. A nil cfg
// means config.Default().
func NewSession(cfg *config.Config) (*Session, error) {
	return NewSessionWithOptions(cfg, SessionOptions{})
}

// NewSessionWithOptions is NewSession with host options.
func NewSessionWithOptions(cfg *config.Config, opts SessionOptions) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Session{
		cfg:     cfg,
		out:     opts.Stdout,
		modules: make(map[string]*NativeModule),
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	s.declareBuiltinModules()
	hooks := engine.HostHooks{
		HasFeature:  cfg.HasFeature,
		ReportError: s.report,
		LoadModule:  s.loadModule,
	}
	if seed, ok := cfg.Seed(); ok {
		hooks.RandomSeed = func() int64 { return seed }
	}
	inits := builtins.Standard()
	inits = append(inits, NewProcessInitializer(opts.Argv, s.out))
	inits = append(inits, opts.Initializers...)
	s.agent = engine.NewAgent(engine.AgentOptions{
		Hooks:        hooks,
		Initializers: inits,
		MaxCallDepth: cfg.MaxCallDepth,
	})
	realm, err := s.agent.NewRealm()
	if err != nil {
		s.agent.Close()
		return nil, fmt.Errorf("creating realm: %w", err)
	}
	s.realm = realm
	ctx := &engine.ExecutionContext{Realm: realm}
	s.agent.PushContext(ctx)
	ab := InstallHostGlobals(s.agent, realm)
	s.agent.PopContext(ctx)
	if ab != nil {
		s.agent.Close()
		return nil, s.agent.RuntimeErrorFrom(ab)
	}
	driverLog.Debugf("session ready: agent %s, %s", s.agent.Signifier, realm)
	return s, nil
}

// Agent returns the session's agent.
func (s *Session) Agent() *engine.Agent { return s.agent }

// Realm returns the session's realm.
func (s *Session) Realm() *engine.Realm { return s.realm }

// Close releases suspended coroutines.
func (s *Session) Close() { s.agent.Close() }

func (s *Session) report(err error) {
	var ee errors.EngineError
	if !stderrors.As(err, &ee) {
		ee = (&errors.RuntimeError{Msg: err.Error()}).CausedBy(err)
	}
	s.reported = append(s.reported, ee)
}

// RunOptions configures a single run.
type RunOptions struct {
	// Context cancels job draining between jobs; nil means background.
	Context context.Context
	// SkipJobs leaves queued jobs pending instead of draining them.
	SkipJobs bool
}

// RunString evaluates code as a script named "<eval>".
func (s *Session) RunString(code string) (engine.Value, []errors.EngineError) {
	return s.RunSource(source.NewEvalSource(code), RunOptions{})
}

// RunSource parses and evaluates src, then drains the job queue. Errors
// come back in order: the parse or uncaught script error first, then
// errors from jobs and unhandled rejections.
func (s *Session) RunSource(src *source.SourceFile, opts RunOptions) (value engine.Value, errs []errors.EngineError) {
	if s.broken != nil {
		return engine.Undefined, []errors.EngineError{s.broken}
	}
	defer func() {
		if r := recover(); r != nil {
			aerr, ok := r.(*errors.AssertionError)
			if !ok {
				panic(r)
			}
			driverLog.Criticalf("engine assertion in %s: %s", src.DisplayPath(), aerr.Msg)
			s.broken = aerr
			value, errs = engine.Undefined, append(errs, aerr)
		}
	}()

	script, err := s.agent.ParseScript(src, s.realm, nil)
	if err != nil {
		var serr *errors.SyntaxError
		if stderrors.As(err, &serr) {
			return engine.Undefined, []errors.EngineError{serr}
		}
		return engine.Undefined, []errors.EngineError{(&errors.SyntaxError{Msg: err.Error()}).CausedBy(err)}
	}
	value, ab := s.agent.ScriptEvaluation(script)
	if ab != nil {
		rerr := s.agent.RuntimeErrorFrom(ab)
		driverLog.Errorf("uncaught exception in %s: %s", src.DisplayPath(), rerr.Msg)
		errs = append(errs, rerr)
	}
	if !opts.SkipJobs {
		errs = append(errs, s.drain(opts.Context)...)
	}
	return value, errs
}

// RunJobs drains pending jobs and returns the errors they reported.
func (s *Session) RunJobs(ctx context.Context) []errors.EngineError {
	return s.drain(ctx)
}

func (s *Session) drain(ctx context.Context) []errors.EngineError {
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.agent.RunJobs(ctx, s.cfg.JobLimit)
	errs := s.reported
	s.reported = nil
	if err != nil {
		errs = append(errs, (&errors.RuntimeError{Msg: err.Error()}).CausedBy(err))
	}
	return errs
}

// RunFile reads and evaluates a script file.
func (s *Session) RunFile(filename string, opts RunOptions) (engine.Value, []errors.EngineError) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return engine.Undefined, []errors.EngineError{
			(&errors.RuntimeError{Msg: fmt.Sprintf("failed to read file '%s': %s", filename, err)}).CausedBy(err),
		}
	}
	return s.RunSource(source.FromFile(filename, string(content)), opts)
}

// Import returns the namespace object of a declared native module.
func (s *Session) Import(specifier string) (*engine.Object, error) {
	ctx := &engine.ExecutionContext{Realm: s.realm}
	s.agent.PushContext(ctx)
	defer s.agent.PopContext(ctx)
	ns, ab := s.agent.GetModuleNamespace(s.realm, specifier)
	if ab != nil {
		return nil, s.agent.RuntimeErrorFrom(ab)
	}
	return ns, nil
}

// DisplayResult prints errors, or the result value when it is not
// undefined. It reports whether the run was free of errors.
func (s *Session) DisplayResult(sourceCode string, value engine.Value, errs []errors.EngineError) bool {
	if len(errs) > 0 {
		errors.DisplayErrors(sourceCode, errs)
		return false
	}
	if !value.IsUndefined() {
		fmt.Fprintln(s.out, value.String())
	}
	return true
}

// RunString evaluates code in a fresh default session and prints the
// outcome. It reports whether execution completed without errors.
func RunString(code string) bool {
	s, err := NewSession(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	defer s.Close()
	value, errs := s.RunString(code)
	return s.DisplayResult(code, value, errs)
}

// RunFile evaluates a file in a fresh default session and prints the
// outcome.
func RunFile(filename string) bool {
	s, err := NewSession(nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	defer s.Close()
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file '%s': %s\n", filename, err)
		return false
	}
	value, errs := s.RunSource(source.FromFile(filename, string(content)), RunOptions{})
	return s.DisplayResult(string(content), value, errs)
}
