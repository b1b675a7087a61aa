package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/specjs/pkg/config"
	"github.com/nooga/specjs/pkg/errors"
	"github.com/nooga/specjs/pkg/source"
)

func TestRunStringCompletionValue(t *testing.T) {
	s, _ := newTestSession(t)
	v := run(t, s, "1 + 2")
	assert.Equal(t, float64(3), v.AsNumber())
}

func TestGlobalsPersistAcrossRuns(t *testing.T) {
	s, _ := newTestSession(t)
	run(t, s, "let counter = 1; function bump() { return ++counter; }")
	v := run(t, s, "bump(); bump()")
	assert.Equal(t, float64(3), v.AsNumber())
}

func TestSyntaxErrorIsReported(t *testing.T) {
	s, _ := newTestSession(t)
	_, errs := s.RunString("let = ;")
	require.Len(t, errs, 1)
	var serr *errors.SyntaxError
	require.ErrorAs(t, errs[0], &serr)
	assert.Equal(t, "Syntax", serr.Kind())
}

func TestUncaughtExceptionIsReported(t *testing.T) {
	s, _ := newTestSession(t)
	_, errs := s.RunString(`null.x`)
	require.Len(t, errs, 1)
	var rerr *errors.RuntimeError
	require.ErrorAs(t, errs[0], &rerr)
	assert.Equal(t, "TypeError", rerr.Name)
	assert.False(t, rerr.Unhandled)

	// the session stays usable
	v := run(t, s, "'ok'")
	assert.Equal(t, "ok", v.AsString())
}

func TestJobsDrainAfterScript(t *testing.T) {
	s, out := newTestSession(t)
	run(t, s, `
		var log = [];
		Promise.resolve().then(() => log.push("a")).then(() => log.push("c"));
		Promise.resolve().then(() => log.push("b"));
		log.push("sync");
	`)
	v := run(t, s, "log.join()")
	assert.Equal(t, "sync,a,b,c", v.AsString())
	assert.Empty(t, out.String())
}

func TestSkipJobsLeavesQueue(t *testing.T) {
	s, _ := newTestSession(t)
	_, errs := s.RunSource(sourceOf("var hit = false; Promise.resolve().then(() => { hit = true; });"), RunOptions{SkipJobs: true})
	require.Empty(t, errs)
	assert.Equal(t, 1, s.Agent().PendingJobs())
	require.Empty(t, s.RunJobs(context.Background()))
	assert.True(t, run(t, s, "hit").AsBool())
}

func TestUnhandledRejectionIsReported(t *testing.T) {
	s, _ := newTestSession(t)
	_, errs := s.RunString(`Promise.reject(new RangeError("late"));`)
	require.Len(t, errs, 1)
	var rerr *errors.RuntimeError
	require.ErrorAs(t, errs[0], &rerr)
	assert.True(t, rerr.Unhandled)
	assert.Equal(t, "RangeError: late", rerr.Msg)

	_, errs = s.RunString(`Promise.reject(1).catch(() => {});`)
	assert.Empty(t, errs)
}

func TestRejectionFromReactionIsReported(t *testing.T) {
	s, _ := newTestSession(t)
	_, errs := s.RunString(`
		var thenable = { get then() { throw new TypeError("bad then"); } };
		Promise.resolve(thenable).catch(e => { throw e; });
	`)
	require.Len(t, errs, 1)
	var rerr *errors.RuntimeError
	require.ErrorAs(t, errs[0], &rerr)
	assert.Equal(t, "TypeError", rerr.Name)
}

func TestJobLimit(t *testing.T) {
	cfg := config.Default()
	cfg.JobLimit = 5
	s, err := NewSession(cfg)
	require.NoError(t, err)
	defer s.Close()
	_, errs := s.RunString(`(function loop() { Promise.resolve().then(loop); })();`)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[len(errs)-1].Message(), "job limit")
}

func TestCancelledContextStopsDrain(t *testing.T) {
	s, _ := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, errs := s.RunSource(sourceOf("Promise.resolve().then(() => 1);"), RunOptions{Context: ctx})
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestPrintAndProcess(t *testing.T) {
	s, out := newTestSession(t)
	run(t, s, `print("a", 1, true); console.log(process.argv.join(" ")); process.stdout.write("x\n");`)
	assert.Equal(t, "a 1 true\nspecjs test.js\nx\n", out.String())

	v := run(t, s, "typeof process.cwd() + ' ' + (process.platform.length > 0)")
	assert.Equal(t, "string true", v.AsString())
}

func TestSeededRandomIsDeterministic(t *testing.T) {
	seed := int64(7)
	cfg := config.Default()
	cfg.RandomSeed = &seed
	draw := func() float64 {
		s, err := NewSession(cfg)
		require.NoError(t, err)
		defer s.Close()
		v, errs := s.RunString("Math.random()")
		require.Empty(t, errs)
		return v.AsNumber()
	}
	first := draw()
	assert.Equal(t, first, draw())
	assert.GreaterOrEqual(t, first, 0.0)
	assert.Less(t, first, 1.0)
}

func TestRunFile(t *testing.T) {
	s, out := newTestSession(t)
	path := filepath.Join(t.TempDir(), "main.js")
	require.NoError(t, os.WriteFile(path, []byte(`print("from file"); 40 + 2`), 0o644))
	v, errs := s.RunFile(path, RunOptions{})
	require.Empty(t, errs)
	assert.Equal(t, float64(42), v.AsNumber())
	assert.Equal(t, "from file\n", out.String())

	_, errs = s.RunFile(filepath.Join(t.TempDir(), "missing.js"), RunOptions{})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message(), "failed to read file")
}

func TestDisplayResult(t *testing.T) {
	s, out := newTestSession(t)
	v := run(t, s, "'shown'")
	assert.True(t, s.DisplayResult("'shown'", v, nil))
	assert.Equal(t, "shown\n", out.String())
}

func TestRealmContextStackBalanced(t *testing.T) {
	s, _ := newTestSession(t)
	s.RunString("throw 1")
	s.RunString("Promise.resolve().then(() => { throw 2; })")
	assert.Equal(t, 0, s.Agent().ContextDepth())
}

func sourceOf(code string) *source.SourceFile {
	return source.NewEvalSource(code)
}
