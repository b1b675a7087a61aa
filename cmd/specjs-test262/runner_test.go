package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nooga/specjs/pkg/config"
)

var fakeHarness = map[string]string{
	"sta.js": `
function Test262Error(message) { this.message = message || ""; }
Test262Error.prototype.name = "Test262Error";
Test262Error.thrower = function (message) { throw new Test262Error(message); };
`,
	"assert.js": `
function assert(value, message) {
  if (value !== true) throw new Test262Error(message);
}
assert.sameValue = function (actual, expected, message) {
  if (actual !== expected && !(actual !== actual && expected !== expected)) {
    throw new Test262Error((message || "") + " expected " + expected + " got " + actual);
  }
};
`,
	"doneprintHandle.js": `
function $DONE(error) {
  if (error) { print("Test262:AsyncTestFailure:" + error); } else { print("Test262:AsyncTestComplete"); }
}
`,
}

func newTestRunner(t *testing.T) *runner {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "harness"), 0o755))
	for name, body := range fakeHarness {
		require.NoError(t, os.WriteFile(filepath.Join(root, "harness", name), []byte(body), 0o644))
	}
	cfg := config.Default()
	cfg.Test262.Root = root
	cfg.Test262.Timeout = 5 * time.Second
	cfg.Test262.SkipFeatures = []string{"Temporal"}
	return newRunner(cfg, root)
}

func runCase(t *testing.T, r *runner, content string) TestResult {
	t.Helper()
	meta, err := parseMetadata(content)
	require.NoError(t, err)
	require.NoError(t, r.loadHarness([]*testMetadata{meta}))
	return r.runFile(context.Background(), "case.js", content, meta)
}

func TestRunnerOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    outcome
	}{
		{"pass", `assert.sameValue(1 + 1, 2);`, outcomePass},
		{"fail", `assert.sameValue(1 + 1, 3, "math");`, outcomeFail},
		{"strict only fails in strict mode", `undeclared = 1; assert.sameValue(undeclared, 1);`, outcomeFail},
		{"noStrict", "/*---\nflags: [noStrict]\n---*/\nundeclared = 1; assert.sameValue(undeclared, 1);", outcomePass},
		{"negative parse", "/*---\nnegative:\n  phase: parse\n  type: SyntaxError\n---*/\nvar = ;", outcomePass},
		{"negative runtime", "/*---\nnegative:\n  phase: runtime\n  type: TypeError\n---*/\nnull.x;", outcomePass},
		{"negative runtime wrong type", "/*---\nnegative:\n  phase: runtime\n  type: RangeError\n---*/\nnull.x;", outcomeFail},
		{"negative that completes", "/*---\nnegative:\n  phase: runtime\n  type: TypeError\n---*/\n1;", outcomeFail},
		{"module skipped", "/*---\nflags: [module]\n---*/\nexport {};", outcomeSkip},
		{"feature skipped", "/*---\nfeatures: [Temporal]\n---*/\nTemporal.Now;", outcomeSkip},
		{"async done", "/*---\nflags: [async]\n---*/\nPromise.resolve(3).then(v => assert.sameValue(v, 3)).then($DONE, $DONE);", outcomePass},
		{"async failure", "/*---\nflags: [async]\n---*/\nPromise.reject(new Test262Error('nope')).then($DONE, $DONE);", outcomeFail},
		{"async never done", "/*---\nflags: [async]\n---*/\nPromise.resolve();", outcomeFail},
	}
	r := newTestRunner(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runCase(t, r, tc.content)
			assert.Equal(t, tc.want, res.Outcome, res.Reason)
		})
	}
}

func TestHost262(t *testing.T) {
	r := newTestRunner(t)
	res := runCase(t, r, `
var other = $262.createRealm();
assert(other.global.Object !== Object, "realms have distinct intrinsics");
assert.sameValue(other.evalScript("var fromOther = 7; fromOther"), 7);
assert.sameValue(other.global.fromOther, 7);
assert.sameValue(typeof fromOther, "undefined");
var threw = false;
try { $262.evalScript("var = ;"); } catch (e) { threw = e.constructor === SyntaxError; }
assert(threw, "evalScript throws SyntaxError");
assert.sameValue($262.global, this);
var buf = new ArrayBuffer(8);
$262.detachArrayBuffer(buf);
assert.sameValue(buf.byteLength, 0);
$262.gc();
`)
	assert.Equal(t, outcomePass, res.Outcome, res.Reason)
}

func TestRunnerTimeout(t *testing.T) {
	r := newTestRunner(t)
	r.cfg.Test262.Timeout = 50 * time.Millisecond
	res := runCase(t, r, "/*---\nflags: [raw]\n---*/\nwhile (true) {}")
	assert.Equal(t, outcomeTimeout, res.Outcome)
}

func TestExclude(t *testing.T) {
	r := newTestRunner(t)
	r.cfg.Test262.Exclude = []string{"case"}
	res := runCase(t, r, "1;")
	assert.Equal(t, outcomeSkip, res.Outcome)
}

func TestRunTestsKeepsOrder(t *testing.T) {
	r := newTestRunner(t)
	dir := filepath.Join(r.root, "test", "language")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	bodies := map[string]string{
		"a.js":         "assert(true);",
		"b.js":         "assert(false);",
		"c_FIXTURE.js": "export default 1;",
		"notes.txt":    "not a test",
	}
	for name, body := range bodies {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	files, err := findTestFiles(filepath.Join(r.root, "test"), "*.js")
	require.NoError(t, err)
	require.Len(t, files, 2)

	r.cfg.Test262.Workers = 2
	results, err := runTests(context.Background(), r.cfg, files, false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, outcomePass, results[0].Outcome)
	assert.Equal(t, outcomeFail, results[1].Outcome)

	stats := summarize(results)
	assert.Equal(t, TestStats{Total: 2, Passed: 1, Failed: 1}, stats)
	assert.Equal(t, "language", suiteKey(filepath.Join(r.root, "test"), files[0]))
}
