package builtins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nooga/specjs/pkg/engine"
	"github.com/nooga/specjs/pkg/source"
)

func newTestRealm(t *testing.T) (*engine.Agent, *engine.Realm) {
	t.Helper()
	a := engine.NewAgent(engine.AgentOptions{Initializers: Standard()})
	r, err := a.NewRealm()
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, r
}

// evalString runs code in a fresh realm and returns its string completion
// value.
func evalString(t *testing.T, code string) string {
	t.Helper()
	a, r := newTestRealm(t)
	v, ab := a.EvaluateScript(r, source.NewEvalSource(code))
	if ab != nil {
		t.Fatalf("script threw %s\n%s", a.RuntimeErrorFrom(ab).Msg, code)
	}
	require.NoError(t, a.RunJobs(context.Background(), 0))
	require.True(t, v.IsString(), "completion value %s is not a string", v)
	return v.AsString()
}

// thrownName runs code expecting it to throw and returns the error name.
func thrownName(t *testing.T, code string) string {
	t.Helper()
	a, r := newTestRealm(t)
	_, ab := a.EvaluateScript(r, source.NewEvalSource(code))
	require.NotNil(t, ab, "expected %q to throw", code)
	name, _ := engine.DescribeThrown(ab.Value)
	return name
}

type scriptCase struct {
	name string
	code string
	want string
}

func runScriptCases(t *testing.T, cases []scriptCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(tc.want, evalString(t, tc.code))
		})
	}
}
