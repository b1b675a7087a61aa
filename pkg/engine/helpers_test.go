package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nooga/specjs/pkg/builtins"
	"github.com/nooga/specjs/pkg/engine"
	"github.com/nooga/specjs/pkg/source"
)

type testHost struct {
	agent    *engine.Agent
	realm    *engine.Realm
	reported []error
}

func newHost(t *testing.T) *testHost {
	t.Helper()
	h := &testHost{}
	h.agent = engine.NewAgent(engine.AgentOptions{
		Hooks: engine.HostHooks{
			ReportError: func(err error) { h.reported = append(h.reported, err) },
			RandomSeed:  func() int64 { return 1 },
		},
		Initializers: builtins.Standard(),
	})
	realm, err := h.agent.NewRealm()
	require.NoError(t, err)
	h.realm = realm
	t.Cleanup(h.agent.Close)
	return h
}

// eval runs code as a script, drains jobs and fails the test on an abrupt
// completion.
func (h *testHost) eval(t *testing.T, code string) engine.Value {
	t.Helper()
	v, ab := h.agent.EvaluateScript(h.realm, source.NewEvalSource(code))
	if ab != nil {
		t.Fatalf("script threw %s\n%s", h.agent.RuntimeErrorFrom(ab).Msg, code)
	}
	require.NoError(t, h.agent.RunJobs(context.Background(), 0))
	require.Zero(t, h.agent.ContextDepth(), "context stack not balanced")
	return v
}

// evalString is eval for scripts whose completion value is a string.
func (h *testHost) evalString(t *testing.T, code string) string {
	t.Helper()
	v := h.eval(t, code)
	require.True(t, v.IsString(), "completion value %s is not a string", v)
	return v.AsString()
}

// throws runs code expecting an uncaught exception and returns the name of
// the thrown error.
func (h *testHost) throws(t *testing.T, code string) string {
	t.Helper()
	_, ab := h.agent.EvaluateScript(h.realm, source.NewEvalSource(code))
	require.NotNil(t, ab, "expected %q to throw", code)
	require.True(t, ab.IsThrow())
	require.Zero(t, h.agent.ContextDepth(), "context stack not balanced")
	name, _ := engine.DescribeThrown(ab.Value)
	return name
}
