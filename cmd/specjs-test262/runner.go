package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"github.com/nooga/specjs/pkg/config"
	"github.com/nooga/specjs/pkg/driver"
	"github.com/nooga/specjs/pkg/engine"
	"github.com/nooga/specjs/pkg/errors"
	"github.com/nooga/specjs/pkg/source"
)

var log = commonlog.GetLogger("specjs.test262")

type outcome int

const (
	outcomePass outcome = iota
	outcomeFail
	outcomeSkip
	outcomeTimeout
)

func (o outcome) String() string {
	switch o {
	case outcomePass:
		return "PASS"
	case outcomeFail:
		return "FAIL"
	case outcomeSkip:
		return "SKIP"
	}
	return "TIMEOUT"
}

// TestResult is the result of one test file across its modes.
type TestResult struct {
	Path     string
	Outcome  outcome
	Reason   string
	Duration time.Duration
}

// runner executes test files against fresh sessions.
type runner struct {
	cfg     *config.Config
	root    string
	harness map[string]string
}

func newRunner(cfg *config.Config, root string) *runner {
	return &runner{cfg: cfg, root: root, harness: make(map[string]string)}
}

// loadHarness reads every harness file the tests will include so workers
// only read from the map.
func (r *runner) loadHarness(metas []*testMetadata) error {
	for _, meta := range metas {
		for _, inc := range meta.harnessIncludes() {
			if _, ok := r.harness[inc]; ok {
				continue
			}
			data, err := os.ReadFile(filepath.Join(r.root, "harness", inc))
			if err != nil {
				return fmt.Errorf("reading harness %s: %w", inc, err)
			}
			r.harness[inc] = string(data)
		}
	}
	return nil
}

// skipReason reports why a test does not run, or "" when it does.
func (r *runner) skipReason(path string, meta *testMetadata) string {
	for _, ex := range r.cfg.Test262.Exclude {
		if strings.Contains(path, ex) {
			return "excluded: " + ex
		}
	}
	switch {
	case meta.hasFlag("module"):
		return "module code"
	case meta.hasFlag("CanBlockIsTrue"):
		return "agent cannot block"
	case meta.Negative != nil && meta.Negative.Phase == "resolution":
		return "module resolution"
	}
	for _, f := range meta.Features {
		if slices.Contains(r.cfg.Test262.SkipFeatures, f) || !r.cfg.HasFeature(f) {
			return "feature " + f
		}
	}
	return ""
}

// runFile runs one test in each of its modes.
func (r *runner) runFile(ctx context.Context, path string, content string, meta *testMetadata) TestResult {
	start := time.Now()
	result := TestResult{Path: path, Outcome: outcomePass}
	if reason := r.skipReason(path, meta); reason != "" {
		result.Outcome, result.Reason = outcomeSkip, reason
		return result
	}
	for _, strict := range meta.modes() {
		o, reason := r.runMode(ctx, content, meta, strict)
		if o != outcomePass {
			mode := "sloppy"
			if strict {
				mode = "strict"
			}
			result.Outcome, result.Reason = o, mode+": "+reason
			break
		}
	}
	result.Duration = time.Since(start)
	return result
}

func (r *runner) assemble(content string, meta *testMetadata, strict bool) string {
	var b strings.Builder
	if strict {
		b.WriteString("\"use strict\";\n")
	}
	for _, inc := range meta.harnessIncludes() {
		b.WriteString(r.harness[inc])
		b.WriteString("\n")
	}
	b.WriteString(content)
	return b.String()
}

type modeResult struct {
	outcome outcome
	reason  string
}

// runMode evaluates the assembled test in a fresh session. The engine
// cannot interrupt a running script, so on timeout the session is
// abandoned to its goroutine.
func (r *runner) runMode(ctx context.Context, content string, meta *testMetadata, strict bool) (outcome, string) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Test262.Timeout)
	defer cancel()

	done := make(chan modeResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- modeResult{outcomeFail, fmt.Sprintf("panic: %v", p)}
			}
		}()
		o, reason := r.evaluate(ctx, r.assemble(content, meta, strict), meta)
		done <- modeResult{o, reason}
	}()

	select {
	case res := <-done:
		return res.outcome, res.reason
	case <-ctx.Done():
		return outcomeTimeout, fmt.Sprintf("timed out after %s", r.cfg.Test262.Timeout)
	}
}

func (r *runner) evaluate(ctx context.Context, code string, meta *testMetadata) (outcome, string) {
	var out bytes.Buffer
	session, err := driver.NewSessionWithOptions(r.cfg, driver.SessionOptions{Stdout: &out})
	if err != nil {
		return outcomeFail, err.Error()
	}
	defer session.Close()

	a, realm := session.Agent(), session.Realm()
	hostCtx := &engine.ExecutionContext{Realm: realm}
	a.PushContext(hostCtx)
	ab := install262(a, realm)
	a.PopContext(hostCtx)
	if ab != nil {
		return outcomeFail, a.RuntimeErrorFrom(ab).Msg
	}

	_, errs := session.RunSource(source.NewSourceFile("test.js", "", code), driver.RunOptions{Context: ctx})
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return outcomeTimeout, "job queue did not drain"
	}
	return judge(meta, errs, out.String())
}

// judge decides the outcome from the errors a run produced and its print
// output.
func judge(meta *testMetadata, errs []errors.EngineError, output string) (outcome, string) {
	if neg := meta.Negative; neg != nil {
		if len(errs) == 0 {
			return outcomeFail, fmt.Sprintf("expected %s %s, completed normally", neg.Phase, neg.Type)
		}
		first := errs[0]
		switch e := first.(type) {
		case *errors.SyntaxError:
			if neg.Phase == "parse" && neg.Type == "SyntaxError" {
				return outcomePass, ""
			}
		case *errors.RuntimeError:
			if neg.Phase == "runtime" && e.Name == neg.Type {
				return outcomePass, ""
			}
		}
		return outcomeFail, fmt.Sprintf("expected %s %s, got %s", neg.Phase, neg.Type, first.Error())
	}
	if len(errs) > 0 {
		return outcomeFail, errs[0].Error()
	}
	if meta.hasFlag("async") {
		switch {
		case strings.Contains(output, "Test262:AsyncTestComplete"):
			return outcomePass, ""
		case strings.Contains(output, "Test262:AsyncTestFailure:"):
			_, msg, _ := strings.Cut(output, "Test262:AsyncTestFailure:")
			return outcomeFail, strings.TrimSpace(msg)
		}
		return outcomeFail, "async test never called $DONE"
	}
	return outcomePass, ""
}
