package engine

// coroutine runs a suspendable body (generator, async function or async
// generator) on its own goroutine. Control is handed back and forth over
// unbuffered channels, so the driver and the body never run at the same
// time and the agent stays single threaded.
//
// The driver pushes the body's execution context before Resume and pops it
// afterwards; the body suspends with Yield.
type coroutine struct {
	a    *Agent
	ctx  *ExecutionContext
	body func(first Completion) Completion

	resumeCh chan Completion
	yieldCh  chan coSignal
	started  bool
	done     bool
}

// coSignal is what the body hands back to the driver: a suspension value,
// its final completion, or a panic to re-raise.
type coSignal struct {
	c        Completion
	done     bool
	panicked any
}

// coroutineAbort unwinds the goroutine of a coroutine whose agent closed.
type coroutineAbort struct{}

func (a *Agent) newCoroutine(ctx *ExecutionContext, body func(first Completion) Completion) *coroutine {
	co := &coroutine{
		a:        a,
		ctx:      ctx,
		body:     body,
		resumeCh: make(chan Completion),
		yieldCh:  make(chan coSignal),
	}
	a.coroutines[co] = struct{}{}
	return co
}

// Resume runs the body until it suspends or finishes. It reports the
// value passed to Yield, or the body's completion with done set.
func (co *coroutine) Resume(in Completion) (Completion, bool) {
	Assert(!co.done, "resuming a finished coroutine")
	if !co.started {
		co.started = true
		if debugEnabled(agentLog) {
			agentLog.Debugf("coroutine start (live %d)", len(co.a.coroutines))
		}
		go co.run(in)
	} else {
		co.resumeCh <- in
	}
	sig := <-co.yieldCh
	if sig.panicked != nil {
		co.finish()
		panic(sig.panicked)
	}
	if sig.done {
		co.finish()
	}
	return sig.c, sig.done
}

func (co *coroutine) run(first Completion) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(coroutineAbort); ok {
				return
			}
			co.yieldCh <- coSignal{panicked: r}
		}
	}()
	c := co.body(first)
	co.yieldCh <- coSignal{c: c, done: true}
}

// Yield suspends the body, handing c to the driver, and returns the
// completion the body is resumed with.
func (co *coroutine) Yield(c Completion) Completion {
	co.yieldCh <- coSignal{c: c}
	in, ok := <-co.resumeCh
	if !ok {
		panic(coroutineAbort{})
	}
	return in
}

// discard forgets a coroutine that will never run, such as a generator
// closed before its first resumption.
func (co *coroutine) discard() {
	Assert(!co.started, "discarding a started coroutine")
	co.finish()
}

func (co *coroutine) finish() {
	co.done = true
	if co.a.coroutines != nil {
		delete(co.a.coroutines, co)
	}
	if debugEnabled(agentLog) {
		agentLog.Debugf("coroutine finished (live %d)", len(co.a.coroutines))
	}
}

// abort makes a suspended body unwind and its goroutine exit.
func (co *coroutine) abort() {
	if co.started && !co.done {
		co.done = true
		close(co.resumeCh)
	}
}
