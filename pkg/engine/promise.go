package engine

// PromiseState is [[PromiseState]].
type PromiseState uint8

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

func (s PromiseState) String() string {
	switch s {
	case PromiseFulfilled:
		return "fulfilled"
	case PromiseRejected:
		return "rejected"
	}
	return "pending"
}

// PromiseSlots are the internal slots of a promise instance.
type PromiseSlots struct {
	State            PromiseState
	Result           Value
	FulfillReactions []*PromiseReaction
	RejectReactions  []*PromiseReaction
	IsHandled        bool
}

// PromiseCapability is a PromiseCapability Record.
type PromiseCapability struct {
	Promise *Object
	Resolve *Object
	Reject  *Object
}

// rejectWith implements IfAbruptRejectPromise for an abrupt completion.
func (c *PromiseCapability) rejectWith(a *Agent, ab *Completion) (Value, *Completion) {
	if _, inner := Call(a, ObjectValue(c.Reject), Undefined, []Value{ab.Value}); inner != nil {
		return Undefined, inner
	}
	return ObjectValue(c.Promise), nil
}

// PromiseReactionType is [[Type]] of a PromiseReaction.
type PromiseReactionType uint8

const (
	ReactionFulfill PromiseReactionType = iota
	ReactionReject
)

// PromiseReaction is a PromiseReaction Record. A nil Capability is
// undefined; an undefined Handler is empty.
type PromiseReaction struct {
	Capability *PromiseCapability
	Type       PromiseReactionType
	Handler    Value
}

// IsPromise implements IsPromise.
func IsPromise(v Value) bool {
	o := v.AsObject()
	if o == nil {
		return false
	}
	_, ok := o.slots.(*PromiseSlots)
	return ok
}

func promiseSlots(o *Object) *PromiseSlots {
	return o.slots.(*PromiseSlots)
}

// PromiseStateOf reports the state and result of a promise for hosts.
func PromiseStateOf(p *Object) (PromiseState, Value) {
	s := promiseSlots(p)
	return s.State, s.Result
}

// CreateResolvingFunctions implements CreateResolvingFunctions.
func CreateResolvingFunctions(a *Agent, promise *Object) (resolve, reject *Object) {
	realm := a.CurrentRealm()
	alreadyResolved := false
	resolve = anonymousNative(realm, 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		if alreadyResolved {
			return Undefined, nil
		}
		alreadyResolved = true
		resolvePromise(a, promise, argOrUndefined(args, 0))
		return Undefined, nil
	})
	reject = anonymousNative(realm, 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		if alreadyResolved {
			return Undefined, nil
		}
		alreadyResolved = true
		RejectPromise(a, promise, argOrUndefined(args, 0))
		return Undefined, nil
	})
	return resolve, reject
}

// resolvePromise is the body of a promise resolve function.
func resolvePromise(a *Agent, promise *Object, resolution Value) {
	if resolution.AsObject() == promise {
		selfResolution := a.NewError(TypeError, a.Format(MsgPromiseSelfResolution))
		RejectPromise(a, promise, ObjectValue(selfResolution))
		return
	}
	thenable := resolution.AsObject()
	if thenable == nil {
		FulfillPromise(a, promise, resolution)
		return
	}
	then, ab := Get(a, thenable, StringKey("then"))
	if ab != nil {
		RejectPromise(a, promise, ab.Value)
		return
	}
	if !IsCallable(then) {
		FulfillPromise(a, promise, resolution)
		return
	}
	realm := a.CurrentRealm()
	if r, ab := GetFunctionRealm(a, then.AsObject()); ab == nil {
		realm = r
	}
	a.HostEnqueuePromiseJob("PromiseResolveThenableJob", realm, []any{promise, thenable, then}, func() *Completion {
		resolve, reject := CreateResolvingFunctions(a, promise)
		_, ab := Call(a, then, resolution, []Value{ObjectValue(resolve), ObjectValue(reject)})
		if ab != nil {
			_, inner := Call(a, ObjectValue(reject), Undefined, []Value{ab.Value})
			return inner
		}
		return nil
	})
}

// FulfillPromise implements FulfillPromise.
func FulfillPromise(a *Agent, promise *Object, v Value) {
	s := promiseSlots(promise)
	Assert(s.State == PromisePending, "fulfilling a settled promise")
	reactions := s.FulfillReactions
	s.Result = v
	s.FulfillReactions, s.RejectReactions = nil, nil
	s.State = PromiseFulfilled
	a.triggerPromiseReactions(reactions, v)
}

// RejectPromise implements RejectPromise.
func RejectPromise(a *Agent, promise *Object, reason Value) {
	s := promiseSlots(promise)
	Assert(s.State == PromisePending, "rejecting a settled promise")
	reactions := s.RejectReactions
	s.Result = reason
	s.FulfillReactions, s.RejectReactions = nil, nil
	s.State = PromiseRejected
	if !s.IsHandled {
		a.HostPromiseRejectionTracker(promise, "reject")
	}
	a.triggerPromiseReactions(reactions, reason)
}

func (a *Agent) triggerPromiseReactions(reactions []*PromiseReaction, argument Value) {
	for _, r := range reactions {
		a.enqueuePromiseReactionJob(r, argument)
	}
}

// enqueuePromiseReactionJob implements NewPromiseReactionJob followed by
// HostEnqueuePromiseJob.
func (a *Agent) enqueuePromiseReactionJob(reaction *PromiseReaction, argument Value) {
	var realm *Realm
	if h := reaction.Handler.AsObject(); h != nil {
		if r, ab := GetFunctionRealm(a, h); ab == nil {
			realm = r
		} else {
			realm = a.CurrentRealm()
		}
	}
	roots := []any{reaction.Handler, argument}
	if reaction.Capability != nil {
		roots = append(roots, reaction.Capability.Promise)
	}
	a.HostEnqueuePromiseJob("PromiseReactionJob", realm, roots, func() *Completion {
		var v Value
		var ab *Completion
		switch {
		case !reaction.Handler.IsUndefined():
			v, ab = Call(a, reaction.Handler, Undefined, []Value{argument})
		case reaction.Type == ReactionFulfill:
			v = argument
		default:
			ab = ThrowCompletion(argument)
		}
		capability := reaction.Capability
		if capability == nil {
			Assert(ab == nil, "reaction without capability completed abruptly: %s", ab)
			return nil
		}
		if ab != nil {
			_, inner := Call(a, ObjectValue(capability.Reject), Undefined, []Value{ab.Value})
			return inner
		}
		_, inner := Call(a, ObjectValue(capability.Resolve), Undefined, []Value{v})
		return inner
	})
}

// NewPromiseCapability implements NewPromiseCapability.
func NewPromiseCapability(a *Agent, c Value) (*PromiseCapability, *Completion) {
	if !IsConstructor(c) {
		return nil, a.Throw(TypeError, MsgNotConstructor, describeCallee(c))
	}
	var resolve, reject Value = Undefined, Undefined
	executor := anonymousNative(a.CurrentRealm(), 2, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		if !resolve.IsUndefined() || !reject.IsUndefined() {
			return Undefined, a.Throw(TypeError, MsgPromiseCapability)
		}
		resolve = argOrUndefined(args, 0)
		reject = argOrUndefined(args, 1)
		return Undefined, nil
	})
	promise, ab := Construct(a, c.AsObject(), []Value{ObjectValue(executor)}, nil)
	if ab != nil {
		return nil, ab
	}
	if !IsCallable(resolve) {
		return nil, a.Throw(TypeError, MsgPromiseExecutor, resolve.String())
	}
	if !IsCallable(reject) {
		return nil, a.Throw(TypeError, MsgPromiseExecutor, reject.String())
	}
	return &PromiseCapability{Promise: promise.AsObject(), Resolve: resolve.AsObject(), Reject: reject.AsObject()}, nil
}

// newPromise allocates a pending promise with the given prototype.
func newPromise(proto *Object) *Object {
	return newObjectWithSlots(KindPromise, proto, &PromiseSlots{State: PromisePending, Result: Undefined})
}

// PromiseResolve implements PromiseResolve.
func PromiseResolve(a *Agent, c *Object, x Value) (*Object, *Completion) {
	if IsPromise(x) {
		xConstructor, ab := Get(a, x.AsObject(), StringKey("constructor"))
		if ab != nil {
			return nil, ab
		}
		if xConstructor.AsObject() == c {
			return x.AsObject(), nil
		}
	}
	capability, ab := NewPromiseCapability(a, ObjectValue(c))
	if ab != nil {
		return nil, ab
	}
	if _, ab := Call(a, ObjectValue(capability.Resolve), Undefined, []Value{x}); ab != nil {
		return nil, ab
	}
	return capability.Promise, nil
}

// PerformPromiseThen implements PerformPromiseThen. A nil resultCapability
// returns undefined.
func PerformPromiseThen(a *Agent, promise *Object, onFulfilled, onRejected Value, resultCapability *PromiseCapability) Value {
	if !IsCallable(onFulfilled) {
		onFulfilled = Undefined
	}
	if !IsCallable(onRejected) {
		onRejected = Undefined
	}
	fulfillReaction := &PromiseReaction{Capability: resultCapability, Type: ReactionFulfill, Handler: onFulfilled}
	rejectReaction := &PromiseReaction{Capability: resultCapability, Type: ReactionReject, Handler: onRejected}
	s := promiseSlots(promise)
	switch s.State {
	case PromisePending:
		s.FulfillReactions = append(s.FulfillReactions, fulfillReaction)
		s.RejectReactions = append(s.RejectReactions, rejectReaction)
	case PromiseFulfilled:
		a.enqueuePromiseReactionJob(fulfillReaction, s.Result)
	case PromiseRejected:
		if !s.IsHandled {
			a.HostPromiseRejectionTracker(promise, "handle")
		}
		a.enqueuePromiseReactionJob(rejectReaction, s.Result)
	}
	s.IsHandled = true
	if resultCapability == nil {
		return Undefined
	}
	return ObjectValue(resultCapability.Promise)
}

// HostPromiseRejectionTracker records unhandled rejections and forwards the
// event to the host hook.
func (a *Agent) HostPromiseRejectionTracker(promise *Object, operation string) {
	switch operation {
	case "reject":
		a.rejections = append(a.rejections, promise)
	case "handle":
		for i, p := range a.rejections {
			if p == promise {
				a.rejections = append(a.rejections[:i], a.rejections[i+1:]...)
				break
			}
		}
	}
	if a.Hooks.PromiseRejectionTracker != nil {
		a.Hooks.PromiseRejectionTracker(promise, operation)
	}
}

// reportUnhandledRejections reports promises still rejected without a
// handler once the job queue has drained.
func (a *Agent) reportUnhandledRejections() {
	pending := a.rejections
	a.rejections = nil
	for _, p := range pending {
		s := promiseSlots(p)
		if s.IsHandled {
			continue
		}
		_, msg := DescribeThrown(s.Result)
		jobsLog.Warningf("unhandled promise rejection: %s", msg)
		if a.Hooks.ReportError != nil {
			err := a.RuntimeErrorFrom(ThrowCompletion(s.Result))
			err.Unhandled = true
			a.Hooks.ReportError(err)
		}
	}
}

// --- %Promise% and %Promise.prototype%.then ---

func promiseConstructor(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
	if newTarget == nil {
		return Undefined, a.Throw(TypeError, MsgConstructorRequired, "Promise")
	}
	executor := argOrUndefined(args, 0)
	if !IsCallable(executor) {
		return Undefined, a.Throw(TypeError, MsgPromiseExecutor, executor.String())
	}
	proto, ab := GetPrototypeFromConstructor(a, newTarget, "%Promise.prototype%")
	if ab != nil {
		return Undefined, ab
	}
	promise := newPromise(proto)
	resolve, reject := CreateResolvingFunctions(a, promise)
	if _, ab := Call(a, executor, Undefined, []Value{ObjectValue(resolve), ObjectValue(reject)}); ab != nil {
		if _, inner := Call(a, ObjectValue(reject), Undefined, []Value{ab.Value}); inner != nil {
			return Undefined, inner
		}
	}
	return ObjectValue(promise), nil
}

func promiseThen(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	if !IsPromise(this) {
		return Undefined, a.Throw(TypeError, MsgIncompatibleReceiver, "Promise.prototype.then", this.String())
	}
	promise := this.AsObject()
	c, ab := SpeciesConstructor(a, promise, a.CurrentRealm().Intrinsic("%Promise%"))
	if ab != nil {
		return Undefined, ab
	}
	capability, ab := NewPromiseCapability(a, ObjectValue(c))
	if ab != nil {
		return Undefined, ab
	}
	return PerformPromiseThen(a, promise, argOrUndefined(args, 0), argOrUndefined(args, 1), capability), nil
}

// PromiseThenNative attaches Go callbacks to a promise without allocating a
// derived promise. Hosts use it to observe settlement.
func PromiseThenNative(a *Agent, promise *Object, onFulfilled, onRejected func(v Value)) {
	realm := a.CurrentRealm()
	wrap := func(f func(Value)) Value {
		if f == nil {
			return Undefined
		}
		return ObjectValue(anonymousNative(realm, 1, func(_ *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
			f(argOrUndefined(args, 0))
			return Undefined, nil
		}))
	}
	PerformPromiseThen(a, promise, wrap(onFulfilled), wrap(onRejected), nil)
}
