package engine

// AsyncFunctionStart implements AsyncFunctionStart: the body runs on a copy
// of the running context until its first await.
func (a *Agent) AsyncFunctionStart(capability *PromiseCapability, body func(a *Agent) Completion) {
	asyncCtx := *a.RunningContext()
	a.AsyncBlockStart(capability, body, &asyncCtx)
}

// AsyncBlockStart implements AsyncBlockStart.
func (a *Agent) AsyncBlockStart(capability *PromiseCapability, body func(a *Agent) Completion, asyncCtx *ExecutionContext) {
	co := a.newCoroutine(asyncCtx, func(Completion) Completion {
		result := body(a)
		var ab *Completion
		switch result.Type {
		case CompletionNormal:
			_, ab = Call(a, ObjectValue(capability.Resolve), Undefined, []Value{Undefined})
		case CompletionReturn:
			_, ab = Call(a, ObjectValue(capability.Resolve), Undefined, []Value{result.Value})
		default:
			Assert(result.Type == CompletionThrow, "async body completed with %s", result.Type)
			_, ab = Call(a, ObjectValue(capability.Reject), Undefined, []Value{result.Value})
		}
		MustOK(ab)
		return NormalCompletion(Undefined)
	})
	asyncCtx.co = co
	a.PushContext(asyncCtx)
	co.Resume(NormalCompletion(Undefined))
	a.PopContext(asyncCtx)
}

// Await implements Await. It suspends the running async body until the
// awaited promise settles.
func (a *Agent) Await(v Value) (Value, *Completion) {
	asyncCtx := a.RunningContext()
	co := asyncCtx.co
	Assert(co != nil, "await outside of an async body")
	realm := asyncCtx.Realm
	promise, ab := PromiseResolve(a, realm.Intrinsic("%Promise%"), v)
	if ab != nil {
		return Undefined, ab
	}
	resume := func(c Completion) {
		a.PushContext(asyncCtx)
		co.Resume(c)
		a.PopContext(asyncCtx)
	}
	onFulfilled := anonymousNative(realm, 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		resume(NormalCompletion(argOrUndefined(args, 0)))
		return Undefined, nil
	})
	onRejected := anonymousNative(realm, 1, func(a *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		resume(*ThrowCompletion(argOrUndefined(args, 0)))
		return Undefined, nil
	})
	PerformPromiseThen(a, promise, ObjectValue(onFulfilled), ObjectValue(onRejected), nil)
	in := co.Yield(NormalCompletion(Undefined))
	if in.Type == CompletionThrow {
		return Undefined, &in
	}
	return in.Value, nil
}
