package builtins

import (
	"github.com/nooga/specjs/pkg/engine"
)

type ArrayBufferInitializer struct{}

func (ai *ArrayBufferInitializer) Name() string  { return "ArrayBuffer" }
func (ai *ArrayBufferInitializer) Priority() int { return PriorityBuffer }

func (ai *ArrayBufferInitializer) InitRealm(a *Agent, r *engine.Realm) error {
	b := a.NewIntrinsicBuilder(r)
	proto := b.Object()
	ctor := b.Constructor("ArrayBuffer", 1, arrayBufferConstructor, proto, nil)
	b.Method(ctor, "isView", 1, func(_ *Agent, _ Value, args []Value, _ *Object) (Value, *Completion) {
		o := arg(args, 0).AsObject()
		return engine.Bool(o != nil && o.Kind() == engine.KindTypedArray), nil
	})
	defineSpecies(b, ctor)

	b.Getter(proto, engine.StringKey("byteLength"), func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		s, ab := slotsOf[*engine.ArrayBufferSlots](a, this, "ArrayBuffer.prototype.byteLength")
		if ab != nil {
			return undefined, ab
		}
		return engine.Int(int64(len(s.Data))), nil
	})
	b.Getter(proto, engine.StringKey("detached"), func(a *Agent, this Value, _ []Value, _ *Object) (Value, *Completion) {
		s, ab := slotsOf[*engine.ArrayBufferSlots](a, this, "ArrayBuffer.prototype.detached")
		if ab != nil {
			return undefined, ab
		}
		return engine.Bool(s.Detached), nil
	})
	b.Method(proto, "slice", 2, arrayBufferSlice)
	b.ToStringTag(proto, "ArrayBuffer")
	return nil
}

func arrayBufferConstructor(a *Agent, _ Value, args []Value, newTarget *Object) (Value, *Completion) {
	if newTarget == nil {
		return undefined, a.Throw(engine.TypeError, engine.MsgConstructorRequired, "ArrayBuffer")
	}
	byteLength, ab := engine.ToIndex(a, arg(args, 0))
	if ab != nil {
		return undefined, ab
	}
	buf, ab := engine.AllocateArrayBuffer(a, newTarget, byteLength)
	if ab != nil {
		return undefined, ab
	}
	return engine.ObjectValue(buf), nil
}

// arrayBufferSlice implements ArrayBuffer.prototype.slice, including the
// species constructor checks on the new buffer.
func arrayBufferSlice(a *Agent, this Value, args []Value, _ *Object) (Value, *Completion) {
	const method = "ArrayBuffer.prototype.slice"
	s, ab := slotsOf[*engine.ArrayBufferSlots](a, this, method)
	if ab != nil {
		return undefined, ab
	}
	if s.Detached {
		return undefined, a.Throw(engine.TypeError, engine.MsgDetachedBuffer, method)
	}
	length := int64(len(s.Data))
	first, ab := relativeIndex(a, arg(args, 0), length, 0)
	if ab != nil {
		return undefined, ab
	}
	final, ab := relativeIndex(a, arg(args, 1), length, length)
	if ab != nil {
		return undefined, ab
	}
	newLen := max(final-first, 0)
	o := this.AsObject()
	ctor, ab := engine.SpeciesConstructor(a, o, a.CurrentRealm().Intrinsic("%ArrayBuffer%"))
	if ab != nil {
		return undefined, ab
	}
	created, ab := engine.Construct(a, ctor, []Value{engine.Int(newLen)}, nil)
	if ab != nil {
		return undefined, ab
	}
	ns, ab := slotsOf[*engine.ArrayBufferSlots](a, created, method)
	if ab != nil {
		return undefined, ab
	}
	switch {
	case ns.Detached:
		return undefined, a.Throw(engine.TypeError, engine.MsgDetachedBuffer, method)
	case created.AsObject() == o:
		return undefined, a.Throw(engine.TypeError, engine.MsgGeneric, "ArrayBuffer subclass returned this from species constructor")
	case int64(len(ns.Data)) < newLen:
		return undefined, a.Throw(engine.TypeError, engine.MsgGeneric, "Species constructor returned a too small buffer")
	case s.Detached:
		return undefined, a.Throw(engine.TypeError, engine.MsgDetachedBuffer, method)
	}
	copy(ns.Data, s.Data[first:first+newLen])
	return created, nil
}
