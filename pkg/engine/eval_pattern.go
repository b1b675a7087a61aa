package engine

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

// BindingInitialization binds v to a target that is an identifier or a
// destructuring pattern. With a non-nil env the bindings in env are
// initialized; a nil env means assignment through PutValue, which covers
// var declarations, sloppy duplicate parameters and destructuring
// assignment, where member expressions are valid targets too.
func (a *Agent) BindingInitialization(target ast.Expression, v Value, env Environment) *Completion {
	switch t := target.(type) {
	case *ast.ObjectPattern:
		if v.IsNullish() {
			return a.Throw(TypeError, MsgCannotConvertToObject, v.String())
		}
		return a.objectBindingInitialization(t, v, env)
	case *ast.ArrayPattern:
		rec, ab := GetIterator(a, v, false)
		if ab != nil {
			return ab
		}
		ab = a.iteratorBindingInitialization(t, rec, env)
		if !rec.Done {
			return IteratorClose(a, rec, ab)
		}
		return ab
	}
	ref, ab := a.bindingReference(target, env)
	if ab != nil {
		return ab
	}
	return a.initializeReference(ref, v, env)
}

func isPattern(e ast.Expression) bool {
	switch e.(type) {
	case *ast.ArrayPattern, *ast.ObjectPattern:
		return true
	}
	return false
}

// splitDefault separates `target = initializer` pattern elements.
func splitDefault(e ast.Expression) (ast.Expression, ast.Expression) {
	if as, ok := e.(*ast.AssignExpression); ok && as.Operator == token.ASSIGN {
		return as.Left, as.Right
	}
	return e, nil
}

func (a *Agent) bindingReference(target ast.Expression, env Environment) (*Reference, *Completion) {
	if id, ok := target.(*ast.Identifier); ok {
		return a.ResolveBinding(id.Name.String(), env)
	}
	Assert(env == nil, "binding pattern element %s", nodeName(target))
	return a.evalReference(target)
}

func (a *Agent) initializeReference(ref *Reference, v Value, env Environment) *Completion {
	if env == nil {
		return a.PutValue(ref, v)
	}
	return a.InitializeReferencedBinding(ref, v)
}

// applyDefault evaluates init when v is undefined. Anonymous functions are
// named after an identifier target.
func (a *Agent) applyDefault(target, init ast.Expression, v Value) (Value, *Completion) {
	if init == nil || !v.IsUndefined() {
		return v, nil
	}
	if id, ok := target.(*ast.Identifier); ok && isAnonymousFunctionDefinition(init) {
		return a.namedEvaluation(init, StringKey(id.Name.String()))
	}
	return a.evalExpressionValue(init)
}

func (a *Agent) objectBindingInitialization(p *ast.ObjectPattern, v Value, env Environment) *Completion {
	excluded := make([]PropertyKey, 0, len(p.Properties))
	for _, prop := range p.Properties {
		switch prop := prop.(type) {
		case *ast.PropertyShort:
			key := StringKey(prop.Name.Name.String())
			ref, ab := a.bindingReference(&prop.Name, env)
			if ab != nil {
				return ab
			}
			val, ab := GetV(a, v, key)
			if ab != nil {
				return ab
			}
			if val, ab = a.applyDefault(&prop.Name, prop.Initializer, val); ab != nil {
				return ab
			}
			if ab := a.initializeReference(ref, val, env); ab != nil {
				return ab
			}
			excluded = append(excluded, key)
		case *ast.PropertyKeyed:
			key, ab := a.evalPropertyKey(prop.Key, prop.Computed)
			if ab != nil {
				return ab
			}
			if ab := a.keyedBindingInitialization(prop.Value, v, key, env); ab != nil {
				return ab
			}
			excluded = append(excluded, key)
		default:
			return a.Throw(SyntaxError, MsgUnsupportedSyntax, nodeName(prop))
		}
	}
	if p.Rest == nil {
		return nil
	}
	ref, ab := a.bindingReference(p.Rest, env)
	if ab != nil {
		return ab
	}
	rest := OrdinaryObjectCreate(a.CurrentRealm().Intrinsic("%Object.prototype%"))
	if ab := CopyDataProperties(a, rest, v, excluded); ab != nil {
		return ab
	}
	return a.initializeReference(ref, ObjectValue(rest), env)
}

// keyedBindingInitialization implements KeyedBindingInitialization and the
// keyed case of KeyedDestructuringAssignmentEvaluation.
func (a *Agent) keyedBindingInitialization(elem ast.Expression, v Value, key PropertyKey, env Environment) *Completion {
	target, init := splitDefault(elem)
	if isPattern(target) {
		val, ab := GetV(a, v, key)
		if ab != nil {
			return ab
		}
		if val, ab = a.applyDefault(target, init, val); ab != nil {
			return ab
		}
		return a.BindingInitialization(target, val, env)
	}
	ref, ab := a.bindingReference(target, env)
	if ab != nil {
		return ab
	}
	val, ab := GetV(a, v, key)
	if ab != nil {
		return ab
	}
	if val, ab = a.applyDefault(target, init, val); ab != nil {
		return ab
	}
	return a.initializeReference(ref, val, env)
}

// iteratorBindingInitialization implements IteratorBindingInitialization and
// IteratorDestructuringAssignmentEvaluation. The caller closes the iterator
// when it is not done.
func (a *Agent) iteratorBindingInitialization(p *ast.ArrayPattern, rec *IteratorRecord, env Environment) *Completion {
	for _, el := range p.Elements {
		if el == nil {
			if !rec.Done {
				if _, _, ab := IteratorStepValue(a, rec); ab != nil {
					return ab
				}
			}
			continue
		}
		target, init := splitDefault(el)
		var ref *Reference
		if !isPattern(target) {
			var ab *Completion
			if ref, ab = a.bindingReference(target, env); ab != nil {
				return ab
			}
		}
		val := Undefined
		if !rec.Done {
			next, done, ab := IteratorStepValue(a, rec)
			if ab != nil {
				return ab
			}
			if !done {
				val = next
			}
		}
		val, ab := a.applyDefault(target, init, val)
		if ab != nil {
			return ab
		}
		if ref == nil {
			ab = a.BindingInitialization(target, val, env)
		} else {
			ab = a.initializeReference(ref, val, env)
		}
		if ab != nil {
			return ab
		}
	}
	if p.Rest == nil {
		return nil
	}
	var ref *Reference
	if !isPattern(p.Rest) {
		var ab *Completion
		if ref, ab = a.bindingReference(p.Rest, env); ab != nil {
			return ab
		}
	}
	var items []Value
	for !rec.Done {
		next, done, ab := IteratorStepValue(a, rec)
		if ab != nil {
			return ab
		}
		if !done {
			items = append(items, next)
		}
	}
	arr := ObjectValue(CreateArrayFromList(a, items))
	if ref == nil {
		return a.BindingInitialization(p.Rest, arr, env)
	}
	return a.initializeReference(ref, arr, env)
}
