package engine

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// ErrorKind names the native error constructor used by Throw.
type ErrorKind string

const (
	Error          ErrorKind = "Error"
	EvalError      ErrorKind = "EvalError"
	RangeError     ErrorKind = "RangeError"
	ReferenceError ErrorKind = "ReferenceError"
	SyntaxError    ErrorKind = "SyntaxError"
	TypeError      ErrorKind = "TypeError"
	URIError       ErrorKind = "URIError"
)

// NativeErrorKinds lists the NativeError constructors in creation order.
var NativeErrorKinds = []ErrorKind{EvalError, RangeError, ReferenceError, SyntaxError, TypeError, URIError}

// Msg identifies an entry in the message catalog.
type Msg string

const (
	MsgGeneric                Msg = "generic"
	MsgNotCallable            Msg = "notCallable"
	MsgNotConstructor         Msg = "notConstructor"
	MsgNotObject              Msg = "notObject"
	MsgCannotConvertToObject  Msg = "cannotConvertToObject"
	MsgToPrimitiveObject      Msg = "toPrimitiveObject"
	MsgSymbolConversion       Msg = "symbolConversion"
	MsgBigIntConversion       Msg = "bigIntConversion"
	MsgCannotConvertToBigInt  Msg = "cannotConvertToBigInt"
	MsgNumberToBigInt         Msg = "numberToBigInt"
	MsgBigIntMix              Msg = "bigIntMix"
	MsgBigIntDivideByZero     Msg = "bigIntDivideByZero"
	MsgBigIntNegativeExponent Msg = "bigIntNegativeExponent"
	MsgBigIntUnsignedShift    Msg = "bigIntUnsignedShift"
	MsgBigIntTooLarge         Msg = "bigIntTooLarge"
	MsgInvalidIndex           Msg = "invalidIndex"
	MsgNotDefined             Msg = "notDefined"
	MsgUninitialized          Msg = "uninitialized"
	MsgConstAssign            Msg = "constAssign"
	MsgCannotAssignReadOnly   Msg = "cannotAssignReadOnly"
	MsgCannotDefineProperty   Msg = "cannotDefineProperty"
	MsgCannotRedefineProperty Msg = "cannotRedefineProperty"
	MsgCannotDeleteProperty   Msg = "cannotDeleteProperty"
	MsgInvalidPropertyKey     Msg = "invalidPropertyKey"
	MsgDescriptorNotObject    Msg = "descriptorNotObject"
	MsgInvalidDescriptor      Msg = "invalidDescriptor"
	MsgGetterNotCallable      Msg = "getterNotCallable"
	MsgSetterNotCallable      Msg = "setterNotCallable"
	MsgPrototypeNotObject     Msg = "prototypeNotObject"
	MsgInstanceofNotObject    Msg = "instanceofNotObject"
	MsgInstanceofNotCallable  Msg = "instanceofNotCallable"
	MsgInNotObject            Msg = "inNotObject"
	MsgProxyRevoked           Msg = "proxyRevoked"
	MsgProxyInvariant         Msg = "proxyInvariant"
	MsgProxyTargetNotObject   Msg = "proxyTargetNotObject"
	MsgGeneratorRunning       Msg = "generatorRunning"
	MsgIncompatibleReceiver   Msg = "incompatibleReceiver"
	MsgCallStackExceeded      Msg = "callStackExceeded"
	MsgInvalidArrayLength     Msg = "invalidArrayLength"
	MsgClassCallWithoutNew    Msg = "classCallWithoutNew"
	MsgDerivedReturn          Msg = "derivedReturn"
	MsgSuperNotCalled         Msg = "superNotCalled"
	MsgSuperAlreadyCalled     Msg = "superAlreadyCalled"
	MsgSuperNotConstructor    Msg = "superNotConstructor"
	MsgClassExtendsInvalid    Msg = "classExtendsInvalid"
	MsgPrivateNotFound        Msg = "privateNotFound"
	MsgPrivateAlreadyDefined  Msg = "privateAlreadyDefined"
	MsgPrivateMethodWrite     Msg = "privateMethodWrite"
	MsgPrivateNoGetter        Msg = "privateNoGetter"
	MsgPrivateNoSetter        Msg = "privateNoSetter"
	MsgNotIterable            Msg = "notIterable"
	MsgNotAsyncIterable       Msg = "notAsyncIterable"
	MsgIteratorResultNotObj   Msg = "iteratorResultNotObject"
	MsgIteratorNoThrow        Msg = "iteratorNoThrow"
	MsgPromiseSelfResolution  Msg = "promiseSelfResolution"
	MsgPromiseExecutor        Msg = "promiseExecutor"
	MsgPromiseCapability      Msg = "promiseCapability"
	MsgInvalidRegExp          Msg = "invalidRegExp"
	MsgInvalidRegExpFlags     Msg = "invalidRegExpFlags"
	MsgDetachedBuffer         Msg = "detachedBuffer"
	MsgInvalidTypedArrayLen   Msg = "invalidTypedArrayLength"
	MsgTypedArrayOffset       Msg = "typedArrayOffset"
	MsgInvalidStringLength    Msg = "invalidStringLength"
	MsgInvalidCodePoint       Msg = "invalidCodePoint"
	MsgInvalidRadix           Msg = "invalidRadix"
	MsgInvalidPrecision       Msg = "invalidPrecision"
	MsgCyclicStructure        Msg = "cyclicStructure"
	MsgCyclicProto            Msg = "cyclicProto"
	MsgSetPrototypeFailed     Msg = "setPrototypeFailed"
	MsgPreventExtFailed       Msg = "preventExtensionsFailed"
	MsgNotExtensible          Msg = "notExtensible"
	MsgSymbolNew              Msg = "symbolNew"
	MsgWithNotAllowed         Msg = "withNotAllowed"
	MsgModuleNotFound         Msg = "moduleNotFound"
	MsgInvalidTemplate        Msg = "invalidTemplate"
	MsgConstructorRequired    Msg = "constructorRequired"
	MsgParse                  Msg = "parse"
	MsgAggregate              Msg = "aggregate"
	MsgAsyncFromSyncNoThrow   Msg = "asyncFromSyncNoThrow"
	MsgAlreadyDeclared        Msg = "alreadyDeclared"
	MsgCannotDeclareGlobal    Msg = "cannotDeclareGlobal"
	MsgInvalidAssignTarget    Msg = "invalidAssignTarget"
	MsgUnsupportedSyntax      Msg = "unsupportedSyntax"
	MsgRestrictedProperty     Msg = "restrictedProperty"
	MsgAbstractConstructor    Msg = "abstractConstructor"
	MsgNegativeLimit          Msg = "negativeLimit"
	MsgReduceEmpty            Msg = "reduceEmpty"
	MsgInvalidNormalization   Msg = "invalidNormalization"
	MsgInvalidCount           Msg = "invalidCount"
)

var messageTemplates = map[Msg]string{
	MsgGeneric:                "%s",
	MsgNotCallable:            "%s is not a function",
	MsgNotConstructor:         "%s is not a constructor",
	MsgNotObject:              "%s is not an object",
	MsgCannotConvertToObject:  "Cannot convert %s to object",
	MsgToPrimitiveObject:      "Cannot convert object to primitive value",
	MsgSymbolConversion:       "Cannot convert a Symbol value to a %s",
	MsgBigIntConversion:       "Cannot convert a BigInt value to a %s",
	MsgCannotConvertToBigInt:  "Cannot convert %s to a BigInt",
	MsgNumberToBigInt:         "The number %s cannot be converted to a BigInt because it is not an integer",
	MsgBigIntMix:              "Cannot mix BigInt and other types, use explicit conversions",
	MsgBigIntDivideByZero:     "Division by zero",
	MsgBigIntNegativeExponent: "Exponent must be non-negative",
	MsgBigIntUnsignedShift:    "BigInts have no unsigned right shift, use >> instead",
	MsgBigIntTooLarge:         "Maximum BigInt size exceeded",
	MsgInvalidIndex:           "Invalid index",
	MsgNotDefined:             "%s is not defined",
	MsgUninitialized:          "Cannot access '%s' before initialization",
	MsgConstAssign:            "Assignment to constant variable '%s'",
	MsgCannotAssignReadOnly:   "Cannot assign to read only property '%s' of %s",
	MsgCannotDefineProperty:   "Cannot define property %s",
	MsgCannotRedefineProperty: "Cannot redefine property: %s",
	MsgCannotDeleteProperty:   "Cannot delete property '%s' of %s",
	MsgInvalidPropertyKey:     "%s is not a valid property name",
	MsgDescriptorNotObject:    "Property description must be an object: %s",
	MsgInvalidDescriptor:      "Invalid property descriptor. Cannot both specify accessors and a value or writable attribute",
	MsgGetterNotCallable:      "Getter must be a function: %s",
	MsgSetterNotCallable:      "Setter must be a function: %s",
	MsgPrototypeNotObject:     "Function has non-object prototype in %s check",
	MsgInstanceofNotObject:    "Right-hand side of 'instanceof' is not an object",
	MsgInstanceofNotCallable:  "Right-hand side of 'instanceof' is not callable",
	MsgInNotObject:            "Cannot use 'in' operator to search for '%s' in %s",
	MsgProxyRevoked:           "Cannot perform '%s' on a proxy that has been revoked",
	MsgProxyInvariant:         "'%s' on proxy: %s",
	MsgProxyTargetNotObject:   "Cannot create proxy with a non-object as target or handler",
	MsgGeneratorRunning:       "Generator is already running",
	MsgIncompatibleReceiver:   "Method %s called on incompatible receiver %s",
	MsgCallStackExceeded:      "Maximum call stack size exceeded",
	MsgInvalidArrayLength:     "Invalid array length",
	MsgClassCallWithoutNew:    "Class constructor %s cannot be invoked without 'new'",
	MsgDerivedReturn:          "Derived constructors may only return object or undefined",
	MsgSuperNotCalled:         "Must call super constructor in derived class before accessing 'this' or returning from derived constructor",
	MsgSuperAlreadyCalled:     "Super constructor may only be called once",
	MsgSuperNotConstructor:    "Super constructor %s of anonymous class is not a constructor",
	MsgClassExtendsInvalid:    "Class extends value %s is not a constructor or null",
	MsgPrivateNotFound:        "Cannot read private member %s from an object whose class did not declare it",
	MsgPrivateAlreadyDefined:  "Cannot initialize %s twice on the same object",
	MsgPrivateMethodWrite:     "Private method %s is not writable",
	MsgPrivateNoGetter:        "'%s' was defined without a getter",
	MsgPrivateNoSetter:        "'%s' was defined without a setter",
	MsgNotIterable:            "%s is not iterable",
	MsgNotAsyncIterable:       "%s is not async iterable",
	MsgIteratorResultNotObj:   "Iterator result %s is not an object",
	MsgIteratorNoThrow:        "The iterator does not provide a 'throw' method",
	MsgPromiseSelfResolution:  "Chaining cycle detected for promise",
	MsgPromiseExecutor:        "Promise resolver %s is not a function",
	MsgPromiseCapability:      "Promise executor has already been invoked with non-undefined arguments",
	MsgInvalidRegExp:          "Invalid regular expression: /%s/: %s",
	MsgInvalidRegExpFlags:     "Invalid regular expression flags '%s'",
	MsgDetachedBuffer:         "Cannot perform %s on a detached ArrayBuffer",
	MsgInvalidTypedArrayLen:   "Invalid typed array length: %s",
	MsgTypedArrayOffset:       "Start offset %s is outside the bounds of the buffer",
	MsgInvalidStringLength:    "Invalid string length",
	MsgInvalidCodePoint:       "Invalid code point %s",
	MsgInvalidRadix:           "toString() radix must be between 2 and 36",
	MsgInvalidPrecision:       "%s argument must be between 0 and 100",
	MsgCyclicStructure:        "Converting circular structure to JSON",
	MsgCyclicProto:            "Cyclic __proto__ value",
	MsgSetPrototypeFailed:     "Object.setPrototypeOf failed on %s",
	MsgPreventExtFailed:       "Cannot prevent extensions",
	MsgNotExtensible:          "Cannot add property %s, object is not extensible",
	MsgSymbolNew:              "Symbol is not a constructor",
	MsgWithNotAllowed:         "Strict mode code may not include a with statement",
	MsgModuleNotFound:         "Cannot find module '%s'",
	MsgInvalidTemplate:        "Invalid escape sequence in template",
	MsgConstructorRequired:    "Constructor %s requires 'new'",
	MsgParse:                  "%s",
	MsgAggregate:              "All promises were rejected",
	MsgAsyncFromSyncNoThrow:   "The iterator does not provide a 'throw' method",
	MsgAlreadyDeclared:        "Identifier '%s' has already been declared",
	MsgCannotDeclareGlobal:    "Cannot declare global binding '%s'",
	MsgInvalidAssignTarget:    "Invalid assignment target",
	MsgUnsupportedSyntax:      "Unsupported syntax: %s",
	MsgRestrictedProperty:     "'caller', 'callee', and 'arguments' properties may not be accessed on strict mode functions or the arguments objects for calls to them",
	MsgAbstractConstructor:    "Abstract class %s not directly constructable",
	MsgNegativeLimit:          "%s must be a non-negative number",
	MsgReduceEmpty:            "Reduce of empty iterator with no initial value",
	MsgInvalidNormalization:   "The normalization form should be one of NFC, NFD, NFKC, NFKD",
	MsgInvalidCount:           "Invalid count value: %s",
}

// newMessagePrinter builds a printer over the message catalog.
func newMessagePrinter() *message.Printer {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, tmpl := range messageTemplates {
		if err := b.SetString(language.English, string(key), tmpl); err != nil {
			panic(err)
		}
	}
	return message.NewPrinter(language.English, message.Catalog(b))
}

// Format renders a catalog message.
func (a *Agent) Format(key Msg, args ...any) string {
	return a.printer.Sprintf(string(key), args...)
}
