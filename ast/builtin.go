package ast

// BuiltinOp identifies one recognized built-in operation. The parser's shape
// recognizers resolve calls to these at parse time; the evaluator dispatches
// on the op with a single exhaustive switch.
type BuiltinOp int

const (
	BuiltinInvalid BuiltinOp = iota

	// Array
	ArrayIsArray
	ArrayFrom
	ArrayOf
	ArrayPush
	ArrayPop
	ArrayShift
	ArrayUnshift
	ArraySlice
	ArraySplice
	ArrayConcat
	ArrayJoin
	ArrayReverse
	ArraySort
	ArrayMap
	ArrayFilter
	ArrayForEach
	ArrayReduce
	ArrayReduceRight
	ArrayFind
	ArrayFindIndex
	ArrayFindLast
	ArrayFindLastIndex
	ArraySome
	ArrayEvery
	ArrayIncludes
	ArrayIndexOf
	ArrayLastIndexOf
	ArrayFlat
	ArrayFlatMap
	ArrayFill
	ArrayKeys
	ArrayValues
	ArrayEntries
	ArrayAt

	// String
	StringPadStart
	StringPadEnd
	StringTrim
	StringTrimStart
	StringTrimEnd
	StringToUpperCase
	StringToLowerCase
	StringIncludes
	StringStartsWith
	StringEndsWith
	StringIndexOf
	StringLastIndexOf
	StringSlice
	StringSubstring
	StringSplit
	StringReplace
	StringReplaceAll
	StringRepeat
	StringCharAt
	StringCharCodeAt
	StringCodePointAt
	StringAt
	StringConcat
	StringMatch
	StringMatchAll
	StringSearch
	StringLocaleCompare
	StringNormalize
	StringFromCharCode

	// Object
	ObjectKeys
	ObjectValues
	ObjectEntries
	ObjectAssign
	ObjectFreeze
	ObjectIsFrozen
	ObjectFromEntries
	ObjectCreate
	ObjectGetOwnPropertyNames
	ObjectDefineProperty
	ObjectHasOwnProperty // method form: o.hasOwnProperty(k)

	// Math
	MathAbs
	MathFloor
	MathCeil
	MathRound
	MathTrunc
	MathSign
	MathSqrt
	MathCbrt
	MathPow
	MathMin
	MathMax
	MathRandom
	MathHypot
	MathLog
	MathLog2
	MathLog10
	MathExp
	MathSin
	MathCos
	MathTan
	MathAtan
	MathAtan2

	// Number and numeric globals
	NumberIsInteger
	NumberIsFinite
	NumberIsNaN
	NumberToFixed
	NumberToPrecision
	NumberToStringRadix
	GlobalParseInt
	GlobalParseFloat
	GlobalIsNaN
	GlobalIsFinite

	// JSON
	JSONParse
	JSONStringify

	// Map / Set
	MapGet
	MapSet
	MapHas
	MapDelete
	MapClear
	MapForEach
	MapKeys
	MapValues
	MapEntries
	SetAdd
	SetHas
	SetDelete
	SetClear
	SetForEach
	SetValues

	// Promise
	PromiseResolve
	PromiseReject
	PromiseAll
	PromiseAllSettled
	PromiseAny
	PromiseRace
	PromiseThen
	PromiseCatch
	PromiseFinally

	// Timers and microtasks
	TimerSetTimeout
	TimerSetInterval
	TimerClearTimeout
	TimerClearInterval
	QueueMicrotask

	// BigInt
	BigIntCall
	BigIntAsIntN
	BigIntAsUintN
	BigIntToString

	// TypedArray / ArrayBuffer
	TypedArraySet
	TypedArraySubarray
	TypedArrayFill
	TypedArraySlice
	BufferSlice

	// RegExp
	RegExpTest
	RegExpExec

	// Date
	DateNow
	DateGetTime
	DateGetFullYear
	DateGetMonth
	DateGetDate
	DateGetDay
	DateGetHours
	DateGetMinutes
	DateGetSeconds
	DateGetMilliseconds
	DateToISOString
	DateGetTimezoneOffset

	// Intl handles
	IntlCollatorCompare
	IntlNumberFormatFormat
	IntlPluralRulesSelect
	IntlDateTimeFormatFormat

	// Constructors (new ...)
	NewDate
	NewMap
	NewSet
	NewPromise
	NewRegExp
	NewArrayBuffer
	NewInt8Array
	NewUint8Array
	NewUint8ClampedArray
	NewInt16Array
	NewUint16Array
	NewInt32Array
	NewUint32Array
	NewFloat32Array
	NewFloat64Array
	NewBigInt64Array
	NewBigUint64Array
	NewIntlCollator
	NewIntlNumberFormat
	NewIntlPluralRules
	NewIntlDateTimeFormat
	NewError // Args[0] is the error name literal inserted by the parser

	// Console
	ConsoleLog
	ConsoleWarn
	ConsoleError

	// Document / elements
	DocQuerySelector
	DocQuerySelectorAll
	DocGetElementByID
	DocCreateElement
	ElemQuerySelector
	ElemQuerySelectorAll
	ElemSetAttribute
	ElemGetAttribute
	ElemRemoveAttribute
	ElemAddEventListener
	ElemRemoveEventListener
	ElemDispatchEvent
	ElemAppendChild
	ElemRemoveChild
	ElemFocus
	ElemBlur
	ElemClick
	ClassListAdd
	ClassListRemove
	ClassListContains
	ClassListToggle
	StyleSetProperty
	StyleGetPropertyValue
	EventPreventDefault

	// Built-in property reads (BuiltinMember ops)
	MemberLength     // arrays, strings, typed arrays
	MemberSize       // maps, sets
	MemberByteLength // array buffers, typed arrays
	MemberBuffer     // typed arrays
	MemberSource     // regexps
	MemberFlags      // regexps
	MemberLastIndex  // regexps
	MemberTextContent
	MemberValue
	MemberChecked
	MemberID
	MemberClassName
	MemberTagName
	MemberTarget // events
	MemberType   // events
)

var builtinNames = map[BuiltinOp]string{
	ArrayIsArray: "Array.isArray", ArrayFrom: "Array.from", ArrayOf: "Array.of",
	ArrayPush: "push", ArrayPop: "pop", ArrayShift: "shift", ArrayUnshift: "unshift",
	ArraySlice: "slice", ArraySplice: "splice", ArrayConcat: "concat", ArrayJoin: "join",
	ArrayReverse: "reverse", ArraySort: "sort", ArrayMap: "map", ArrayFilter: "filter",
	ArrayForEach: "forEach", ArrayReduce: "reduce", ArrayReduceRight: "reduceRight",
	ArrayFind: "find", ArrayFindIndex: "findIndex", ArrayFindLast: "findLast",
	ArrayFindLastIndex: "findLastIndex", ArraySome: "some", ArrayEvery: "every",
	ArrayIncludes: "includes", ArrayIndexOf: "indexOf", ArrayLastIndexOf: "lastIndexOf",
	ArrayFlat: "flat", ArrayFlatMap: "flatMap", ArrayFill: "fill",
	ArrayKeys: "keys", ArrayValues: "values", ArrayEntries: "entries", ArrayAt: "at",

	StringPadStart: "padStart", StringPadEnd: "padEnd", StringTrim: "trim",
	StringTrimStart: "trimStart", StringTrimEnd: "trimEnd",
	StringToUpperCase: "toUpperCase", StringToLowerCase: "toLowerCase",
	StringIncludes: "includes", StringStartsWith: "startsWith", StringEndsWith: "endsWith",
	StringIndexOf: "indexOf", StringLastIndexOf: "lastIndexOf", StringSlice: "slice",
	StringSubstring: "substring", StringSplit: "split", StringReplace: "replace",
	StringReplaceAll: "replaceAll", StringRepeat: "repeat", StringCharAt: "charAt",
	StringCharCodeAt: "charCodeAt", StringCodePointAt: "codePointAt", StringAt: "at",
	StringConcat: "concat", StringMatch: "match", StringMatchAll: "matchAll",
	StringSearch: "search", StringLocaleCompare: "localeCompare",
	StringNormalize: "normalize", StringFromCharCode: "String.fromCharCode",

	ObjectKeys: "Object.keys", ObjectValues: "Object.values", ObjectEntries: "Object.entries",
	ObjectAssign: "Object.assign", ObjectFreeze: "Object.freeze", ObjectIsFrozen: "Object.isFrozen",
	ObjectFromEntries: "Object.fromEntries", ObjectCreate: "Object.create",
	ObjectGetOwnPropertyNames: "Object.getOwnPropertyNames",
	ObjectDefineProperty:      "Object.defineProperty", ObjectHasOwnProperty: "hasOwnProperty",

	MathAbs: "Math.abs", MathFloor: "Math.floor", MathCeil: "Math.ceil", MathRound: "Math.round",
	MathTrunc: "Math.trunc", MathSign: "Math.sign", MathSqrt: "Math.sqrt", MathCbrt: "Math.cbrt",
	MathPow: "Math.pow", MathMin: "Math.min", MathMax: "Math.max", MathRandom: "Math.random",
	MathHypot: "Math.hypot", MathLog: "Math.log", MathLog2: "Math.log2", MathLog10: "Math.log10",
	MathExp: "Math.exp", MathSin: "Math.sin", MathCos: "Math.cos", MathTan: "Math.tan",
	MathAtan: "Math.atan", MathAtan2: "Math.atan2",

	NumberIsInteger: "Number.isInteger", NumberIsFinite: "Number.isFinite",
	NumberIsNaN: "Number.isNaN", NumberToFixed: "toFixed", NumberToPrecision: "toPrecision",
	NumberToStringRadix: "toString", GlobalParseInt: "parseInt", GlobalParseFloat: "parseFloat",
	GlobalIsNaN: "isNaN", GlobalIsFinite: "isFinite",

	JSONParse: "JSON.parse", JSONStringify: "JSON.stringify",

	MapGet: "get", MapSet: "set", MapHas: "has", MapDelete: "delete", MapClear: "clear",
	MapForEach: "forEach", MapKeys: "keys", MapValues: "values", MapEntries: "entries",
	SetAdd: "add", SetHas: "has", SetDelete: "delete", SetClear: "clear",
	SetForEach: "forEach", SetValues: "values",

	PromiseResolve: "Promise.resolve", PromiseReject: "Promise.reject",
	PromiseAll: "Promise.all", PromiseAllSettled: "Promise.allSettled",
	PromiseAny: "Promise.any", PromiseRace: "Promise.race",
	PromiseThen: "then", PromiseCatch: "catch", PromiseFinally: "finally",

	TimerSetTimeout: "setTimeout", TimerSetInterval: "setInterval",
	TimerClearTimeout: "clearTimeout", TimerClearInterval: "clearInterval",
	QueueMicrotask: "queueMicrotask",

	BigIntCall: "BigInt", BigIntAsIntN: "BigInt.asIntN", BigIntAsUintN: "BigInt.asUintN",
	BigIntToString: "toString",

	TypedArraySet: "set", TypedArraySubarray: "subarray", TypedArrayFill: "fill",
	TypedArraySlice: "slice", BufferSlice: "slice",

	RegExpTest: "test", RegExpExec: "exec",

	DateNow: "Date.now", DateGetTime: "getTime", DateGetFullYear: "getFullYear",
	DateGetMonth: "getMonth", DateGetDate: "getDate", DateGetDay: "getDay",
	DateGetHours: "getHours", DateGetMinutes: "getMinutes", DateGetSeconds: "getSeconds",
	DateGetMilliseconds: "getMilliseconds", DateToISOString: "toISOString",
	DateGetTimezoneOffset: "getTimezoneOffset",

	IntlCollatorCompare: "compare", IntlNumberFormatFormat: "format",
	IntlPluralRulesSelect: "select", IntlDateTimeFormatFormat: "format",

	NewDate: "new Date", NewMap: "new Map", NewSet: "new Set", NewPromise: "new Promise",
	NewRegExp: "new RegExp", NewArrayBuffer: "new ArrayBuffer",
	NewInt8Array: "new Int8Array", NewUint8Array: "new Uint8Array",
	NewUint8ClampedArray: "new Uint8ClampedArray", NewInt16Array: "new Int16Array",
	NewUint16Array: "new Uint16Array", NewInt32Array: "new Int32Array",
	NewUint32Array: "new Uint32Array", NewFloat32Array: "new Float32Array",
	NewFloat64Array: "new Float64Array", NewBigInt64Array: "new BigInt64Array",
	NewBigUint64Array: "new BigUint64Array", NewIntlCollator: "new Intl.Collator",
	NewIntlNumberFormat: "new Intl.NumberFormat", NewIntlPluralRules: "new Intl.PluralRules",
	NewIntlDateTimeFormat: "new Intl.DateTimeFormat", NewError: "new Error",

	ConsoleLog: "console.log", ConsoleWarn: "console.warn", ConsoleError: "console.error",

	DocQuerySelector: "document.querySelector", DocQuerySelectorAll: "document.querySelectorAll",
	DocGetElementByID: "document.getElementById", DocCreateElement: "document.createElement",
	ElemQuerySelector: "querySelector", ElemQuerySelectorAll: "querySelectorAll",
	ElemSetAttribute: "setAttribute", ElemGetAttribute: "getAttribute",
	ElemRemoveAttribute: "removeAttribute", ElemAddEventListener: "addEventListener",
	ElemRemoveEventListener: "removeEventListener", ElemDispatchEvent: "dispatchEvent",
	ElemAppendChild: "appendChild", ElemRemoveChild: "removeChild",
	ElemFocus: "focus", ElemBlur: "blur", ElemClick: "click",
	ClassListAdd: "classList.add", ClassListRemove: "classList.remove",
	ClassListContains: "classList.contains", ClassListToggle: "classList.toggle",
	StyleSetProperty: "style.setProperty", StyleGetPropertyValue: "style.getPropertyValue",
	EventPreventDefault: "preventDefault",

	MemberLength: "length", MemberSize: "size", MemberByteLength: "byteLength",
	MemberBuffer: "buffer", MemberSource: "source", MemberFlags: "flags",
	MemberLastIndex: "lastIndex", MemberTextContent: "textContent", MemberValue: "value",
	MemberChecked: "checked", MemberID: "id", MemberClassName: "className",
	MemberTagName: "tagName", MemberTarget: "target", MemberType: "type",
}

func (op BuiltinOp) String() string {
	if s, ok := builtinNames[op]; ok {
		return s
	}
	return "builtin"
}
