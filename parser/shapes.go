package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/example/pagejs/ast"
	"github.com/example/pagejs/scan"
)

// Shape recognition resolves built-in API calls into closed BuiltinCall
// nodes while the text is still in hand. Namespace calls (Math.abs, ...)
// are validated eagerly: a wrong arity or an unknown method on a known
// namespace is a parse error. Method shapes (x.slice, ...) are resolved by
// name; when a precondition fails the call falls back to a generic member
// call and the evaluator decides at run time.

type arity struct {
	min int
	max int // -1 for variadic
}

func (a arity) ok(n int) bool {
	return n >= a.min && (a.max < 0 || n <= a.max)
}

type nsShape struct {
	op ast.BuiltinOp
	arity
}

// namespaceShapes covers static calls on the reserved namespace objects.
var namespaceShapes = map[string]nsShape{
	"Math.abs":    {op: ast.MathAbs, arity: arity{1, 1}},
	"Math.floor":  {op: ast.MathFloor, arity: arity{1, 1}},
	"Math.ceil":   {op: ast.MathCeil, arity: arity{1, 1}},
	"Math.round":  {op: ast.MathRound, arity: arity{1, 1}},
	"Math.trunc":  {op: ast.MathTrunc, arity: arity{1, 1}},
	"Math.sign":   {op: ast.MathSign, arity: arity{1, 1}},
	"Math.sqrt":   {op: ast.MathSqrt, arity: arity{1, 1}},
	"Math.cbrt":   {op: ast.MathCbrt, arity: arity{1, 1}},
	"Math.pow":    {op: ast.MathPow, arity: arity{2, 2}},
	"Math.atan2":  {op: ast.MathAtan2, arity: arity{2, 2}},
	"Math.min":    {op: ast.MathMin, arity: arity{0, -1}},
	"Math.max":    {op: ast.MathMax, arity: arity{0, -1}},
	"Math.hypot":  {op: ast.MathHypot, arity: arity{0, -1}},
	"Math.random": {op: ast.MathRandom, arity: arity{0, 0}},
	"Math.log":    {op: ast.MathLog, arity: arity{1, 1}},
	"Math.log2":   {op: ast.MathLog2, arity: arity{1, 1}},
	"Math.log10":  {op: ast.MathLog10, arity: arity{1, 1}},
	"Math.exp":    {op: ast.MathExp, arity: arity{1, 1}},
	"Math.sin":    {op: ast.MathSin, arity: arity{1, 1}},
	"Math.cos":    {op: ast.MathCos, arity: arity{1, 1}},
	"Math.tan":    {op: ast.MathTan, arity: arity{1, 1}},
	"Math.atan":   {op: ast.MathAtan, arity: arity{1, 1}},

	"JSON.parse":     {op: ast.JSONParse, arity: arity{1, 1}},
	"JSON.stringify": {op: ast.JSONStringify, arity: arity{1, 3}},

	"Object.keys":                {op: ast.ObjectKeys, arity: arity{1, 1}},
	"Object.values":              {op: ast.ObjectValues, arity: arity{1, 1}},
	"Object.entries":             {op: ast.ObjectEntries, arity: arity{1, 1}},
	"Object.assign":              {op: ast.ObjectAssign, arity: arity{1, -1}},
	"Object.freeze":              {op: ast.ObjectFreeze, arity: arity{1, 1}},
	"Object.isFrozen":            {op: ast.ObjectIsFrozen, arity: arity{1, 1}},
	"Object.fromEntries":         {op: ast.ObjectFromEntries, arity: arity{1, 1}},
	"Object.create":              {op: ast.ObjectCreate, arity: arity{1, 2}},
	"Object.getOwnPropertyNames": {op: ast.ObjectGetOwnPropertyNames, arity: arity{1, 1}},
	"Object.defineProperty":      {op: ast.ObjectDefineProperty, arity: arity{3, 3}},

	"Array.isArray": {op: ast.ArrayIsArray, arity: arity{1, 1}},
	"Array.from":    {op: ast.ArrayFrom, arity: arity{1, 2}},
	"Array.of":      {op: ast.ArrayOf, arity: arity{0, -1}},

	"Number.isInteger": {op: ast.NumberIsInteger, arity: arity{1, 1}},
	"Number.isFinite":  {op: ast.NumberIsFinite, arity: arity{1, 1}},
	"Number.isNaN":     {op: ast.NumberIsNaN, arity: arity{1, 1}},

	"String.fromCharCode": {op: ast.StringFromCharCode, arity: arity{0, -1}},

	"Promise.resolve":    {op: ast.PromiseResolve, arity: arity{0, 1}},
	"Promise.reject":     {op: ast.PromiseReject, arity: arity{0, 1}},
	"Promise.all":        {op: ast.PromiseAll, arity: arity{1, 1}},
	"Promise.allSettled": {op: ast.PromiseAllSettled, arity: arity{1, 1}},
	"Promise.any":        {op: ast.PromiseAny, arity: arity{1, 1}},
	"Promise.race":       {op: ast.PromiseRace, arity: arity{1, 1}},

	"Date.now": {op: ast.DateNow, arity: arity{0, 0}},

	"BigInt.asIntN":  {op: ast.BigIntAsIntN, arity: arity{2, 2}},
	"BigInt.asUintN": {op: ast.BigIntAsUintN, arity: arity{2, 2}},

	"console.log":   {op: ast.ConsoleLog, arity: arity{0, -1}},
	"console.warn":  {op: ast.ConsoleWarn, arity: arity{0, -1}},
	"console.error": {op: ast.ConsoleError, arity: arity{0, -1}},

	"document.querySelector":    {op: ast.DocQuerySelector, arity: arity{1, 1}},
	"document.querySelectorAll": {op: ast.DocQuerySelectorAll, arity: arity{1, 1}},
	"document.getElementById":   {op: ast.DocGetElementByID, arity: arity{1, 1}},
	"document.createElement":    {op: ast.DocCreateElement, arity: arity{1, 1}},
}

var reservedNamespaces = map[string]bool{
	"Math": true, "JSON": true, "Object": true, "Array": true, "Number": true,
	"String": true, "Promise": true, "Date": true, "BigInt": true,
	"console": true, "document": true, "Intl": true,
}

// globalShapes covers bare built-in function calls.
var globalShapes = map[string]nsShape{
	"parseInt":       {op: ast.GlobalParseInt, arity: arity{1, 2}},
	"parseFloat":     {op: ast.GlobalParseFloat, arity: arity{1, 1}},
	"isNaN":          {op: ast.GlobalIsNaN, arity: arity{1, 1}},
	"isFinite":       {op: ast.GlobalIsFinite, arity: arity{1, 1}},
	"BigInt":         {op: ast.BigIntCall, arity: arity{1, 1}},
	"setTimeout":     {op: ast.TimerSetTimeout, arity: arity{1, -1}},
	"setInterval":    {op: ast.TimerSetInterval, arity: arity{1, -1}},
	"clearTimeout":   {op: ast.TimerClearTimeout, arity: arity{1, 1}},
	"clearInterval":  {op: ast.TimerClearInterval, arity: arity{1, 1}},
	"queueMicrotask": {op: ast.QueueMicrotask, arity: arity{1, 1}},
}

// methodShape is one recognized instance-method call pattern. strOp, when
// set, replaces op for receivers that are string literals or templates.
type methodShape struct {
	op    ast.BuiltinOp
	strOp ast.BuiltinOp
	arity
}

var methodShapes = map[string]methodShape{
	// array family (several double as string, typed array or buffer ops;
	// the evaluator branch for the op covers every plausible receiver)
	"push":          {op: ast.ArrayPush, arity: arity{1, -1}},
	"pop":           {op: ast.ArrayPop, arity: arity{0, 0}},
	"shift":         {op: ast.ArrayShift, arity: arity{0, 0}},
	"unshift":       {op: ast.ArrayUnshift, arity: arity{1, -1}},
	"slice":         {op: ast.ArraySlice, strOp: ast.StringSlice, arity: arity{0, 2}},
	"splice":        {op: ast.ArraySplice, arity: arity{0, -1}},
	"concat":        {op: ast.ArrayConcat, strOp: ast.StringConcat, arity: arity{0, -1}},
	"join":          {op: ast.ArrayJoin, arity: arity{0, 1}},
	"reverse":       {op: ast.ArrayReverse, arity: arity{0, 0}},
	"sort":          {op: ast.ArraySort, arity: arity{0, 1}},
	"map":           {op: ast.ArrayMap, arity: arity{1, 1}},
	"filter":        {op: ast.ArrayFilter, arity: arity{1, 1}},
	"forEach":       {op: ast.ArrayForEach, arity: arity{1, 1}},
	"reduce":        {op: ast.ArrayReduce, arity: arity{1, 2}},
	"reduceRight":   {op: ast.ArrayReduceRight, arity: arity{1, 2}},
	"find":          {op: ast.ArrayFind, arity: arity{1, 1}},
	"findIndex":     {op: ast.ArrayFindIndex, arity: arity{1, 1}},
	"findLast":      {op: ast.ArrayFindLast, arity: arity{1, 1}},
	"findLastIndex": {op: ast.ArrayFindLastIndex, arity: arity{1, 1}},
	"some":          {op: ast.ArraySome, arity: arity{1, 1}},
	"every":         {op: ast.ArrayEvery, arity: arity{1, 1}},
	"includes":      {op: ast.ArrayIncludes, strOp: ast.StringIncludes, arity: arity{1, 2}},
	"indexOf":       {op: ast.ArrayIndexOf, strOp: ast.StringIndexOf, arity: arity{1, 2}},
	"lastIndexOf":   {op: ast.ArrayLastIndexOf, strOp: ast.StringLastIndexOf, arity: arity{1, 2}},
	"flat":          {op: ast.ArrayFlat, arity: arity{0, 1}},
	"flatMap":       {op: ast.ArrayFlatMap, arity: arity{1, 1}},
	"fill":          {op: ast.ArrayFill, arity: arity{1, 3}},
	"keys":          {op: ast.ArrayKeys, arity: arity{0, 0}},
	"values":        {op: ast.ArrayValues, arity: arity{0, 0}},
	"entries":       {op: ast.ArrayEntries, arity: arity{0, 0}},
	"at":            {op: ast.ArrayAt, strOp: ast.StringAt, arity: arity{1, 1}},

	// string
	"padStart":      {op: ast.StringPadStart, arity: arity{1, 2}},
	"padEnd":        {op: ast.StringPadEnd, arity: arity{1, 2}},
	"trim":          {op: ast.StringTrim, arity: arity{0, 0}},
	"trimStart":     {op: ast.StringTrimStart, arity: arity{0, 0}},
	"trimEnd":       {op: ast.StringTrimEnd, arity: arity{0, 0}},
	"toUpperCase":   {op: ast.StringToUpperCase, arity: arity{0, 0}},
	"toLowerCase":   {op: ast.StringToLowerCase, arity: arity{0, 0}},
	"startsWith":    {op: ast.StringStartsWith, arity: arity{1, 2}},
	"endsWith":      {op: ast.StringEndsWith, arity: arity{1, 2}},
	"substring":     {op: ast.StringSubstring, arity: arity{1, 2}},
	"split":         {op: ast.StringSplit, arity: arity{0, 2}},
	"replace":       {op: ast.StringReplace, arity: arity{2, 2}},
	"replaceAll":    {op: ast.StringReplaceAll, arity: arity{2, 2}},
	"repeat":        {op: ast.StringRepeat, arity: arity{1, 1}},
	"charAt":        {op: ast.StringCharAt, arity: arity{0, 1}},
	"charCodeAt":    {op: ast.StringCharCodeAt, arity: arity{0, 1}},
	"codePointAt":   {op: ast.StringCodePointAt, arity: arity{0, 1}},
	"match":         {op: ast.StringMatch, arity: arity{1, 1}},
	"matchAll":      {op: ast.StringMatchAll, arity: arity{1, 1}},
	"search":        {op: ast.StringSearch, arity: arity{1, 1}},
	"localeCompare": {op: ast.StringLocaleCompare, arity: arity{1, 3}},
	"normalize":     {op: ast.StringNormalize, arity: arity{0, 1}},

	// number / bigint (toString also covers bigints and radix conversion)
	"toFixed":     {op: ast.NumberToFixed, arity: arity{0, 1}},
	"toPrecision": {op: ast.NumberToPrecision, arity: arity{0, 1}},
	"toString":    {op: ast.NumberToStringRadix, arity: arity{0, 1}},

	"hasOwnProperty": {op: ast.ObjectHasOwnProperty, arity: arity{1, 1}},

	// map / set (get, set, has, delete reach the evaluator branch that
	// inspects the receiver kind)
	"get":    {op: ast.MapGet, arity: arity{1, 1}},
	"set":    {op: ast.MapSet, arity: arity{1, 2}},
	"has":    {op: ast.MapHas, arity: arity{1, 1}},
	"delete": {op: ast.MapDelete, arity: arity{1, 1}},
	"clear":  {op: ast.MapClear, arity: arity{0, 0}},
	"add":    {op: ast.SetAdd, arity: arity{1, 1}},

	// promise
	"then":    {op: ast.PromiseThen, arity: arity{1, 2}},
	"catch":   {op: ast.PromiseCatch, arity: arity{1, 1}},
	"finally": {op: ast.PromiseFinally, arity: arity{1, 1}},

	// typed array
	"subarray": {op: ast.TypedArraySubarray, arity: arity{0, 2}},

	// regexp
	"test": {op: ast.RegExpTest, arity: arity{1, 1}},
	"exec": {op: ast.RegExpExec, arity: arity{1, 1}},

	// date
	"getTime":           {op: ast.DateGetTime, arity: arity{0, 0}},
	"getFullYear":       {op: ast.DateGetFullYear, arity: arity{0, 0}},
	"getMonth":          {op: ast.DateGetMonth, arity: arity{0, 0}},
	"getDate":           {op: ast.DateGetDate, arity: arity{0, 0}},
	"getDay":            {op: ast.DateGetDay, arity: arity{0, 0}},
	"getHours":          {op: ast.DateGetHours, arity: arity{0, 0}},
	"getMinutes":        {op: ast.DateGetMinutes, arity: arity{0, 0}},
	"getSeconds":        {op: ast.DateGetSeconds, arity: arity{0, 0}},
	"getMilliseconds":   {op: ast.DateGetMilliseconds, arity: arity{0, 0}},
	"toISOString":       {op: ast.DateToISOString, arity: arity{0, 0}},
	"getTimezoneOffset": {op: ast.DateGetTimezoneOffset, arity: arity{0, 0}},

	// intl handles (format also covers date-time formatters)
	"compare": {op: ast.IntlCollatorCompare, arity: arity{2, 2}},
	"format":  {op: ast.IntlNumberFormatFormat, arity: arity{1, 1}},
	"select":  {op: ast.IntlPluralRulesSelect, arity: arity{1, 1}},

	// elements and events
	"querySelector":       {op: ast.ElemQuerySelector, arity: arity{1, 1}},
	"querySelectorAll":    {op: ast.ElemQuerySelectorAll, arity: arity{1, 1}},
	"setAttribute":        {op: ast.ElemSetAttribute, arity: arity{2, 2}},
	"getAttribute":        {op: ast.ElemGetAttribute, arity: arity{1, 1}},
	"removeAttribute":     {op: ast.ElemRemoveAttribute, arity: arity{1, 1}},
	"addEventListener":    {op: ast.ElemAddEventListener, arity: arity{2, 2}},
	"removeEventListener": {op: ast.ElemRemoveEventListener, arity: arity{2, 2}},
	"dispatchEvent":       {op: ast.ElemDispatchEvent, arity: arity{1, 1}},
	"appendChild":         {op: ast.ElemAppendChild, arity: arity{1, 1}},
	"removeChild":         {op: ast.ElemRemoveChild, arity: arity{1, 1}},
	"focus":               {op: ast.ElemFocus, arity: arity{0, 0}},
	"blur":                {op: ast.ElemBlur, arity: arity{0, 0}},
	"click":               {op: ast.ElemClick, arity: arity{0, 0}},
	"preventDefault":      {op: ast.EventPreventDefault, arity: arity{0, 0}},
}

// classListShapes handles calls whose receiver text ends in ".classList";
// the receiver carried on the node is the element itself.
var classListShapes = map[string]nsShape{
	"add":      {op: ast.ClassListAdd, arity: arity{1, -1}},
	"remove":   {op: ast.ClassListRemove, arity: arity{1, -1}},
	"contains": {op: ast.ClassListContains, arity: arity{1, 1}},
	"toggle":   {op: ast.ClassListToggle, arity: arity{1, 2}},
}

// styleShapes handles calls whose receiver text ends in ".style"; the
// receiver carried on the node is the element itself.
var styleShapes = map[string]nsShape{
	"setProperty":      {op: ast.StyleSetProperty, arity: arity{2, 2}},
	"getPropertyValue": {op: ast.StyleGetPropertyValue, arity: arity{1, 1}},
}

// memberShapes maps built-in property reads to their ops.
var memberShapes = map[string]ast.BuiltinOp{
	"length":      ast.MemberLength,
	"size":        ast.MemberSize,
	"byteLength":  ast.MemberByteLength,
	"buffer":      ast.MemberBuffer,
	"source":      ast.MemberSource,
	"flags":       ast.MemberFlags,
	"lastIndex":   ast.MemberLastIndex,
	"textContent": ast.MemberTextContent,
	"value":       ast.MemberValue,
	"checked":     ast.MemberChecked,
	"id":          ast.MemberID,
	"className":   ast.MemberClassName,
	"tagName":     ast.MemberTagName,
	"target":      ast.MemberTarget,
	"type":        ast.MemberType,
}

// namespaceConstant resolves well-known namespace constants to literals.
func namespaceConstant(obj, prop string) (ast.Expression, bool) {
	switch obj {
	case "Math":
		switch prop {
		case "PI":
			return &ast.FloatLiteral{Value: math.Pi}, true
		case "E":
			return &ast.FloatLiteral{Value: math.E}, true
		case "LN2":
			return &ast.FloatLiteral{Value: math.Ln2}, true
		case "LN10":
			return &ast.FloatLiteral{Value: math.Log(10)}, true
		case "SQRT2":
			return &ast.FloatLiteral{Value: math.Sqrt2}, true
		}
	case "Number":
		switch prop {
		case "MAX_SAFE_INTEGER":
			return &ast.NumberLiteral{Value: 1<<53 - 1}, true
		case "MIN_SAFE_INTEGER":
			return &ast.NumberLiteral{Value: -(1<<53 - 1)}, true
		case "EPSILON":
			return &ast.FloatLiteral{Value: math.Nextafter(1, 2) - 1}, true
		case "MAX_VALUE":
			return &ast.FloatLiteral{Value: math.MaxFloat64}, true
		case "POSITIVE_INFINITY":
			return &ast.FloatLiteral{Value: math.Inf(1)}, true
		case "NEGATIVE_INFINITY":
			return &ast.FloatLiteral{Value: math.Inf(-1)}, true
		case "NaN":
			return &ast.FloatLiteral{Value: math.NaN()}, true
		}
	}
	return nil, false
}

// buildCall turns callee text and parsed arguments into the most specific
// node available: a super call, a recognized builtin, or a generic call.
func buildCall(callee string, args []ast.Expression) (ast.Expression, error) {
	optional := false
	if strings.HasSuffix(callee, "?.") {
		optional = true
		callee = strings.TrimSpace(callee[:len(callee)-2])
	}

	if callee == "super" {
		return &ast.SuperCallExpression{Arguments: args}, nil
	}
	if strings.HasPrefix(callee, "super.") {
		method := callee[len("super."):]
		if isIdent(method) {
			return &ast.SuperMethodExpression{Method: method, Arguments: args}, nil
		}
	}

	if isIdent(callee) {
		if shape, ok := globalShapes[callee]; ok {
			if !shape.ok(len(args)) {
				return nil, errf("%s expects %s, got %d", callee, arityText(shape.arity), len(args))
			}
			return &ast.BuiltinCall{Op: shape.op, Args: args}, nil
		}
		return &ast.CallExpression{Callee: &ast.Identifier{Name: callee}, Arguments: args, Optional: optional}, nil
	}

	dot := lastMemberDot(callee)
	if dot <= 0 {
		calleeExpr, err := parsePostfix(callee)
		if err != nil {
			return nil, err
		}
		return &ast.CallExpression{Callee: calleeExpr, Arguments: args, Optional: optional}, nil
	}

	objText := strings.TrimSpace(callee[:dot])
	method := strings.TrimSpace(callee[dot+1:])
	optMember := false
	if strings.HasSuffix(objText, "?") {
		optMember = true
		objText = strings.TrimSpace(objText[:len(objText)-1])
	}

	if reservedNamespaces[objText] {
		shape, ok := namespaceShapes[objText+"."+method]
		if !ok {
			return nil, errf("unknown method %s.%s", objText, method)
		}
		if !shape.ok(len(args)) {
			return nil, errf("%s.%s expects %s, got %d", objText, method, arityText(shape.arity), len(args))
		}
		return &ast.BuiltinCall{Op: shape.op, Args: args}, nil
	}

	if shape, ok := classListShapes[method]; ok && strings.HasSuffix(objText, ".classList") {
		if shape.ok(len(args)) {
			recvText := strings.TrimSpace(objText[:len(objText)-len(".classList")])
			recv, err := parsePostfix(recvText)
			if err != nil {
				return nil, err
			}
			return &ast.BuiltinCall{Op: shape.op, Recv: recv, Args: args}, nil
		}
	}

	if shape, ok := styleShapes[method]; ok && strings.HasSuffix(objText, ".style") {
		if shape.ok(len(args)) {
			recvText := strings.TrimSpace(objText[:len(objText)-len(".style")])
			recv, err := parsePostfix(recvText)
			if err != nil {
				return nil, err
			}
			return &ast.BuiltinCall{Op: shape.op, Recv: recv, Args: args}, nil
		}
	}

	if shape, ok := methodShapes[method]; ok && !optional && !optMember && shape.ok(len(args)) {
		recv, err := parsePostfix(objText)
		if err != nil {
			return nil, err
		}
		op := shape.op
		if shape.strOp != ast.BuiltinInvalid && isStringExpr(recv) {
			op = shape.strOp
		}
		return &ast.BuiltinCall{Op: op, Recv: recv, Args: args}, nil
	}

	obj, err := parsePostfix(objText)
	if err != nil {
		return nil, err
	}
	return &ast.CallExpression{
		Callee:    &ast.MemberExpression{Object: obj, Property: method, Optional: optMember},
		Arguments: args,
		Optional:  optional,
	}, nil
}

func isStringExpr(e ast.Expression) bool {
	switch e.(type) {
	case *ast.StringLiteral, *ast.TemplateLiteral:
		return true
	}
	return false
}

func arityText(a arity) string {
	switch {
	case a.max < 0 && a.min == 0:
		return "any number of arguments"
	case a.max < 0:
		return "at least " + strconv.Itoa(a.min) + " argument(s)"
	case a.min == a.max:
		return strconv.Itoa(a.min) + " argument(s)"
	default:
		return "between " + strconv.Itoa(a.min) + " and " + strconv.Itoa(a.max) + " arguments"
	}
}

// newShapes covers constructor calls on built-in types.
var newShapes = map[string]nsShape{
	"Date":                {op: ast.NewDate, arity: arity{0, 7}},
	"Map":                 {op: ast.NewMap, arity: arity{0, 1}},
	"Set":                 {op: ast.NewSet, arity: arity{0, 1}},
	"Promise":             {op: ast.NewPromise, arity: arity{1, 1}},
	"RegExp":              {op: ast.NewRegExp, arity: arity{1, 2}},
	"ArrayBuffer":         {op: ast.NewArrayBuffer, arity: arity{1, 1}},
	"Int8Array":           {op: ast.NewInt8Array, arity: arity{0, 3}},
	"Uint8Array":          {op: ast.NewUint8Array, arity: arity{0, 3}},
	"Uint8ClampedArray":   {op: ast.NewUint8ClampedArray, arity: arity{0, 3}},
	"Int16Array":          {op: ast.NewInt16Array, arity: arity{0, 3}},
	"Uint16Array":         {op: ast.NewUint16Array, arity: arity{0, 3}},
	"Int32Array":          {op: ast.NewInt32Array, arity: arity{0, 3}},
	"Uint32Array":         {op: ast.NewUint32Array, arity: arity{0, 3}},
	"Float32Array":        {op: ast.NewFloat32Array, arity: arity{0, 3}},
	"Float64Array":        {op: ast.NewFloat64Array, arity: arity{0, 3}},
	"BigInt64Array":       {op: ast.NewBigInt64Array, arity: arity{0, 3}},
	"BigUint64Array":      {op: ast.NewBigUint64Array, arity: arity{0, 3}},
	"Intl.Collator":       {op: ast.NewIntlCollator, arity: arity{0, 2}},
	"Intl.NumberFormat":   {op: ast.NewIntlNumberFormat, arity: arity{0, 2}},
	"Intl.PluralRules":    {op: ast.NewIntlPluralRules, arity: arity{0, 2}},
	"Intl.DateTimeFormat": {op: ast.NewIntlDateTimeFormat, arity: arity{0, 2}},
}

// errorNames maps recognized error constructors to the name carried in the
// error value; the parser prepends it as a string literal argument.
var errorNames = map[string]string{
	"Error":       "Error",
	"TypeError":   "TypeError",
	"RangeError":  "RangeError",
	"SyntaxError": "SyntaxError",
}

// newExprEnd returns the index just past the new expression heading src
// (the constructor name or parenthesized callee plus its own argument
// list), or -1 when no constructor head is recognizable. Callers use it to
// decide whether postfix suffixes follow the constructed value.
func newExprEnd(src string) int {
	i := skipSpace(src, len("new"))
	start := i
	if i < len(src) && src[i] == '(' {
		close, err := scan.MatchBracket(src, i)
		if err != nil {
			return -1
		}
		i = close + 1
	} else {
		for i < len(src) && (isIdentChar(src[i]) || src[i] == '.') {
			i++
		}
	}
	if i == start {
		return -1
	}
	j := skipSpace(src, i)
	if j < len(src) && src[j] == '(' {
		close, err := scan.MatchBracket(src, j)
		if err != nil {
			return -1
		}
		return close + 1
	}
	return i
}

// parseNewExpression parses "new Callee(args)" or "new Callee". The
// constructor's argument list is the bracket group directly following the
// callee, found by scanning forward, so the text must not carry trailing
// member or call suffixes.
func parseNewExpression(src string) (ast.Expression, error) {
	rest := strings.TrimSpace(src[len("new"):])
	if rest == "" {
		return nil, errf("new requires a constructor")
	}

	nameEnd := len(rest)
	if open := scan.IndexTopLevel(rest, "("); open > 0 {
		nameEnd = open
	} else if open == 0 {
		close, err := scan.MatchBracket(rest, 0)
		if err != nil {
			return nil, &Error{Msg: err.Error()}
		}
		nameEnd = close + 1
	}
	name := strings.TrimSpace(rest[:nameEnd])
	var args []ast.Expression
	if tail := strings.TrimSpace(rest[nameEnd:]); tail != "" {
		if tail[0] != '(' {
			return nil, errf("malformed new expression %q", snippet(src))
		}
		close, err := scan.MatchBracket(tail, 0)
		if err != nil {
			return nil, &Error{Msg: err.Error()}
		}
		if close != len(tail)-1 {
			return nil, errf("malformed new expression %q", snippet(src))
		}
		args, err = parseArgs(tail[1:close])
		if err != nil {
			return nil, err
		}
	}

	if errName, ok := errorNames[name]; ok {
		if len(args) > 1 {
			return nil, errf("new %s expects at most 1 argument, got %d", name, len(args))
		}
		withName := append([]ast.Expression{&ast.StringLiteral{Value: errName}}, args...)
		return &ast.BuiltinCall{Op: ast.NewError, Args: withName}, nil
	}

	if shape, ok := newShapes[name]; ok {
		if !shape.ok(len(args)) {
			if name == "Promise" {
				return nil, errf("new Promise requires an executor function")
			}
			return nil, errf("new %s expects %s, got %d", name, arityText(shape.arity), len(args))
		}
		return &ast.BuiltinCall{Op: shape.op, Args: args}, nil
	}

	callee, err := parsePostfix(name)
	if err != nil {
		return nil, err
	}
	return &ast.NewExpression{Callee: callee, Arguments: args}, nil
}
