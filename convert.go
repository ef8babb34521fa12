package plume

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// scriptString converts a Go value to its script string form. Strings
// pass through untouched; slices and maps become list strings whose
// elements are braced when they contain structural bytes.
func scriptString(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	case []string:
		parts := make([]string, len(val))
		for i, s := range val {
			parts[i] = quote(s)
		}
		return strings.Join(parts, " ")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = quote(scriptString(rv.Index(i).Interface()))
		}
		return strings.Join(parts, " ")
	case reflect.Map:
		var parts []string
		iter := rv.MapRange()
		for iter.Next() {
			parts = append(parts, quote(scriptString(iter.Key().Interface())))
			parts = append(parts, quote(scriptString(iter.Value().Interface())))
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprintf("%v", v)
}

// quote braces a string when it contains bytes that would split it into
// several list elements or trigger substitution.
func quote(s string) string {
	if s == "" {
		return "{}"
	}
	if strings.ContainsAny(s, " \t\n{}\"\\$[]") {
		return "{" + s + "}"
	}
	return s
}

// wrapFunc adapts an arbitrary Go function to the CommandFunc calling
// convention. Arguments are converted per parameter type and results per
// the rules of [Interp.Register]. Panics if fn is not a function.
func wrapFunc(fn any) CommandFunc {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		panic(fmt.Sprintf("Register: expected function, got %T", fn))
	}
	return func(in *Interp, args []string, _ any) Result {
		words := args[1:]
		numIn := fnType.NumIn()
		isVariadic := fnType.IsVariadic()
		if isVariadic {
			if len(words) < numIn-1 {
				return Errorf("wrong # args: expected at least %d, got %d", numIn-1, len(words))
			}
		} else if len(words) != numIn {
			return Errorf("wrong # args: expected %d, got %d", numIn, len(words))
		}
		callArgs := make([]reflect.Value, len(words))
		for j, word := range words {
			var paramType reflect.Type
			if isVariadic && j >= numIn-1 {
				paramType = fnType.In(numIn - 1).Elem()
			} else {
				paramType = fnType.In(j)
			}
			converted, err := convertArg(word, paramType)
			if err != nil {
				return Errorf("argument %d: %v", j+1, err)
			}
			callArgs[j] = converted
		}
		return convertResults(fnVal.Call(callArgs), fnType)
	}
}

// convertArg converts one script word to a Go value of the target type.
func convertArg(arg string, targetType reflect.Type) (reflect.Value, error) {
	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(arg), nil

	case reflect.Int:
		v, err := strconv.ParseInt(arg, 10, 0)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("expected integer but got %q", arg)
		}
		return reflect.ValueOf(int(v)), nil

	case reflect.Int64:
		v, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("expected integer but got %q", arg)
		}
		return reflect.ValueOf(v), nil

	case reflect.Float64:
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("expected number but got %q", arg)
		}
		return reflect.ValueOf(v), nil

	case reflect.Bool:
		switch strings.ToLower(arg) {
		case "1", "true", "yes", "on":
			return reflect.ValueOf(true), nil
		case "0", "false", "no", "off":
			return reflect.ValueOf(false), nil
		}
		return reflect.Value{}, fmt.Errorf("expected boolean but got %q", arg)

	case reflect.Slice:
		items, err := parseList(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		if targetType == reflect.TypeOf([]string(nil)) {
			return reflect.ValueOf(items), nil
		}
		slice := reflect.MakeSlice(targetType, len(items), len(items))
		for j, item := range items {
			converted, err := convertArg(item, targetType.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %v", j, err)
			}
			slice.Index(j).Set(converted)
		}
		return slice, nil

	case reflect.Interface:
		if targetType.NumMethod() == 0 {
			return reflect.ValueOf(arg), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot convert to interface %v", targetType)
	}
	return reflect.Value{}, fmt.Errorf("unsupported parameter type: %v", targetType)
}

// convertResults folds a wrapped function's return values into a Result.
// A trailing error return fails the command when non-nil; the remaining
// value converts with the rules of [OK].
func convertResults(results []reflect.Value, fnType reflect.Type) Result {
	if n := fnType.NumOut(); n > 0 && fnType.Out(n-1).Implements(errorType) {
		last := results[len(results)-1]
		if !last.IsNil() {
			return Error(last.Interface().(error).Error())
		}
		results = results[:len(results)-1]
	}
	if len(results) == 0 {
		return OK("")
	}
	r := results[0]
	if (r.Kind() == reflect.Ptr || r.Kind() == reflect.Interface) && r.IsNil() {
		return OK("")
	}
	return OK(scriptString(r.Interface()))
}
