package restkit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ByQueryParam continues while the page carries a truthy value at field,
// sending that value as the query parameter param. Field may be a dotted
// path such as "meta.next".
func ByQueryParam[T any](field, param string) Continuation[T] {
	return func(page T, _ Params) (Params, error) {
		value, ok := lookupField(toGeneric(page), field)
		if !ok || !truthy(value) {
			return nil, nil
		}

		return Params{param: formatValue(value)}, nil
	}
}

// ByOffset continues while pages are full. The array at itemsField is the
// page content; the next offset is the previous offset plus its length.
func ByOffset[T any](param string, pageSize int, itemsField string) Continuation[T] {
	return func(page T, prev Params) (Params, error) {
		value, ok := lookupField(toGeneric(page), itemsField)
		if !ok || value == nil {
			return nil, nil
		}

		items, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s is %T, not a list", ErrPageField, itemsField, value)
		}

		if len(items) == 0 || len(items) < pageSize {
			return nil, nil
		}

		offset := 0
		if raw, found := prev[param]; found && raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %s=%q", ErrPageField, param, raw)
			}

			offset = parsed
		}

		return Params{param: strconv.Itoa(offset + len(items))}, nil
	}
}

// ByExpression compiles an expr-lang expression evaluated after every page.
// The environment holds page (the decoded page) and params (the previous
// parameters). The result must be a map of the next parameters, or nil or
// false to stop:
//
//	page.nextPage != nil ? {"page": page.nextPage} : nil
func ByExpression[T any](source string) (Continuation[T], error) {
	program, err := compileContinuation(source)
	if err != nil {
		return nil, err
	}

	return func(page T, prev Params) (Params, error) {
		env := map[string]any{
			"page":   toGeneric(page),
			"params": map[string]string(prev),
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("evaluating continuation %q: %w", source, err)
		}

		return resultParams(result)
	}, nil
}

func compileContinuation(source string) (*vm.Program, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrInvalidContinuation)
	}

	program, err := expr.Compile(source, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compiling continuation %q: %w", source, err)
	}

	return program, nil
}

func resultParams(result any) (Params, error) {
	switch value := result.(type) {
	case nil:
		return nil, nil
	case bool:
		if !value {
			return nil, nil
		}
	case map[string]string:
		return Params(value), nil
	case map[string]any:
		params := make(Params, len(value))
		for key, v := range value {
			if v == nil {
				continue
			}

			params[key] = formatValue(v)
		}

		return params, nil
	}

	return nil, fmt.Errorf("%w: got %T", ErrInvalidContinuation, result)
}

// toGeneric returns page as decoded JSON values so fields can be looked up
// regardless of the response handler in use.
func toGeneric(page any) any {
	switch value := page.(type) {
	case nil, map[string]any, []any:
		return value
	case *Response:
		if value == nil || len(value.Body) == 0 {
			return nil
		}

		var decoded any
		if json.Unmarshal(value.Body, &decoded) != nil {
			return nil
		}

		return decoded
	}

	raw, err := json.Marshal(page)
	if err != nil {
		return nil
	}

	var decoded any
	if json.Unmarshal(raw, &decoded) != nil {
		return nil
	}

	return decoded
}

func lookupField(value any, path string) (any, bool) {
	current := value

	for _, key := range strings.Split(path, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = object[key]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
