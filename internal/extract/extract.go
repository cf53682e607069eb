// Package extract pulls a JSON object out of free-form model output.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParse is matched by every ParseError.
var ErrParse = errors.New("no JSON object found in model response")

// ParseError reports a response that could not be turned into an object.
type ParseError struct {
	Response string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return ErrParse.Error()
	}
	return fmt.Sprintf("%s: %v", ErrParse.Error(), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParse) hold for any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Object parses raw model output into an untyped object. It first tries the
// span from the first '{' to the last '}', which covers prose and code-fence
// wrapping, then the trimmed response as a whole.
func Object(raw string) (map[string]any, error) {
	var spanErr error

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		obj, err := decode(raw[start : end+1])
		if err == nil {
			return obj, nil
		}
		spanErr = err
	}

	obj, err := decode(strings.TrimSpace(raw))
	if err == nil {
		return obj, nil
	}

	if spanErr != nil {
		err = spanErr
	}
	return nil, &ParseError{Response: raw, Err: err}
}

func decode(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("response is not a JSON object")
	}
	return obj, nil
}
