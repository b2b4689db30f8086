package pathmap

import "fmt"

// TranslateError reports a transform failure, identifying the path and
// the key whose value was being rewritten.
type TranslateError struct {
	Path Path
	Key  any
	Err  error
}

func (e *TranslateError) Error() string {
	return fmt.Sprintf("pathmap: transform failed at %s key %v: %v", e.Path, e.Key, e.Err)
}

func (e *TranslateError) Unwrap() error {
	return e.Err
}
