package recipe

import "errors"

// Error kinds reported by the lifecycle hooks. They are matched with
// errors.Is; the tool's own error stays reachable through errors.As.
var (
	ErrManifestRead = errors.New("manifest read failed")
	ErrGenerate     = errors.New("generate failed")
	ErrConfigure    = errors.New("configure failed")
	ErrBuild        = errors.New("build failed")
	ErrTest         = errors.New("test failed")
	ErrInstall      = errors.New("install failed")
)

// Error records a failed lifecycle step.
type Error struct {
	Kind error  // one of the Err* kinds above
	Op   string // step or file the failure belongs to
	Err  error  // underlying error, unmodified
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Kind.Error() + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the underlying error.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Wrap returns an *Error of the given kind, or nil if err is nil.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
