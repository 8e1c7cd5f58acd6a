// Package cmderr defines the typed errors produced while interpreting and
// running a frencli invocation.
//
// Every failure in the tokenizer, the combination validator, the config
// extractor and the pipeline executor is reported as an *Error carrying a
// Kind. Nothing below the top-level handler terminates the process; the
// handler in cmd/frencli maps the error to an exit code with ExitCode.
package cmderr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// KindParse is a malformed token stream (rejected short flag, unknown flag).
	KindParse Kind = iota + 1
	// KindCombination is an illegal mix of subcommands.
	KindCombination
	// KindConfig is a missing or malformed mandatory field.
	KindConfig
	// KindDependency is a stage run without the artifact it needs.
	KindDependency
	// KindCollaborator is a failure surfaced from a collaborator call.
	KindCollaborator
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindCombination:
		return "CombinationError"
	case KindConfig:
		return "ConfigError"
	case KindDependency:
		return "PipelineDependencyError"
	case KindCollaborator:
		return "CollaboratorError"
	default:
		return "UnknownError"
	}
}

// Exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Error is a classified frencli error.
type Error struct {
	Kind Kind
	// Stage names the pipeline stage for dependency and collaborator errors.
	Stage   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	if e.Stage != "" {
		return fmt.Sprintf("%s: %s", e.Stage, msg)
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Stage == "" && t.Err == nil
}

// Sentinels usable with errors.Is to test only the kind.
var (
	ErrParse        = &Error{Kind: KindParse}
	ErrCombination  = &Error{Kind: KindCombination}
	ErrConfig       = &Error{Kind: KindConfig}
	ErrDependency   = &Error{Kind: KindDependency}
	ErrCollaborator = &Error{Kind: KindCollaborator}
)

// Parsef returns a ParseError.
func Parsef(format string, args ...any) *Error {
	return &Error{Kind: KindParse, Message: fmt.Sprintf(format, args...)}
}

// Combinationf returns a CombinationError.
func Combinationf(format string, args ...any) *Error {
	return &Error{Kind: KindCombination, Message: fmt.Sprintf(format, args...)}
}

// Configf returns a ConfigError.
func Configf(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// Dependency returns a PipelineDependencyError for stage.
func Dependency(stage, message string) *Error {
	return &Error{Kind: KindDependency, Stage: stage, Message: message}
}

// Collaborator wraps err as a CollaboratorError for stage. An err that is
// already an *Error keeps its kind and only gains the stage when it has none.
func Collaborator(stage string, err error) error {
	if err == nil {
		return nil
	}

	var ce *Error
	if errors.As(err, &ce) {
		if ce.Stage == "" {
			copied := *ce
			copied.Stage = stage
			return &copied
		}
		return err
	}

	return &Error{Kind: KindCollaborator, Stage: stage, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitFailure
}
