package errors

import (
	"fmt"

	"solspin/internal/ast"
)

// All fatal conditions abort generation with no partial output; a half-formed
// model would silently mis-verify. Each fatal kind carries enough context to
// point at the offending declaration.

// TranslationError is the common shape of every fatal engine error
type TranslationError struct {
	Code     string
	Message  string
	Position ast.Position
}

func (e *TranslationError) Error() string {
	if e.Position.Line > 0 {
		return fmt.Sprintf("%s[%s]: %s", e.Position, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s]: %s", e.Code, e.Message)
}

// UnsupportedConstructError reports an AST node outside the closed set of
// recognized shapes
type UnsupportedConstructError struct {
	TranslationError
	Construct string
}

// NewUnsupportedConstruct builds the fatal error for an unmapped node shape
func NewUnsupportedConstruct(construct string, pos ast.Position) *UnsupportedConstructError {
	return &UnsupportedConstructError{
		TranslationError: TranslationError{
			Code:     ErrorUnsupportedConstruct,
			Message:  fmt.Sprintf("no model mapping for %s", construct),
			Position: pos,
		},
		Construct: construct,
	}
}

// UnresolvedBoundError reports a dynamic array or mapping with neither a
// per-declaration bound nor a global default
type UnresolvedBoundError struct {
	TranslationError
	Declaration string
}

// NewUnresolvedBound builds the fatal error for an unbounded collection
func NewUnresolvedBound(declaration, collection string, pos ast.Position) *UnresolvedBoundError {
	return &UnresolvedBoundError{
		TranslationError: TranslationError{
			Code:     ErrorUnresolvedBound,
			Message:  fmt.Sprintf("%s %q has no configured bound", collection, declaration),
			Position: pos,
		},
		Declaration: declaration,
	}
}

// InvalidAgentConfigError reports an agent configuration that cannot drive
// synthesis: a non-positive agent count, a missing address, or an argument
// with an empty value domain
type InvalidAgentConfigError struct {
	TranslationError
}

// NewInvalidAgentConfig builds the fatal error for a rejected agent setup
func NewInvalidAgentConfig(format string, args ...interface{}) *InvalidAgentConfigError {
	return &InvalidAgentConfigError{
		TranslationError: TranslationError{
			Code:    ErrorInvalidAgentConfig,
			Message: fmt.Sprintf(format, args...),
		},
	}
}

// ConfigError reports a rejected configuration value outside agent synthesis
type ConfigError struct {
	TranslationError
}

func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{
		TranslationError: TranslationError{
			Code:    ErrorInvalidConfig,
			Message: fmt.Sprintf(format, args...),
		},
	}
}

// DomainError reports a value-domain expression that failed to parse
type DomainError struct {
	TranslationError
}

func NewDomainError(format string, args ...interface{}) *DomainError {
	return &DomainError{
		TranslationError: TranslationError{
			Code:    ErrorInvalidDomain,
			Message: fmt.Sprintf(format, args...),
		},
	}
}

// InputError reports a serialized tree the decoder could not understand
type InputError struct {
	TranslationError
}

func NewInputError(format string, args ...interface{}) *InputError {
	return &InputError{
		TranslationError: TranslationError{
			Code:    ErrorMalformedInput,
			Message: fmt.Sprintf(format, args...),
		},
	}
}
