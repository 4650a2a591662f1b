package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter handles consistent error formatting for the driver. The engine
// works from an already-parsed tree, so there is no source text to excerpt;
// the report carries the code, the location and the code's description.
type Reporter struct {
	filename string
}

// NewReporter creates a reporter for one input file
func NewReporter(filename string) *Reporter {
	return &Reporter{filename: filename}
}

// Format renders a fatal error with Rust-like styling
func (r *Reporter) Format(err error) string {
	var result strings.Builder

	bold := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	help := color.New(color.FgGreen).SprintFunc()

	var te *TranslationError
	if !asTranslationError(err, &te) {
		result.WriteString(fmt.Sprintf("%s: %s\n", bold("error"), err.Error()))
		return result.String()
	}

	result.WriteString(fmt.Sprintf("%s[%s]: %s\n", bold("error"), te.Code, te.Message))

	if te.Position.Line > 0 {
		file := te.Position.File
		if file == "" {
			file = r.filename
		}
		result.WriteString(fmt.Sprintf("  %s %s:%d:%d\n",
			dim("-->"), file, te.Position.Line, te.Position.Column))
	} else if r.filename != "" {
		result.WriteString(fmt.Sprintf("  %s %s\n", dim("-->"), r.filename))
	}

	if desc := GetErrorDescription(te.Code); desc != "Unknown error code" {
		result.WriteString(fmt.Sprintf("  %s %s\n", help("help:"), desc))
	}

	return result.String()
}

// asTranslationError unwraps the concrete fatal kinds down to their shared
// TranslationError core
func asTranslationError(err error, out **TranslationError) bool {
	var (
		unsupported *UnsupportedConstructError
		unresolved  *UnresolvedBoundError
		agent       *InvalidAgentConfigError
		config      *ConfigError
		domain      *DomainError
		input       *InputError
		plain       *TranslationError
	)
	switch {
	case errors.As(err, &unsupported):
		*out = &unsupported.TranslationError
	case errors.As(err, &unresolved):
		*out = &unresolved.TranslationError
	case errors.As(err, &agent):
		*out = &agent.TranslationError
	case errors.As(err, &config):
		*out = &config.TranslationError
	case errors.As(err, &domain):
		*out = &domain.TranslationError
	case errors.As(err, &input):
		*out = &input.TranslationError
	case errors.As(err, &plain):
		*out = plain
	default:
		return false
	}
	return true
}
