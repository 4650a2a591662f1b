package errors

// Error codes for the translation engine.
// These codes are used in error messages and documentation
// to provide consistent error identification across the toolchain.
//
// Error code ranges:
// E0100-E0199: Translation errors (fatal, generation aborts)
// E0200-E0299: Configuration errors
// E0300-E0399: Input/decoding errors
const (
	// E0100: AST node with no defined PROMELA mapping
	ErrorUnsupportedConstruct = "E0100"

	// E0101: Dynamic array or mapping with no explicit or default bound
	ErrorUnresolvedBound = "E0101"

	// E0102: Agent configuration rejected before synthesis
	ErrorInvalidAgentConfig = "E0102"

	// E0200: Configuration value outside its allowed domain
	ErrorInvalidConfig = "E0200"

	// E0201: Value-domain expression failed to parse
	ErrorInvalidDomain = "E0201"

	// E0300: Serialized AST could not be decoded
	ErrorMalformedInput = "E0300"
)

// GetErrorDescription returns a human-readable description of the error code
func GetErrorDescription(code string) string {
	switch code {
	case ErrorUnsupportedConstruct:
		return "Source construct has no defined mapping into the model"
	case ErrorUnresolvedBound:
		return "Dynamic collection has no configured finite bound"
	case ErrorInvalidAgentConfig:
		return "Agent configuration is incomplete or inconsistent"
	case ErrorInvalidConfig:
		return "Configuration value is outside its allowed domain"
	case ErrorInvalidDomain:
		return "Value-domain expression could not be parsed"
	case ErrorMalformedInput:
		return "Serialized contract tree could not be decoded"
	default:
		return "Unknown error code"
	}
}

// GetErrorCategory returns the category of the error based on its code
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0100" && code < "E0200":
		return "Translation"
	case code >= "E0200" && code < "E0300":
		return "Configuration"
	case code >= "E0300" && code < "E0400":
		return "Input"
	default:
		return "Unknown"
	}
}
