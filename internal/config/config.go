package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"solspin/internal/errors"
)

// OverflowPolicy selects what a push or insert does when a bounded
// collection is already full
type OverflowPolicy string

const (
	// OverflowReject blocks the transition entirely; the full collection
	// makes the push a dead branch of the search tree
	OverflowReject OverflowPolicy = "reject"

	// OverflowSaturate drops the value and continues
	OverflowSaturate OverflowPolicy = "saturate"
)

// DefaultOverflowPolicy is the policy applied when the configuration does
// not choose one; choosing the other is itself recorded in the ledger
const DefaultOverflowPolicy = OverflowReject

var supportedWidths = map[int]bool{8: true, 16: true, 32: true, 64: true}

// Config is the full configuration surface consumed by the engine. File
// loading stays at the driver boundary; every stage works from this struct.
type Config struct {
	// IntWidthFallback is the width integers outside {8,16,32,64} are
	// narrowed to; every such narrowing produces a ledger record
	IntWidthFallback int `yaml:"intWidthFallback"`

	// DynamicArrayMaxLen is the global default bound for dynamic arrays;
	// 0 means no default
	DynamicArrayMaxLen int `yaml:"dynamicArrayMaxLen"`

	// ArrayBounds overrides the array bound per declaration name
	ArrayBounds map[string]int `yaml:"arrayBounds"`

	// MappingMaxEntries is the global default bound for mappings; 0 means
	// no default
	MappingMaxEntries int `yaml:"mappingMaxEntries"`

	// MappingBounds overrides the mapping bound per declaration name
	MappingBounds map[string]int `yaml:"mappingBounds"`

	// StringMaxBytes bounds the fixed-width representation of string state
	StringMaxBytes int `yaml:"stringMaxBytes"`

	// LoopBound is the maximum iteration count applied to loops with no
	// statically provable bound
	LoopBound int `yaml:"loopBound"`

	// CallDepth bounds inline expansion of internal function calls;
	// expansions cut off at this depth are recorded in the ledger
	CallDepth int `yaml:"callDepth"`

	// ArrayOverflowPolicy applies uniformly to every bounded collection
	ArrayOverflowPolicy OverflowPolicy `yaml:"arrayOverflowPolicy"`

	// AgentCount is the number of synthesized caller processes
	AgentCount int `yaml:"agentCount"`

	// AgentAddresses assigns one fixed address per agent
	AgentAddresses []int `yaml:"agentAddresses"`

	// ValueDomains maps "function:argIndex" to a domain expression such
	// as "{0,1,2}" or "1..5"
	ValueDomains map[string]string `yaml:"valueDomains"`

	// DifficultyDomain is the domain block.difficulty is drawn from
	DifficultyDomain string `yaml:"difficultyDomain"`

	// GasLimit derives the exploration depth hint; it is never enforced
	// at generation time
	GasLimit int `yaml:"gasLimit"`

	// TxGasPrice is emitted as a fixed constant
	TxGasPrice int `yaml:"txGasPrice"`
}

// Default returns the project-wide defaults a partial configuration is
// merged over
func Default() *Config {
	return &Config{
		IntWidthFallback:    64,
		DynamicArrayMaxLen:  4,
		MappingMaxEntries:   4,
		StringMaxBytes:      8,
		LoopBound:           8,
		CallDepth:           4,
		ArrayOverflowPolicy: DefaultOverflowPolicy,
		AgentCount:          2,
		AgentAddresses:      []int{1, 2},
		DifficultyDomain:    "{0,1}",
		GasLimit:            30000,
		TxGasPrice:          0,
	}
}

// Load parses a YAML configuration over the defaults
func Load(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("configuration is not valid YAML: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values outside their allowed domains. Agent-specific
// checks that need contract knowledge happen later, before synthesis.
func (c *Config) Validate() error {
	if !supportedWidths[c.IntWidthFallback] {
		return errors.NewConfigError("intWidthFallback must be one of 8, 16, 32, 64; got %d", c.IntWidthFallback)
	}
	if c.LoopBound < 1 {
		return errors.NewConfigError("loopBound must be positive; got %d", c.LoopBound)
	}
	if c.CallDepth < 1 {
		return errors.NewConfigError("callDepth must be positive; got %d", c.CallDepth)
	}
	if c.StringMaxBytes < 1 {
		return errors.NewConfigError("stringMaxBytes must be positive; got %d", c.StringMaxBytes)
	}
	switch c.ArrayOverflowPolicy {
	case OverflowReject, OverflowSaturate:
	default:
		return errors.NewConfigError("arrayOverflowPolicy must be %q or %q; got %q",
			OverflowReject, OverflowSaturate, c.ArrayOverflowPolicy)
	}
	if c.GasLimit < 0 {
		return errors.NewConfigError("gasLimit must not be negative; got %d", c.GasLimit)
	}
	// collection cursors and length fields are byte-typed in the
	// generated model, so bounds past 255 would wrap
	if c.DynamicArrayMaxLen > 255 {
		return errors.NewConfigError("dynamicArrayMaxLen must not exceed 255; got %d", c.DynamicArrayMaxLen)
	}
	if c.MappingMaxEntries > 255 {
		return errors.NewConfigError("mappingMaxEntries must not exceed 255; got %d", c.MappingMaxEntries)
	}
	for decl, bound := range c.ArrayBounds {
		if bound < 1 || bound > 255 {
			return errors.NewConfigError("array bound for %q must be between 1 and 255; got %d", decl, bound)
		}
	}
	for decl, bound := range c.MappingBounds {
		if bound < 1 || bound > 255 {
			return errors.NewConfigError("mapping bound for %q must be between 1 and 255; got %d", decl, bound)
		}
	}
	return nil
}

// ArrayBound resolves the bound for one array declaration: per-declaration
// first, then the global default. ok is false when neither exists.
func (c *Config) ArrayBound(decl string) (int, bool) {
	if b, ok := c.ArrayBounds[decl]; ok {
		return b, true
	}
	if c.DynamicArrayMaxLen > 0 {
		return c.DynamicArrayMaxLen, true
	}
	return 0, false
}

// MappingBound resolves the bound for one mapping declaration
func (c *Config) MappingBound(decl string) (int, bool) {
	if b, ok := c.MappingBounds[decl]; ok {
		return b, true
	}
	if c.MappingMaxEntries > 0 {
		return c.MappingMaxEntries, true
	}
	return 0, false
}

// ArgumentDomain resolves the configured value domain for one
// (function, argument index) pair
func (c *Config) ArgumentDomain(function string, arg int) (Domain, bool, error) {
	expr, ok := c.ValueDomains[domainKey(function, arg)]
	if !ok {
		return Domain{}, false, nil
	}
	dom, err := ParseDomain(expr)
	if err != nil {
		return Domain{}, true, err
	}
	return dom, true, nil
}

// ParseDifficultyDomain parses the configured block.difficulty domain
func (c *Config) ParseDifficultyDomain() (Domain, error) {
	dom, err := ParseDomain(c.DifficultyDomain)
	if err != nil {
		return Domain{}, errors.NewConfigError("difficultyDomain: %v", err)
	}
	return dom, nil
}

func domainKey(function string, arg int) string {
	return fmt.Sprintf("%s:%d", function, arg)
}

// SetArgumentDomain installs a domain expression for tests and programmatic
// callers
func (c *Config) SetArgumentDomain(function string, arg int, expr string) {
	if c.ValueDomains == nil {
		c.ValueDomains = make(map[string]string)
	}
	c.ValueDomains[domainKey(function, arg)] = expr
}
