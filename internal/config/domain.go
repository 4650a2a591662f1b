package config

import (
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"solspin/internal/errors"
)

// Value domains are written in a small expression language:
//
//	{0,1,2}     explicit finite set
//	1..5        inclusive numeric range
//	7           singleton
//
// Integers may be decimal or 0x-prefixed hex.

var domainLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `0x[0-9a-fA-F]+|[0-9]+`},
	{Name: "Range", Pattern: `\.\.`},
	{Name: "Punct", Pattern: `[{},]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

type domainExpr struct {
	Set  *setExpr  `  @@`
	Span *spanExpr `| @@`
}

type setExpr struct {
	Values []string `"{" @Int ("," @Int)* "}"`
}

type spanExpr struct {
	Lo string  `@Int`
	Hi *string `(Range @Int)?`
}

var domainParser = participle.MustBuild[domainExpr](
	participle.Lexer(domainLexer),
	participle.Elide("Whitespace"),
)

// rangeLimit caps range expansion; a wider range would blow up the agent
// choice structure far beyond anything a checker can explore
const rangeLimit = 1 << 12

// Domain is a resolved finite value set, in declaration order
type Domain struct {
	Values []int
}

// Empty reports whether the domain offers no choice at all
func (d Domain) Empty() bool {
	return len(d.Values) == 0
}

// ParseDomain parses one domain expression into its finite value set
func ParseDomain(expr string) (Domain, error) {
	parsed, err := domainParser.ParseString("", expr)
	if err != nil {
		return Domain{}, errors.NewDomainError("cannot parse domain %q: %v", expr, err)
	}

	switch {
	case parsed.Set != nil:
		values := make([]int, 0, len(parsed.Set.Values))
		for _, raw := range parsed.Set.Values {
			v, err := parseDomainInt(raw)
			if err != nil {
				return Domain{}, err
			}
			values = append(values, v)
		}
		return Domain{Values: values}, nil

	case parsed.Span != nil:
		lo, err := parseDomainInt(parsed.Span.Lo)
		if err != nil {
			return Domain{}, err
		}
		if parsed.Span.Hi == nil {
			return Domain{Values: []int{lo}}, nil
		}
		hi, err := parseDomainInt(*parsed.Span.Hi)
		if err != nil {
			return Domain{}, err
		}
		if hi < lo {
			return Domain{}, errors.NewDomainError("range %q is empty: upper bound below lower bound", expr)
		}
		if hi-lo+1 > rangeLimit {
			return Domain{}, errors.NewDomainError("range %q spans %d values; limit is %d", expr, hi-lo+1, rangeLimit)
		}
		values := make([]int, 0, hi-lo+1)
		for v := lo; v <= hi; v++ {
			values = append(values, v)
		}
		return Domain{Values: values}, nil
	}

	return Domain{}, errors.NewDomainError("domain %q has no values", expr)
}

func parseDomainInt(raw string) (int, error) {
	v, err := strconv.ParseInt(raw, 0, 64)
	if err != nil {
		return 0, errors.NewDomainError("bad integer %q in domain", raw)
	}
	return int(v), nil
}
