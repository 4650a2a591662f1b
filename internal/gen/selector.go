package gen

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"solspin/internal/ir"
	"solspin/internal/types"
)

// CanonicalSignature renders a function's selector signature from its
// resolved parameter types, e.g. "transfer(address,uint64)". Widths reflect
// the model's descriptors, so a narrowed integer signs as its narrowed type.
func CanonicalSignature(fn *ir.FunctionSignature) string {
	parts := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		parts[i] = canonicalTypeName(p.Type)
	}
	return fmt.Sprintf("%s(%s)", fn.Name, strings.Join(parts, ","))
}

func canonicalTypeName(d *types.Descriptor) string {
	switch d.Kind {
	case types.FixedInt:
		if d.Signed {
			return fmt.Sprintf("int%d", d.Bits)
		}
		return fmt.Sprintf("uint%d", d.Bits)
	case types.Bool:
		return "bool"
	case types.Address:
		return "address"
	case types.Enum:
		return "uint8"
	case types.FixedString:
		return "string"
	}
	return d.String()
}

// Selector hashes the canonical signature with keccak-256 and folds the
// first four bytes into a PROMELA int constant. The value only needs to
// be stable and collision-resistant within one model; negative constants
// are parenthesized so they substitute cleanly.
func Selector(fn *ir.FunctionSignature) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(CanonicalSignature(fn)))
	sum := h.Sum(nil)
	v := int32(binary.BigEndian.Uint32(sum[:4]))
	if v < 0 {
		return fmt.Sprintf("(%d)", v)
	}
	return fmt.Sprintf("%d", v)
}
