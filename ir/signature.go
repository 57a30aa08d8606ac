package ir

import (
	"fmt"
	"strings"
)

// SignatureID is the unique identifier of a Signature within a compiled
// function, used by call instructions instead of embedding the *Signature
// pointer directly so instructions stay comparable/serializable.
type SignatureID uint32

// String implements fmt.Stringer.
func (s SignatureID) String() string {
	return fmt.Sprintf("sig%d", uint32(s))
}

// FuncRef identifies a callee in a direct call, opaque to the IR itself;
// the frontend and backend agree on what it indexes (e.g. a module's
// function index space).
type FuncRef uint32

// String implements fmt.Stringer.
func (f FuncRef) String() string {
	return fmt.Sprintf("f%d", uint32(f))
}

// Signature represents a function signature that's used for two purposes:
//
//  1. To specify the parameter/result types of a function that's called
//     indirectly via OpcodeCall or OpcodeCallIndirect.
//  2. As part of the currently-compiled function itself, set via Builder.Init.
//
// All Signatures referenced by a compiled function must be registered via
// Builder.DeclareSignature before they're used by any instruction.
type Signature struct {
	// ID is the unique identifier of this signature, referenced by
	// instructions' encoded SignatureID operand.
	ID SignatureID
	// Params and Results are the value types of the function's parameters
	// and results, in order.
	Params, Results []Type

	// used is set once an instruction referencing this Signature is
	// constructed (AsCall, AsCallIndirect); UsedSignatures only returns
	// signatures actually referenced by the compiled function, so that,
	// e.g., a backend doesn't need to emit metadata for declared-but-dead
	// signatures.
	used bool
}

// String implements fmt.Stringer.
func (s *Signature) String() string {
	str := strings.Builder{}
	str.WriteString(s.ID.String())
	str.WriteString(": ")
	str.WriteByte('(')
	for i, t := range s.Params {
		if i > 0 {
			str.WriteByte(',')
		}
		str.WriteString(t.String())
	}
	str.WriteString(")->(")
	for i, t := range s.Results {
		if i > 0 {
			str.WriteByte(',')
		}
		str.WriteString(t.String())
	}
	str.WriteByte(')')
	return str.String()
}
