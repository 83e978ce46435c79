// Package consensuserr classifies consensus-layer failures into the
// error-kind taxonomy: Crypto, Validation, Orphaned,
// AttestationInvalid, Validator, State, and Internal.
//
// Grounded on beacon-chain/blockchain/error.go's invalidBlock marker
// type: a thin wrapper embedding the underlying error plus enough
// structured context (here, a Kind) for callers
// to branch on failure class via a predicate function rather than a
// type switch on concrete error types, and github.com/pkg/errors for
// wrapping/unwrapping.
package consensuserr

import "github.com/pkg/errors"

// Kind classifies why an operation failed
type Kind int

const (
	// KindInternal covers failures with no more specific classification
	// (storage I/O, programmer invariants).
	KindInternal Kind = iota
	// KindCrypto covers signature or hash verification failures.
	KindCrypto
	// KindValidation covers malformed or rule-violating blocks.
	KindValidation
	// KindOrphaned covers blocks whose parent has not yet been seen.
	KindOrphaned
	// KindAttestationInvalid covers malformed or unverifiable
	// attestations.
	KindAttestationInvalid
	// KindValidator covers validator-set operations (unknown address,
	// insufficient stake, already slashed).
	KindValidator
	// KindState covers the state engine failing to apply a block or
	// producing a state root that does not match the block header.
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindCrypto:
		return "crypto"
	case KindValidation:
		return "validation"
	case KindOrphaned:
		return "orphaned"
	case KindAttestationInvalid:
		return "attestation_invalid"
	case KindValidator:
		return "validator"
	case KindState:
		return "state"
	default:
		return "internal"
	}
}

// classifiedError satisfies error and carries a Kind alongside the
// wrapped cause.
type classifiedError struct {
	cause error
	kind  Kind
}

func (e *classifiedError) Error() string { return e.cause.Error() }
func (e *classifiedError) Unwrap() error { return e.cause }

// classifiedErrorIface lets callers recover the Kind of any wrapped
// error without a concrete type assertion on classifiedError itself.
type classifiedErrorIface interface {
	error
	ErrorKind() Kind
}

func (e *classifiedError) ErrorKind() Kind { return e.kind }

// Wrap annotates err with kind and a message, following pkg/errors'
// Wrap convention of prefixing the message onto the cause's text.
func Wrap(err error, kind Kind, message string) error {
	if err == nil {
		return nil
	}
	return &classifiedError{cause: errors.Wrap(err, message), kind: kind}
}

// New constructs a fresh classified error from a message, with no
// underlying cause.
func New(kind Kind, message string) error {
	return &classifiedError{cause: errors.New(message), kind: kind}
}

// ClassOf walks err's Unwrap chain looking for a classified error and
// returns its Kind, defaulting to KindInternal if none is found.
func ClassOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var c classifiedErrorIface
	for e := err; e != nil; e = errors.Unwrap(e) {
		if ce, ok := e.(classifiedErrorIface); ok {
			c = ce
			break
		}
	}
	if c == nil {
		return KindInternal
	}
	return c.ErrorKind()
}

// Is reports whether err is, or wraps, an error of the given kind.
func Is(err error, kind Kind) bool {
	return ClassOf(err) == kind
}
