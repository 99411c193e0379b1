package deposit

import "strings"

// DefaultMaxProofBytes is the upload ceiling for payment proofs (5 MiB).
const DefaultMaxProofBytes int64 = 5 << 20

// Proof describes an uploaded proof-of-payment artifact before it is stored.
type Proof struct {
	Name        string
	ContentType string
	Size        int64
}

// ValidateProof checks size and type of a payment proof.  An empty proof is
// a validation failure; an oversized or unsupported one is an upload
// failure.  maxBytes <= 0 selects DefaultMaxProofBytes.
func ValidateProof(p Proof, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxProofBytes
	}
	if p.Size <= 0 {
		return Validation("missing proof", ErrProofMissing)
	}
	if p.Size > maxBytes {
		return Upload("proof too large", ErrProofTooLarge)
	}
	if !AllowedProofType(p.ContentType) {
		return Upload("unsupported proof type "+p.ContentType, ErrProofType)
	}
	return nil
}

// AllowedProofType accepts image/* and application/pdf, ignoring parameters.
func AllowedProofType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf"
}
