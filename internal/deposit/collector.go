package deposit

import "github.com/iliyamo/spa-booking-deposits/internal/model"

// Step is the position of a Collector in the terms -> payment -> submitted flow.
type Step int

const (
	StepTerms Step = iota
	StepPayment
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepTerms:
		return "terms"
	case StepPayment:
		return "payment"
	case StepSubmitted:
		return "submitted"
	}
	return "unknown"
}

// Submission is what the collector hands to the persistence boundary once
// the customer confirms.
type Submission struct {
	Amount        int64
	Method        model.PaymentMethod
	TermsAccepted bool
	Proof         Proof
}

// Collector gathers terms acceptance and a proof of payment for one
// booking.  The terms step must be passed with an explicit acceptance
// before a proof can be attached, and Submit is only possible once a
// valid proof is present.
type Collector struct {
	step          Step
	total         int64
	deposit       int64
	remaining     int64
	maxProofBytes int64
	termsAccepted bool
	method        model.PaymentMethod
	proof         *Proof
}

// NewCollector computes the split for total at percent.
func NewCollector(total int64, percent int, maxProofBytes int64) (*Collector, error) {
	dep, rem, err := Split(total, percent)
	if err != nil {
		return nil, err
	}
	return &Collector{
		step:          StepTerms,
		total:         total,
		deposit:       dep,
		remaining:     rem,
		maxProofBytes: maxProofBytes,
		method:        model.MethodBankTransfer,
	}, nil
}

func (c *Collector) Step() Step { return c.step }

// Amounts returns the deposit and the remaining balance.
func (c *Collector) Amounts() (deposit, remaining int64) { return c.deposit, c.remaining }

// AcceptTerms advances to the payment step when accepted is true.
func (c *Collector) AcceptTerms(accepted bool) error {
	if c.step != StepTerms {
		return Conflict("terms already handled", ErrInvalidState)
	}
	if !accepted {
		return Validation("terms not accepted", ErrTermsRequired)
	}
	c.termsAccepted = true
	c.step = StepPayment
	return nil
}

// SetMethod selects the payment method; empty keeps bank transfer.
func (c *Collector) SetMethod(m model.PaymentMethod) error {
	if m == "" {
		return nil
	}
	if !m.Valid() {
		return Validation("unknown payment method "+string(m), nil)
	}
	c.method = m
	return nil
}

// AttachProof validates and records the proof.  A rejected proof leaves
// any previously attached proof in place.
func (c *Collector) AttachProof(p Proof) error {
	if c.step != StepPayment {
		return Validation("terms must be accepted before uploading proof", ErrTermsRequired)
	}
	if err := ValidateProof(p, c.maxProofBytes); err != nil {
		return err
	}
	c.proof = &p
	return nil
}

// CanConfirm mirrors the enabled state of the confirm action.
func (c *Collector) CanConfirm() bool {
	return c.step == StepPayment && c.termsAccepted && c.proof != nil
}

// Submit finalises the collector and returns the submission.
func (c *Collector) Submit() (Submission, error) {
	if c.step == StepSubmitted {
		return Submission{}, Conflict("deposit already submitted", ErrInvalidState)
	}
	if !c.termsAccepted {
		return Submission{}, Validation("terms not accepted", ErrTermsRequired)
	}
	if c.proof == nil {
		return Submission{}, Validation("missing proof", ErrProofMissing)
	}
	c.step = StepSubmitted
	return Submission{
		Amount:        c.deposit,
		Method:        c.method,
		TermsAccepted: true,
		Proof:         *c.proof,
	}, nil
}
