package deposit

import (
	"errors"
	"testing"

	"github.com/iliyamo/spa-booking-deposits/internal/model"
)

func TestCollectorHappyPath(t *testing.T) {
	c, err := NewCollector(500_000, 30, 0)
	if err != nil {
		t.Fatalf("new collector: %v", err)
	}
	if dep, rem := c.Amounts(); dep != 150_000 || rem != 350_000 {
		t.Fatalf("amounts = %d/%d", dep, rem)
	}
	if c.Step() != StepTerms {
		t.Fatalf("step = %s, want terms", c.Step())
	}
	if err := c.AcceptTerms(true); err != nil {
		t.Fatalf("accept terms: %v", err)
	}
	if c.CanConfirm() {
		t.Fatal("confirm must stay disabled until a proof is attached")
	}
	if err := c.SetMethod(model.MethodEWallet); err != nil {
		t.Fatalf("set method: %v", err)
	}
	if err := c.AttachProof(Proof{Name: "proof.jpg", ContentType: "image/jpeg", Size: 2 << 20}); err != nil {
		t.Fatalf("attach proof: %v", err)
	}
	if !c.CanConfirm() {
		t.Fatal("confirm should be enabled")
	}
	sub, err := c.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Amount != 150_000 || sub.Method != model.MethodEWallet || !sub.TermsAccepted {
		t.Errorf("unexpected submission %+v", sub)
	}
	if c.Step() != StepSubmitted {
		t.Errorf("step = %s, want submitted", c.Step())
	}
	if _, err := c.Submit(); KindOf(err) != KindConflict {
		t.Errorf("second submit should conflict, got %v", err)
	}
}

func TestCollectorRequiresTerms(t *testing.T) {
	c, _ := NewCollector(100_000, 30, 0)
	if err := c.AcceptTerms(false); !errors.Is(err, ErrTermsRequired) {
		t.Fatalf("expected ErrTermsRequired, got %v", err)
	}
	err := c.AttachProof(Proof{Name: "a.pdf", ContentType: "application/pdf", Size: 10})
	if !errors.Is(err, ErrTermsRequired) {
		t.Fatalf("proof before terms should fail, got %v", err)
	}
	if _, err := c.Submit(); KindOf(err) != KindValidation {
		t.Fatalf("submit without terms should be a validation error, got %v", err)
	}
}

func TestCollectorProofValidation(t *testing.T) {
	tests := []struct {
		name  string
		proof Proof
		kind  Kind
		is    error
	}{
		{"empty", Proof{Name: "x.jpg", ContentType: "image/jpeg"}, KindValidation, ErrProofMissing},
		{"six megabytes", Proof{Name: "x.jpg", ContentType: "image/jpeg", Size: 6 << 20}, KindUpload, ErrProofTooLarge},
		{"wrong type", Proof{Name: "x.zip", ContentType: "application/zip", Size: 100}, KindUpload, ErrProofType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := NewCollector(100_000, 30, 0)
			_ = c.AcceptTerms(true)
			err := c.AttachProof(tt.proof)
			if KindOf(err) != tt.kind || !errors.Is(err, tt.is) {
				t.Fatalf("got %v, want kind %s wrapping %v", err, tt.kind, tt.is)
			}
			if c.CanConfirm() {
				t.Fatal("confirm must stay disabled after a rejected proof")
			}
		})
	}
}

func TestAllowedProofType(t *testing.T) {
	ok := []string{"image/png", "image/jpeg", "IMAGE/WEBP", "application/pdf", "application/pdf; charset=binary"}
	for _, ct := range ok {
		if !AllowedProofType(ct) {
			t.Errorf("%q should be allowed", ct)
		}
	}
	bad := []string{"", "text/plain", "application/zip", "video/mp4"}
	for _, ct := range bad {
		if AllowedProofType(ct) {
			t.Errorf("%q should be rejected", ct)
		}
	}
}
