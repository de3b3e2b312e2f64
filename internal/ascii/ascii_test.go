package ascii

import "testing"

func TestValidateAcceptsPlainASCII(t *testing.T) {
	if err := Validate("HELLO, WORLD!"); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsNonASCII(t *testing.T) {
	if err := Validate("caf\xe9"); err == nil {
		t.Fatal("expected an error for a non-ASCII byte")
	}
}
