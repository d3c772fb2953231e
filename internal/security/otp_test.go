package security

import (
	"testing"
)

func TestGenerateOTPCode(t *testing.T) {
	t.Run("correct length and digits only", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code, err := GenerateOTPCode()
			if err != nil {
				t.Fatalf("GenerateOTPCode() error = %v", err)
			}
			if len(code) != OTPLength {
				t.Errorf("code length = %d, want %d", len(code), OTPLength)
			}
			for _, c := range code {
				if c < '0' || c > '9' {
					t.Errorf("code %q contains non-digit %q", code, c)
				}
			}
		}
	})

	t.Run("codes vary", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			code, err := GenerateOTPCode()
			if err != nil {
				t.Fatalf("GenerateOTPCode() error = %v", err)
			}
			seen[code] = true
		}
		// 50 draws from a million-value space should essentially never
		// collapse to a handful of values
		if len(seen) < 40 {
			t.Errorf("only %d distinct codes in 50 draws", len(seen))
		}
	})
}

func TestCodesEqual(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{name: "equal codes", a: "123456", b: "123456", want: true},
		{name: "different codes", a: "123456", b: "654321", want: false},
		{name: "different lengths", a: "123456", b: "12345", want: false},
		{name: "both empty", a: "", b: "", want: true},
		{name: "one empty", a: "123456", b: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := CodesEqual(tt.a, tt.b); result != tt.want {
				t.Errorf("CodesEqual(%q, %q) = %v, want %v", tt.a, tt.b, result, tt.want)
			}
		})
	}
}
