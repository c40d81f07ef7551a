package credentials

import "testing"

func TestGenerateFamilyCode(t *testing.T) {
	tests := []struct {
		name        string
		iterations  int
		shouldMatch bool
	}{
		{
			name:       "generates code of correct shape",
			iterations: 100,
		},
		{
			name:        "generates unique codes",
			iterations:  50,
			shouldMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := make(map[string]bool)
			for i := 0; i < tt.iterations; i++ {
				code, err := GenerateFamilyCode()
				if err != nil {
					t.Fatalf("GenerateFamilyCode() error = %v", err)
				}

				if !IsFamilyCode(code) {
					t.Errorf("code %q is not a valid family code", code)
				}

				if !tt.shouldMatch {
					if codes[code] {
						t.Errorf("duplicate code generated: %s", code)
					}
					codes[code] = true
				}
			}
		})
	}
}

func TestNormalizeFamilyCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
		valid bool
	}{
		{" abcd1234efgh ", "ABCD1234EFGH", true},
		{"ABCD1234EFGH", "ABCD1234EFGH", true},
		{"short", "SHORT", false},
		{"abcd-234efgh", "ABCD-234EFGH", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeFamilyCode(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeFamilyCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if IsFamilyCode(got) != tt.valid {
				t.Errorf("IsFamilyCode(%q) = %v, want %v", got, !tt.valid, tt.valid)
			}
		})
	}
}
