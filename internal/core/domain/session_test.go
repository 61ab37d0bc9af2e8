package domain

import "testing"

func TestValidateAuthnContextComparison(t *testing.T) {
	for _, valid := range []string{"", "exact", "minimum", "maximum", "better"} {
		if err := ValidateAuthnContextComparison(valid); err != nil {
			t.Errorf("ValidateAuthnContextComparison(%q) = %v, want nil", valid, err)
		}
	}

	for _, invalid := range []string{"Exact", "strict", "best", "approximate"} {
		if err := ValidateAuthnContextComparison(invalid); err == nil {
			t.Errorf("ValidateAuthnContextComparison(%q) should fail", invalid)
		}
	}
}
