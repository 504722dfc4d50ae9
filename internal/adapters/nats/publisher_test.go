package natsadapter

import "testing"

func TestSubjectToken(t *testing.T) {
	tests := map[string]string{
		"Quellón":                 "quell_n",
		"Puerto Montt":            "puerto_montt",
		"rect[-43.1500,-43.0500]": "rect_-43_1500_-43_0500_",
		"":                        "_",
		"  Castro ":               "castro",
	}
	for in, want := range tests {
		if got := SubjectToken(in); got != want {
			t.Errorf("SubjectToken(%q) = %q, want %q", in, got, want)
		}
	}
}
