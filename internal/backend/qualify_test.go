package backend

import "testing"

func TestQualify(t *testing.T) {
	t.Parallel()

	got, err := Qualify("clinical", "claims_drugs")
	if err != nil {
		t.Fatalf("Qualify: %v", err)
	}
	if got != "clinical.claims_drugs" {
		t.Fatalf("Qualify = %q", got)
	}
}

func TestQualify_Rejects(t *testing.T) {
	t.Parallel()

	bad := []struct{ schema, name string }{
		{"clin-ical", "members"},
		{"clinical", "members; DROP TABLE members"},
		{"", "members"},
		{"clinical", ""},
		{"clinical", `mem"bers`},
	}
	for _, c := range bad {
		if _, err := Qualify(c.schema, c.name); err == nil {
			t.Fatalf("Qualify(%q, %q) should fail", c.schema, c.name)
		}
	}
}
