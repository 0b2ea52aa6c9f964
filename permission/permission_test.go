package permission

import (
	"errors"
	"testing"
)

func TestParseSlug(t *testing.T) {
	cases := []struct {
		slug     string
		resource string
		action   string
		wantErr  bool
	}{
		{"products:manage", "products", "manage", false},
		{"supplier_financials:view", "supplier_financials", "view", false},
		{"noseparator", "", "", true},
		{":action", "", "", true},
		{"resource:", "", "", true},
		{"", "", "", true},
	}
	for _, tc := range cases {
		resource, action, err := ParseSlug(tc.slug)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidSlug) {
				t.Fatalf("%q: expected ErrInvalidSlug, got %v", tc.slug, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.slug, err)
		}
		if resource != tc.resource || action != tc.action {
			t.Fatalf("%q: got %s/%s", tc.slug, resource, action)
		}
	}
}

func TestValidSlug(t *testing.T) {
	if !ValidSlug("orders:view") {
		t.Fatal("expected valid")
	}
	if ValidSlug("orders") || ValidSlug("orders:") || ValidSlug(":view") {
		t.Fatal("expected invalid")
	}
	// Extra separators fold into the action part.
	if !ValidSlug("a:b:c") {
		t.Fatal("expected valid with embedded separator")
	}
}
