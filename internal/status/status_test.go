package status

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		assigned    bool
		stored      string
		wantName    string
		wantVariant Variant
	}{
		{"assigned overrides stale label", true, "In-Stock", "Deployed", VariantDefault},
		{"assigned overrides regardless of case", true, "deployed", "deployed", VariantDefault},
		{"assigned with matching label keeps it", true, "Deployed", "Deployed", VariantDefault},
		{"unassigned but labeled deployed becomes available", false, "Deployed", "Available", VariantSecondary},
		{"unassigned lowercase deployed becomes available", false, "DEPLOYED", "Available", VariantSecondary},
		{"unassigned in-stock passes through", false, "In-Stock", "In-Stock", VariantOutline},
		{"in-repair is destructive", false, "In-Repair", "In-Repair", VariantDestructive},
		{"retired is destructive", false, "Retired", "Retired", VariantDestructive},
		{"lost is destructive", false, "Lost", "Lost", VariantDestructive},
		{"available is secondary", false, "Available", "Available", VariantSecondary},
		{"active is default", false, "Active", "Active", VariantDefault},
		{"unknown label falls back to outline", false, "Quarantined", "Quarantined", VariantOutline},
		{"empty label is total", false, "", "", VariantOutline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.assigned, tt.stored)
			if got.Name != tt.wantName {
				t.Errorf("Resolve(%v, %q).Name = %q, want %q", tt.assigned, tt.stored, got.Name, tt.wantName)
			}
			if got.Variant != tt.wantVariant {
				t.Errorf("Resolve(%v, %q).Variant = %q, want %q", tt.assigned, tt.stored, got.Variant, tt.wantVariant)
			}
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	a := Resolve(true, "in-stock")
	b := Resolve(true, "in-stock")
	if a != b {
		t.Errorf("Resolve is not deterministic: %v != %v", a, b)
	}
}
