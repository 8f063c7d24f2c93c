// Package status derives the logical display status of an asset from its
// assignment state, independent of the stored status label. The stored label
// can drift from reality (e.g. an assigned asset still labeled "In-Stock");
// the resolver keeps UI and business logic consistent regardless.
package status

import "strings"

// Well-known status label names.
const (
	Deployed  = "Deployed"
	Available = "Available"
	InStock   = "In-Stock"
	InRepair  = "In-Repair"
	Archived  = "Archived"
	Lost      = "Lost"
)

// Variant is the display variant associated with a logical status.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSecondary   Variant = "secondary"
	VariantDestructive Variant = "destructive"
	VariantOutline     Variant = "outline"
)

// Logical is the derived status of an asset.
type Logical struct {
	Name    string  `json:"name"`
	Variant Variant `json:"variant"`
}

// Resolve maps assignment state and the stored status name to the logical
// status. Pure and total: it returns a value for any input string, matched
// case-insensitively.
func Resolve(assigned bool, stored string) Logical {
	if assigned && !strings.EqualFold(stored, Deployed) {
		return Logical{Name: Deployed, Variant: VariantDefault}
	}
	if !assigned && strings.EqualFold(stored, Deployed) {
		return Logical{Name: Available, Variant: VariantSecondary}
	}
	return Logical{Name: stored, Variant: variantFor(stored)}
}

func variantFor(name string) Variant {
	switch strings.ToLower(name) {
	case "active", "deployed":
		return VariantDefault
	case "inactive", "available":
		return VariantSecondary
	case "in-repair", "retired", "lost":
		return VariantDestructive
	default:
		return VariantOutline
	}
}
