// Package diff builds field-level change descriptions for asset updates.
// Values are normalized before comparison (empty-string sentinel for text,
// numeric parsing for costs, calendar-day truncation for dates) so that an
// update supplying the stored value in a different representation never
// records a change. An empty result means the caller must not write an
// audit entry.
package diff

import (
	"fmt"
	"strconv"
	"time"
)

// emptyDisplay is substituted for empty values in human-readable output.
const emptyDisplay = "None"

// Builder accumulates changes for one update request. The zero value is
// ready to use.
type Builder struct {
	changes []string
	fields  []string
}

func (b *Builder) record(field, label, oldDisplay, newDisplay string) {
	b.changes = append(b.changes, fmt.Sprintf("%s: %q → %q", label, oldDisplay, newDisplay))
	b.fields = append(b.fields, field)
}

func display(s string) string {
	if s == "" {
		return emptyDisplay
	}
	return s
}

// String compares a text field. Empty strings are the "no value" sentinel.
// Returns true when a change was recorded.
func (b *Builder) String(field, label, oldVal, newVal string) bool {
	if oldVal == newVal {
		return false
	}
	b.record(field, label, display(oldVal), display(newVal))
	return true
}

// Number compares a numeric field. The stored value may be absent; the new
// value has already been parsed, so "1200" and "1200.00" compare equal.
func (b *Builder) Number(field, label string, oldVal *float64, newVal float64) bool {
	if oldVal != nil && *oldVal == newVal {
		return false
	}
	oldDisplay := emptyDisplay
	if oldVal != nil {
		oldDisplay = formatNumber(*oldVal)
	}
	b.record(field, label, oldDisplay, formatNumber(newVal))
	return true
}

// Date compares a date field at calendar-day precision, ignoring time of
// day and sub-day representation differences.
func (b *Builder) Date(field, label string, oldVal *time.Time, newVal time.Time) bool {
	newDay := dateOnly(newVal)
	if oldVal != nil && dateOnly(*oldVal) == newDay {
		return false
	}
	oldDisplay := emptyDisplay
	if oldVal != nil {
		oldDisplay = dateOnly(*oldVal)
	}
	b.record(field, label, oldDisplay, newDay)
	return true
}

// Reference records a change between two already-resolved display names
// (assigned user, department, model). The caller decides identity via ids;
// the log stays human-legible by showing names, not keys.
func (b *Builder) Reference(field, label, oldName, newName string) {
	b.record(field, label, display(oldName), display(newName))
}

// Empty reports whether no changes were recorded.
func (b *Builder) Empty() bool { return len(b.changes) == 0 }

// Changes returns the human-readable change list.
func (b *Builder) Changes() []string { return b.changes }

// Fields returns the canonical names of changed fields.
func (b *Builder) Fields() []string { return b.fields }

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}
