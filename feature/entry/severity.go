package entry

import (
	"fmt"
	"strings"

	"hw-isolation/feature/guard"
)

// Severity is the management-facing classification of an isolation.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityWarning  Severity = "Warning"
	SeverityManual   Severity = "Manual"
	SeveritySpare    Severity = "Spare"
)

// severityPrefix is the bus enumeration namespace; accepted on input.
const severityPrefix = "xyz.openbmc_project.HardwareIsolation.Entry.Type."

// ParseSeverity accepts the short name ("Critical") or the bus enumeration
// form, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	name := strings.TrimPrefix(strings.TrimSpace(s), severityPrefix)
	for _, sev := range []Severity{SeverityCritical, SeverityWarning, SeverityManual, SeveritySpare} {
		if strings.EqualFold(name, string(sev)) {
			return sev, nil
		}
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// GuardType maps a requested severity to the guard type stored in the record.
func GuardType(sev Severity) (guard.Type, bool) {
	switch sev {
	case SeverityCritical:
		return guard.TypeFatal, true
	case SeverityWarning:
		return guard.TypePredictive, true
	case SeverityManual:
		return guard.TypeManual, true
	default:
		return guard.TypeNull, false
	}
}

// SeverityOf maps a stored guard type back to a severity.
func SeverityOf(t guard.Type) (Severity, bool) {
	switch t {
	case guard.TypeManual, guard.TypeEcoCore:
		return SeverityManual, true
	case guard.TypeFatal, guard.TypeUnrecoverable:
		return SeverityCritical, true
	case guard.TypePredictive, guard.TypePower, guard.TypePHYP,
		guard.TypeReconfig, guard.TypeStickyDeconfig:
		return SeverityWarning, true
	default:
		return "", false
	}
}
