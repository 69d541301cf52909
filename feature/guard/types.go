package guard

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// InvalidRecordID marks a record that has been cleared and is no longer active.
const InvalidRecordID uint32 = 0xFFFFFFFF

// EntityPath is the raw physical-path identity of one hardware location.
// Two paths are equal only if their bytes are equal.
type EntityPath []byte

// String renders the path as space-separated two-digit hex.
func (p EntityPath) String() string {
	var sb strings.Builder
	for i, b := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

// Key returns the path as a string usable as a map key.
func (p EntityPath) Key() string {
	return string(p)
}

// Equal reports whether both paths are byte-identical.
func (p EntityPath) Equal(other EntityPath) bool {
	return bytes.Equal(p, other)
}

// ParseEntityPath decodes hex with optional whitespace between bytes,
// e.g. "01 02 ff" or "0102ff".
func ParseEntityPath(s string) (EntityPath, error) {
	compact := strings.Join(strings.Fields(s), "")
	if compact == "" {
		return nil, fmt.Errorf("empty entity path")
	}
	raw, err := hex.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("invalid entity path %q: %w", s, err)
	}
	return EntityPath(raw), nil
}

// Type is the guard (fault) type stored with a record.
type Type uint8

const (
	TypeNull           Type = 0x00
	TypeManual         Type = 0xD2
	TypeUnrecoverable  Type = 0xE2
	TypeFatal          Type = 0xE3
	TypePredictive     Type = 0xE6
	TypePower          Type = 0xE9
	TypePHYP           Type = 0xEA
	TypeReconfig       Type = 0xEB
	TypeStickyDeconfig Type = 0xEC
	TypeEcoCore        Type = 0xED
	TypeVoid           Type = 0xFF
)

var typeNames = map[Type]string{
	TypeNull:           "null",
	TypeManual:         "manual",
	TypeUnrecoverable:  "unrecoverable",
	TypeFatal:          "fatal",
	TypePredictive:     "predictive",
	TypePower:          "power",
	TypePHYP:           "phyp",
	TypeReconfig:       "reconfig",
	TypeStickyDeconfig: "sticky_deconfig",
	TypeEcoCore:        "eco_core",
	TypeVoid:           "void",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", uint8(t))
}

// IsEphemeral reports whether records of this type are internal host/BMC
// bookkeeping that listings may exclude.
func (t Type) IsEphemeral() bool {
	return t == TypeReconfig || t == TypeStickyDeconfig
}

// ParseType maps a type name as printed by String back to a Type.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return TypeNull, fmt.Errorf("unknown guard type %q", name)
}

// Record is one entry of the guard partition.
type Record struct {
	RecordID uint32     `cbor:"1,keyasint" json:"record_id"`
	TargetID EntityPath `cbor:"2,keyasint" json:"target_id"`
	ElogID   uint32     `cbor:"3,keyasint" json:"elog_id"`
	ErrType  Type       `cbor:"4,keyasint" json:"err_type"`
}

// Valid reports whether the record is active.
func (r Record) Valid() bool {
	return r.RecordID != InvalidRecordID
}
