// Package utils provides common conversion helpers.
//
// Values read from the system bus arrive boxed (dbus.Variant) and with loosely
// specified numeric types. The helpers here unwrap any value implementing
// Value() and convert it to the plain Go type the caller needs, so bus-facing
// code does not repeat type switches.
package utils
