// Package locator maps inventory object paths to guard entity paths and back.
//
// The mapping comes from a YAML inventory map, one item per isolatable
// hardware:
//
//	hardware:
//	  - inventory_path: /xyz/openbmc_project/inventory/system/chassis/motherboard/cpu0/core0
//	    physical_path: "23 01 00 02 00 03"
//	    eco_core: false
//
// physical_path is hex, bytes optionally separated by spaces. A location is
// reported as an economy core when the map says so or when the caller passes
// the restore-time hint for a location it persisted as an eco core earlier.
package locator
