package entry

// Association kinds between an entry and the objects it refers to.
const (
	FwdIsolatedHW       = "isolated_hw"
	FwdIsolatedErrorLog = "isolated_hw_errorlog"
	RevIsolatedHWEntry  = "isolated_hw_entry"
)

// Association is one (forward, reverse, target) triple.
type Association struct {
	Forward string `cbor:"1,keyasint" json:"forward"`
	Reverse string `cbor:"2,keyasint" json:"reverse"`
	Target  string `cbor:"3,keyasint" json:"target"`
}

// Associations builds the list for an isolated hardware and its optional
// error log.
func Associations(inventoryPath, errorLogPath string) []Association {
	out := []Association{{Forward: FwdIsolatedHW, Reverse: RevIsolatedHWEntry, Target: inventoryPath}}
	if errorLogPath != "" {
		out = append(out, Association{Forward: FwdIsolatedErrorLog, Reverse: RevIsolatedHWEntry, Target: errorLogPath})
	}
	return out
}

func equalAssociations(a, b []Association) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func targetOf(assocs []Association, forward string) string {
	for _, a := range assocs {
		if a.Forward == forward {
			return a.Target
		}
	}
	return ""
}
