package reconcile

// ActionType represents the type of planned action.
type ActionType string

const (
	// ActionResolve releases an entry whose record is gone or no longer valid.
	ActionResolve ActionType = "resolve"
	// ActionUpdate refreshes an entry from its single valid record.
	ActionUpdate ActionType = "update"
	// ActionCorrupt flags a key with more than one valid record. Nothing is applied.
	ActionCorrupt ActionType = "corrupt"
	// ActionCreate creates an entry for a valid record nobody mirrors yet.
	ActionCreate ActionType = "create"
)

// Entry is the planner's view of one existing table entry.
type Entry struct {
	// ID is the entry's record id.
	ID uint32

	// Key is the join key shared with records (the raw entity path).
	Key string
}

// Source tells the planner how to read a record.
type Source[R any] struct {
	// Key extracts the join key of a record.
	Key func(R) string

	// Valid reports whether a record is active.
	Valid func(R) bool
}

// Action represents one planned step.
type Action[R any] struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// EntryID is the affected entry. Zero for ActionCreate and for corrupt
	// records that have no entry.
	EntryID uint32 `json:"entry_id,omitempty"`

	// Key is the join key.
	Key string `json:"-"`

	// Record is the record to apply. Set for ActionUpdate and ActionCreate.
	Record R `json:"-"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`
}

// Plan is the ordered list of actions for one reconciliation pass.
type Plan[R any] struct {
	// ClearAll is set when the listing is empty and every entry is resolved.
	ClearAll bool `json:"clear_all"`

	// Actions are ordered: entry actions by ascending id, then creates in
	// listing order.
	Actions []Action[R] `json:"actions"`

	// Summary provides aggregate counts.
	Summary Summary `json:"summary"`
}

// Summary provides aggregate statistics for a plan.
type Summary struct {
	Entries int `json:"entries"`
	Records int `json:"records"`
	Resolve int `json:"resolve"`
	Update  int `json:"update"`
	Create  int `json:"create"`
	Corrupt int `json:"corrupt"`
}

// Empty reports whether the plan contains no actions.
func (p *Plan[R]) Empty() bool {
	return len(p.Actions) == 0
}
