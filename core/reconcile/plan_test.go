package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rec struct {
	id  uint32
	key string
}

const invalid = 0xFFFFFFFF

var src = Source[rec]{
	Key:   func(r rec) string { return r.key },
	Valid: func(r rec) bool { return r.id != invalid },
}

func types(p *Plan[rec]) []ActionType {
	out := make([]ActionType, 0, len(p.Actions))
	for _, a := range p.Actions {
		out = append(out, a.Type)
	}
	return out
}

func TestBuild_EmptyBothSides(t *testing.T) {
	p := Build(nil, nil, src)
	assert.True(t, p.Empty())
	assert.False(t, p.ClearAll)
}

func TestBuild_EmptyListingClearsAll(t *testing.T) {
	p := Build([]Entry{{ID: 2, Key: "b"}, {ID: 1, Key: "a"}}, nil, src)

	assert.True(t, p.ClearAll)
	require.Len(t, p.Actions, 2)
	assert.Equal(t, uint32(1), p.Actions[0].EntryID)
	assert.Equal(t, uint32(2), p.Actions[1].EntryID)
	assert.Equal(t, 2, p.Summary.Resolve)
}

func TestBuild_EntryRules(t *testing.T) {
	entries := []Entry{
		{ID: 1, Key: "gone"},
		{ID: 2, Key: "cleared"},
		{ID: 3, Key: "kept"},
		{ID: 4, Key: "dup"},
	}
	records := []rec{
		{id: invalid, key: "cleared"},
		{id: 3, key: "kept"},
		{id: 4, key: "dup"},
		{id: 9, key: "dup"},
	}

	p := Build(entries, records, src)

	assert.False(t, p.ClearAll)
	assert.Equal(t, []ActionType{ActionResolve, ActionResolve, ActionUpdate, ActionCorrupt}, types(p))
	assert.Equal(t, rec{id: 3, key: "kept"}, p.Actions[2].Record)
	assert.Equal(t, Summary{Entries: 4, Records: 4, Resolve: 2, Update: 1, Corrupt: 1}, p.Summary)
}

func TestBuild_CreatesUnmirroredValidRecords(t *testing.T) {
	entries := []Entry{{ID: 1, Key: "a"}}
	records := []rec{
		{id: 1, key: "a"},
		{id: 5, key: "new"},
		{id: invalid, key: "dead"},
		{id: 6, key: "other"},
	}

	p := Build(entries, records, src)

	assert.Equal(t, []ActionType{ActionUpdate, ActionCreate, ActionCreate}, types(p))
	assert.Equal(t, "new", p.Actions[1].Key)
	assert.Equal(t, "other", p.Actions[2].Key)
	assert.Zero(t, p.Actions[1].EntryID)
}

func TestBuild_NewKeyWithTwoValidRecordsCreatesFirst(t *testing.T) {
	records := []rec{{id: 6, key: "x"}, {id: 5, key: "x"}, {id: 7, key: "y"}}

	p := Build(nil, records, src)

	assert.Equal(t, []ActionType{ActionCreate, ActionCorrupt, ActionCreate}, types(p))
	assert.Equal(t, uint32(6), p.Actions[0].Record.id)
	assert.Equal(t, uint32(5), p.Actions[1].Record.id)
	assert.Equal(t, "y", p.Actions[2].Key)
	assert.Equal(t, 2, p.Summary.Create)
	assert.Equal(t, 1, p.Summary.Corrupt)
}

func TestBuild_Idempotent(t *testing.T) {
	entries := []Entry{{ID: 1, Key: "a"}, {ID: 2, Key: "b"}}
	records := []rec{{id: 1, key: "a"}, {id: 2, key: "b"}}

	first := Build(entries, records, src)
	second := Build(entries, records, src)

	assert.Equal(t, first, second)
	assert.Equal(t, 0, first.Summary.Create)
	assert.Equal(t, 0, first.Summary.Resolve)
}
