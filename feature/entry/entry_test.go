package entry

import (
	"context"
	"errors"
	"testing"
	"time"

	"hw-isolation/core/storage"
	"hw-isolation/core/storage/mocks"
	"hw-isolation/feature/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const cpu0 = "/xyz/openbmc_project/inventory/system/chassis/motherboard/cpu0"

type fakeOwner struct {
	clearErr error
	cleared  []uint32
	enabled  map[string]bool
	erased   []uint32
}

func (o *fakeOwner) ClearRecord(ctx context.Context, id uint32) error {
	if o.clearErr != nil {
		return o.clearErr
	}
	o.cleared = append(o.cleared, id)
	return nil
}

func (o *fakeOwner) SetEnabled(ctx context.Context, path string, enabled bool) {
	if o.enabled == nil {
		o.enabled = map[string]bool{}
	}
	o.enabled[path] = enabled
}

func (o *fakeOwner) EraseEntry(id uint32) {
	o.erased = append(o.erased, id)
}

func newEntry(t *testing.T, store storage.Client, owner Owner) *Entry {
	t.Helper()
	e, err := New(Params{
		RecordID:     7,
		ObjectPath:   "/xyz/openbmc_project/hardware_isolation/entry/7",
		Path:         guard.EntityPath{0x23, 0x01},
		Severity:     SeverityWarning,
		Associations: Associations(cpu0, ""),
		Elapsed:      time.Unix(1000, 0),
	}, store, owner)
	require.NoError(t, err)
	return e
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Params{RecordID: guard.InvalidRecordID, Path: guard.EntityPath{1}, Associations: Associations(cpu0, "")}, nil, nil)
	assert.Error(t, err)
	_, err = New(Params{RecordID: 1, Associations: Associations(cpu0, "")}, nil, nil)
	assert.Error(t, err)
	_, err = New(Params{RecordID: 1, Path: guard.EntityPath{1}}, nil, nil)
	assert.Error(t, err)
}

func TestEntry_Setters(t *testing.T) {
	e := newEntry(t, nil, nil)

	assert.False(t, e.SetSeverity(SeverityWarning))
	assert.True(t, e.SetSeverity(SeverityCritical))
	assert.Equal(t, SeverityCritical, e.Severity())

	assert.False(t, e.SetAssociations(Associations(cpu0, "")))
	assert.True(t, e.SetAssociations(Associations(cpu0, "/xyz/openbmc_project/logging/entry/3")))
	assert.Equal(t, "/xyz/openbmc_project/logging/entry/3", e.ErrorLogPath())
	assert.Equal(t, cpu0, e.InventoryPath())

	assert.True(t, e.Matches(7, guard.EntityPath{0x23, 0x01}))
	assert.False(t, e.Matches(8, guard.EntityPath{0x23, 0x01}))
	assert.False(t, e.Matches(7, guard.EntityPath{0x23}))
}

func TestEntry_SerializeAndLoad(t *testing.T) {
	store, err := storage.NewClient(t.TempDir(), 0o644)
	require.NoError(t, err)
	ctx := context.Background()

	e := newEntry(t, store, &fakeOwner{})
	e.SetAssociations(Associations(cpu0, "/xyz/openbmc_project/logging/entry/3"))
	require.NoError(t, e.Serialize(ctx))

	p, ok, err := Load(ctx, store, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(7), p.RecordID)
	assert.True(t, p.Path.Equal(e.Path()))
	assert.Equal(t, SeverityWarning, p.Severity)
	assert.Equal(t, e.Associations(), p.Associations)
	assert.Equal(t, int64(1000), p.Elapsed.Unix())

	_, ok, err = Load(ctx, store, 8)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoad_Corrupt(t *testing.T) {
	store := new(mocks.Client)
	store.On("Get", mock.Anything, "7").Return([]byte{0xff}, nil)

	_, _, err := Load(context.Background(), store, 7)
	assert.Error(t, err)
}

func TestEntry_Resolve(t *testing.T) {
	t.Run("WithoutClear", func(t *testing.T) {
		store := new(mocks.Client)
		store.On("Remove", mock.Anything, "7").Return(nil)
		owner := &fakeOwner{}

		e := newEntry(t, store, owner)
		require.NoError(t, e.Resolve(context.Background(), false))

		assert.True(t, e.Resolved())
		assert.Empty(t, owner.cleared)
		assert.Equal(t, []uint32{7}, owner.erased)
		assert.True(t, owner.enabled[cpu0])
		store.AssertExpectations(t)
	})

	t.Run("WithClear", func(t *testing.T) {
		store := new(mocks.Client)
		store.On("Remove", mock.Anything, "7").Return(nil)
		owner := &fakeOwner{}

		e := newEntry(t, store, owner)
		require.NoError(t, e.Resolve(context.Background(), true))
		assert.Equal(t, []uint32{7}, owner.cleared)
	})

	t.Run("ClearFailureKeepsEntry", func(t *testing.T) {
		store := new(mocks.Client)
		owner := &fakeOwner{clearErr: errors.New("locked")}

		e := newEntry(t, store, owner)
		assert.Error(t, e.Resolve(context.Background(), true))
		assert.False(t, e.Resolved())
		assert.Empty(t, owner.erased)
		store.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	})
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "42", FileName(42))

	id, ok := ParseFileName("42")
	assert.True(t, ok)
	assert.Equal(t, uint32(42), id)

	_, ok = ParseFileName("eco_cores")
	assert.False(t, ok)
	_, ok = ParseFileName("99999999999")
	assert.False(t, ok)
}

func TestEntry_View(t *testing.T) {
	v := newEntry(t, nil, nil).View()
	assert.Equal(t, "23 01", v.EntityPath)
	assert.Equal(t, cpu0, v.InventoryPath)
	assert.Empty(t, v.ErrorLogPath)
	assert.Equal(t, int64(1000), v.Elapsed)
}
