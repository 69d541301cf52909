package locator

import (
	"os"
	"path/filepath"
	"testing"

	"hw-isolation/feature/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleMap = `
hardware:
  - inventory_path: /xyz/openbmc_project/inventory/system/chassis/motherboard/cpu0/core0
    physical_path: "23 01 00 02 00 03"
  - inventory_path: /xyz/openbmc_project/inventory/system/chassis/motherboard/cpu0/core1
    physical_path: "23 01 00 02 00 04"
    eco_core: true
`

const core0 = "/xyz/openbmc_project/inventory/system/chassis/motherboard/cpu0/core0"

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleMap), 0o644))

	l, err := LoadFile(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
}

func TestLocator_Lookups(t *testing.T) {
	l := New(zap.NewNop())
	require.NoError(t, l.Load([]byte(sampleMap)))

	p, ok := l.PhysicalPath(core0)
	require.True(t, ok)
	assert.Equal(t, "23 01 00 02 00 03", p.String())

	inv, eco, ok := l.InventoryPath(p, false)
	require.True(t, ok)
	assert.Equal(t, core0, inv)
	assert.False(t, eco)

	_, eco, ok = l.InventoryPath(p, true)
	require.True(t, ok)
	assert.True(t, eco, "restore hint marks eco core")

	_, eco, ok = l.InventoryPath(guard.EntityPath{0x23, 0x01, 0x00, 0x02, 0x00, 0x04}, false)
	require.True(t, ok)
	assert.True(t, eco)

	_, ok = l.PhysicalPath("/unknown")
	assert.False(t, ok)
	_, _, ok = l.InventoryPath(guard.EntityPath{0x99}, false)
	assert.False(t, ok)
}

func TestLocator_LoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "yaml", doc: "hardware: ["},
		{name: "missing inventory", doc: "hardware:\n  - physical_path: \"01\"\n"},
		{name: "bad hex", doc: "hardware:\n  - inventory_path: /a\n    physical_path: \"zz\"\n"},
		{name: "duplicate inventory", doc: "hardware:\n  - inventory_path: /a\n    physical_path: \"01\"\n  - inventory_path: /a\n    physical_path: \"02\"\n"},
		{name: "duplicate path", doc: "hardware:\n  - inventory_path: /a\n    physical_path: \"01\"\n  - inventory_path: /b\n    physical_path: \"01\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(zap.NewNop())
			assert.Error(t, l.Load([]byte(tt.doc)))
			assert.Equal(t, 0, l.Len())
		})
	}
}

func TestLocator_Add(t *testing.T) {
	l := New(zap.NewNop())
	require.NoError(t, l.Add(Hardware{InventoryPath: "/a", PhysicalPath: "01"}))
	require.NoError(t, l.Add(Hardware{InventoryPath: "/a", PhysicalPath: "02"}))

	assert.Equal(t, 1, l.Len())
	_, _, ok := l.InventoryPath(guard.EntityPath{0x01}, false)
	assert.False(t, ok)
	inv, _, ok := l.InventoryPath(guard.EntityPath{0x02}, false)
	require.True(t, ok)
	assert.Equal(t, "/a", inv)

	assert.Error(t, l.Add(Hardware{InventoryPath: "/b", PhysicalPath: "x"}))
}
