package locator

import (
	"fmt"
	"os"
	"sync"

	"hw-isolation/feature/guard"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Hardware is one isolatable hardware mapping from the inventory map file.
type Hardware struct {
	InventoryPath string `yaml:"inventory_path"`
	PhysicalPath  string `yaml:"physical_path"`
	EcoCore       bool   `yaml:"eco_core"`
}

type inventoryFile struct {
	Hardware []Hardware `yaml:"hardware"`
}

type mapping struct {
	inventoryPath string
	path          guard.EntityPath
	ecoCore       bool
}

// Locator resolves between inventory object paths and guard entity paths.
type Locator struct {
	mu          sync.RWMutex
	byInventory map[string]*mapping
	byPath      map[string]*mapping
	logger      *zap.Logger
}

// New returns an empty locator.
func New(logger *zap.Logger) *Locator {
	return &Locator{
		byInventory: make(map[string]*mapping),
		byPath:      make(map[string]*mapping),
		logger:      logger,
	}
}

// LoadFile builds a locator from a YAML inventory map.
func LoadFile(path string, logger *zap.Logger) (*Locator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory map: %w", err)
	}

	l := New(logger)
	if err := l.Load(data); err != nil {
		return nil, fmt.Errorf("inventory map %s: %w", path, err)
	}
	return l, nil
}

// Load replaces the current mappings with the YAML document in data.
// Duplicate inventory or physical paths are rejected.
func (l *Locator) Load(data []byte) error {
	var doc inventoryFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse inventory map: %w", err)
	}

	byInventory := make(map[string]*mapping, len(doc.Hardware))
	byPath := make(map[string]*mapping, len(doc.Hardware))
	for i, hw := range doc.Hardware {
		if hw.InventoryPath == "" {
			return fmt.Errorf("hardware[%d]: missing inventory_path", i)
		}
		path, err := guard.ParseEntityPath(hw.PhysicalPath)
		if err != nil {
			return fmt.Errorf("hardware[%d]: %w", i, err)
		}

		m := &mapping{inventoryPath: hw.InventoryPath, path: path, ecoCore: hw.EcoCore}
		if _, dup := byInventory[m.inventoryPath]; dup {
			return fmt.Errorf("hardware[%d]: duplicate inventory_path %s", i, m.inventoryPath)
		}
		if _, dup := byPath[path.Key()]; dup {
			return fmt.Errorf("hardware[%d]: duplicate physical_path %s", i, path)
		}
		byInventory[m.inventoryPath] = m
		byPath[path.Key()] = m
	}

	l.mu.Lock()
	l.byInventory = byInventory
	l.byPath = byPath
	l.mu.Unlock()

	l.logger.Info("Loaded inventory map", zap.Int("hardware", len(byInventory)))
	return nil
}

// Add registers a single mapping, replacing any existing one for either key.
func (l *Locator) Add(hw Hardware) error {
	path, err := guard.ParseEntityPath(hw.PhysicalPath)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if old, ok := l.byInventory[hw.InventoryPath]; ok {
		delete(l.byPath, old.path.Key())
	}
	if old, ok := l.byPath[path.Key()]; ok {
		delete(l.byInventory, old.inventoryPath)
	}

	m := &mapping{inventoryPath: hw.InventoryPath, path: path, ecoCore: hw.EcoCore}
	l.byInventory[m.inventoryPath] = m
	l.byPath[path.Key()] = m
	return nil
}

// PhysicalPath returns the entity path for an inventory object.
func (l *Locator) PhysicalPath(inventoryPath string) (guard.EntityPath, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.byInventory[inventoryPath]
	if !ok {
		return nil, false
	}
	return append(guard.EntityPath(nil), m.path...), true
}

// InventoryPath returns the inventory object for an entity path and whether
// the hardware is an economy core. ecoCoreHint marks a location remembered
// as an eco core from before a restart.
func (l *Locator) InventoryPath(path guard.EntityPath, ecoCoreHint bool) (string, bool, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	m, ok := l.byPath[path.Key()]
	if !ok {
		return "", false, false
	}
	return m.inventoryPath, m.ecoCore || ecoCoreHint, true
}

// Len returns the number of mappings.
func (l *Locator) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byInventory)
}
