package isolation

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"hw-isolation/core/codec"
	"hw-isolation/core/storage"
	"hw-isolation/feature/guard"

	"go.uber.org/zap"
)

// EcoCoresFile is the name of the persisted eco-core set.
const EcoCoresFile = "eco_cores"

const ecoCoresVersion uint32 = 1

type ecoCoresBlob struct {
	Version uint32   `cbor:"1,keyasint"`
	Paths   [][]byte `cbor:"2,keyasint"`
}

// ecoCoreSet is keyed by EntityPath.Key.
type ecoCoreSet map[string]guard.EntityPath

func (s ecoCoreSet) has(p guard.EntityPath) bool {
	_, ok := s[p.Key()]
	return ok
}

func (s ecoCoreSet) equal(other ecoCoreSet) bool {
	if len(s) != len(other) {
		return false
	}
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

func (s ecoCoreSet) sorted() []guard.EntityPath {
	out := make([]guard.EntityPath, 0, len(s))
	for _, p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out
}

// loadEcoCores reads the persisted set. A corrupt blob is deleted and read
// as empty.
func (m *Manager) loadEcoCores(ctx context.Context) ecoCoreSet {
	set := ecoCoreSet{}

	data, err := m.state.Get(ctx, EcoCoresFile)
	if errors.Is(err, storage.ErrNotFound) {
		return set
	}
	if err != nil {
		m.logger.Error("Failed to read eco cores", zap.Error(err))
		return set
	}

	var blob ecoCoresBlob
	err = codec.Unmarshal(data, &blob)
	if err == nil {
		err = codec.CheckVersion("eco cores", blob.Version, ecoCoresVersion)
	}
	if err != nil {
		m.logger.Error("Discarding unreadable eco cores", zap.Error(err))
		if rerr := m.state.Remove(ctx, EcoCoresFile); rerr != nil {
			m.logger.Error("Failed to remove eco cores", zap.Error(rerr))
		}
		return set
	}

	for _, raw := range blob.Paths {
		p := guard.EntityPath(raw)
		set[p.Key()] = p
	}
	m.logger.Debug("Loaded eco cores", zap.Int("count", len(set)))
	return set
}

// syncEcoCores recomputes the set from the table and persists it when
// membership changed. An empty set removes the file.
func (m *Manager) syncEcoCores(ctx context.Context) {
	want := ecoCoreSet{}
	for _, e := range m.entries {
		if e.EcoCore() {
			want[e.Path().Key()] = e.Path()
		}
	}
	if want.equal(m.ecoCores) {
		return
	}
	m.ecoCores = want

	if err := m.persistEcoCores(ctx); err != nil {
		m.logger.Error("Failed to persist eco cores", zap.Error(err))
	}
}

func (m *Manager) persistEcoCores(ctx context.Context) error {
	if len(m.ecoCores) == 0 {
		return m.state.Remove(ctx, EcoCoresFile)
	}

	blob := ecoCoresBlob{Version: ecoCoresVersion}
	for _, p := range m.ecoCores.sorted() {
		blob.Paths = append(blob.Paths, p)
	}
	data, err := codec.Marshal(blob)
	if err != nil {
		return err
	}
	return m.state.Put(ctx, EcoCoresFile, data)
}

// EcoCores returns the current eco-core set, ordered.
func (m *Manager) EcoCores() []guard.EntityPath {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ecoCores.sorted()
}
