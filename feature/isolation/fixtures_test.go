package isolation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hw-isolation/core/storage"
	"hw-isolation/feature/guard"
	"hw-isolation/feature/locator"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	invCore0 = "/xyz/openbmc_project/inventory/system/chassis/motherboard/cpu0/core0"
	invCore1 = "/xyz/openbmc_project/inventory/system/chassis/motherboard/cpu0/core1"
	invDimm0 = "/xyz/openbmc_project/inventory/system/chassis/motherboard/dimm0"
	logPath3 = "/xyz/openbmc_project/logging/entry/3"
)

var (
	pathCore0  = guard.EntityPath{0x23, 0x01, 0x00, 0x03}
	pathCore1  = guard.EntityPath{0x23, 0x01, 0x00, 0x04}
	pathDimm0  = guard.EntityPath{0x23, 0x02, 0x00, 0x01}
	pathOrphan = guard.EntityPath{0x99}
)

// fakeGuard is an in-memory guard store whose listing tests may edit freely.
type fakeGuard struct {
	mu        sync.Mutex
	records   []guard.Record
	nextID    uint32
	createErr error
	listErr   error
	clearErr  map[uint32]error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{nextID: 1, clearErr: map[uint32]error{}}
}

func (g *fakeGuard) List(ctx context.Context, excludeEphemeral bool) ([]guard.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	out := make([]guard.Record, 0, len(g.records))
	for _, r := range g.records {
		if excludeEphemeral && r.ErrType.IsEphemeral() {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (g *fakeGuard) Create(ctx context.Context, path guard.EntityPath, eid uint32, t guard.Type) (guard.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return guard.Record{}, g.createErr
	}
	for i := range g.records {
		if g.records[i].Valid() && g.records[i].TargetID.Equal(path) {
			g.records[i].ElogID = eid
			g.records[i].ErrType = t
			return g.records[i], nil
		}
	}
	r := guard.Record{RecordID: g.nextID, TargetID: append(guard.EntityPath(nil), path...), ElogID: eid, ErrType: t}
	g.nextID++
	g.records = append(g.records, r)
	return r, nil
}

func (g *fakeGuard) Clear(ctx context.Context, id uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.clearErr[id]; err != nil {
		return err
	}
	for i := range g.records {
		if g.records[i].RecordID == id {
			g.records[i].RecordID = guard.InvalidRecordID
			return nil
		}
	}
	return guard.ErrRecordNotFound
}

// host simulates an out-of-band write of the whole partition.
func (g *fakeGuard) host(records ...guard.Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records = records
}

func (g *fakeGuard) valid() []guard.Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []guard.Record
	for _, r := range g.records {
		if r.Valid() {
			out = append(out, r)
		}
	}
	return out
}

// fakePlatform answers policy and log queries from fields.
type fakePlatform struct {
	mu          sync.Mutex
	disabled    bool
	poweredOn   bool
	powerErr    error
	logIDs      map[string]uint32
	logPaths    map[uint32]string
	enabled     map[string]bool
	enableCalls int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		logIDs:   map[string]uint32{logPath3: 0x50000003},
		logPaths: map[uint32]string{0x50000003: logPath3},
		enabled:  map[string]bool{},
	}
}

func (p *fakePlatform) IsolationSettingEnabled(ctx context.Context) bool { return !p.disabled }

func (p *fakePlatform) ChassisPoweredOff(ctx context.Context) (bool, error) {
	if p.powerErr != nil {
		return false, p.powerErr
	}
	return !p.poweredOn, nil
}

func (p *fakePlatform) ErrorLogID(ctx context.Context, logPath string) (uint32, error) {
	if id, ok := p.logIDs[logPath]; ok {
		return id, nil
	}
	return 0, errors.New("no such log")
}

func (p *fakePlatform) ErrorLogPath(ctx context.Context, eid uint32) (string, error) {
	if eid == 0 {
		return "", nil
	}
	if path, ok := p.logPaths[eid]; ok {
		return path, nil
	}
	return "", errors.New("no such eid")
}

func (p *fakePlatform) SetEnabled(ctx context.Context, inventoryPath string, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled[inventoryPath] = enabled
	p.enableCalls++
}

func (p *fakePlatform) isEnabled(inventoryPath string) (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.enabled[inventoryPath]
	return v, ok
}

// countingClient counts mutations on a storage client. Names in failPut
// fail to write.
type countingClient struct {
	storage.Client
	mu      sync.Mutex
	puts    int
	removes int
	failPut map[string]error
}

func (c *countingClient) Put(ctx context.Context, name string, data []byte) error {
	c.mu.Lock()
	c.puts++
	err := c.failPut[name]
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.Client.Put(ctx, name, data)
}

func (c *countingClient) Remove(ctx context.Context, name string) error {
	c.mu.Lock()
	c.removes++
	c.mu.Unlock()
	return c.Client.Remove(ctx, name)
}

func (c *countingClient) mutations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts + c.removes
}

// fakeClock advances one second per reading.
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

type fixture struct {
	guard    *fakeGuard
	platform *fakePlatform
	locator  *locator.Locator
	files    *countingClient
	state    *countingClient
	clock    *fakeClock
	manager  *Manager
}

func newLocator(t *testing.T) *locator.Locator {
	t.Helper()
	l := locator.New(zap.NewNop())
	require.NoError(t, l.Add(locator.Hardware{InventoryPath: invCore0, PhysicalPath: pathCore0.String()}))
	require.NoError(t, l.Add(locator.Hardware{InventoryPath: invCore1, PhysicalPath: pathCore1.String(), EcoCore: true}))
	require.NoError(t, l.Add(locator.Hardware{InventoryPath: invDimm0, PhysicalPath: pathDimm0.String()}))
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	entries, err := storage.NewClient(t.TempDir(), 0o644)
	require.NoError(t, err)
	state, err := storage.NewClient(t.TempDir(), 0o644)
	require.NoError(t, err)

	f := &fixture{
		guard:    newFakeGuard(),
		platform: newFakePlatform(),
		locator:  newLocator(t),
		files:    &countingClient{Client: entries},
		state:    &countingClient{Client: state},
		clock:    &fakeClock{cur: time.Unix(1700000000, 0)},
	}
	f.manager = f.newManager(t)
	return f
}

// newManager builds a manager over the fixture's state, as after a restart.
func (f *fixture) newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(context.Background(), Config{
		Debounce:        time.Hour,
		EntryObjectRoot: "/xyz/openbmc_project/hardware_isolation/entry",
	}, Deps{
		Guard:    f.guard,
		Locator:  f.locator,
		Platform: f.platform,
		Entries:  f.files,
		State:    f.state,
		Logger:   zap.NewNop(),
		Clock:    f.clock.Now,
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func (f *fixture) fileNames(t *testing.T) []string {
	t.Helper()
	names, err := f.files.List(context.Background())
	require.NoError(t, err)
	return names
}
