package platform

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"hw-isolation/core/bus"
	"hw-isolation/core/utils"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

// Object paths and interfaces of the collaborating services.
const (
	SettingPath  = "/xyz/openbmc_project/hardware_isolation/allow_hw_isolation"
	EnableIface  = "xyz.openbmc_project.Object.Enable"
	EnabledProp  = "Enabled"
	ChassisPath  = "/xyz/openbmc_project/state/chassis0"
	ChassisIface = "xyz.openbmc_project.State.Chassis"
	PowerProp    = "CurrentPowerState"
	PowerOff     = "xyz.openbmc_project.State.Chassis.PowerState.Off"

	LoggingPath  = "/xyz/openbmc_project/logging"
	LoggingIface = "org.open_power.Logging.PEL"

	InventoryManager     = "xyz.openbmc_project.Inventory.Manager"
	InventoryManagerPath = "/xyz/openbmc_project/inventory"
)

// Bus is the subset of the bus client the platform needs.
type Bus interface {
	ServiceName(ctx context.Context, path, iface string) (string, error)
	Call(ctx context.Context, service, path, iface, method string, args []any, out ...any) error
	GetPropertyOf(ctx context.Context, path, iface, prop string) (dbus.Variant, error)
	SetProperty(ctx context.Context, service, path, iface, prop string, value any) error
}

// Platform answers the isolation manager's questions about the rest of the
// system: policy settings, power state, error logs and inventory state.
type Platform struct {
	bus    Bus
	logger *zap.Logger
}

// New creates a platform on the given bus.
func New(b Bus, logger *zap.Logger) *Platform {
	return &Platform{bus: b, logger: logger}
}

// IsolationSettingEnabled reports whether hardware isolation is allowed.
// A setting that cannot be read counts as enabled.
func (p *Platform) IsolationSettingEnabled(ctx context.Context) bool {
	v, err := p.bus.GetPropertyOf(ctx, SettingPath, EnableIface, EnabledProp)
	if err != nil {
		p.logger.Warn("Failed to read hardware isolation setting, assuming enabled", zap.Error(err))
		return true
	}
	enabled, ok := v.Value().(bool)
	if !ok {
		p.logger.Warn("Unexpected hardware isolation setting type, assuming enabled",
			zap.String("signature", v.Signature().String()))
		return true
	}
	return enabled
}

// ChassisPoweredOff reports whether the chassis power state is Off.
func (p *Platform) ChassisPoweredOff(ctx context.Context) (bool, error) {
	v, err := p.bus.GetPropertyOf(ctx, ChassisPath, ChassisIface, PowerProp)
	if err != nil {
		return false, fmt.Errorf("failed to read chassis power state: %w", err)
	}
	state := utils.ToString(v)
	p.logger.Debug("Chassis power state", zap.String("state", state))
	return state == PowerOff, nil
}

// ErrorLogID translates an error log object path into its numeric log id.
func (p *Platform) ErrorLogID(ctx context.Context, logPath string) (uint32, error) {
	bmcID, ok := utils.ToUint32(path.Base(logPath))
	if !ok || !strings.HasPrefix(logPath, LoggingPath+"/") {
		return 0, fmt.Errorf("invalid error log path %q", logPath)
	}

	service, err := p.bus.ServiceName(ctx, LoggingPath, LoggingIface)
	if err != nil {
		return 0, err
	}

	var eid uint32
	if err := p.bus.Call(ctx, service, LoggingPath, LoggingIface, "GetPELIdFromBMCLogId", []any{bmcID}, &eid); err != nil {
		return 0, err
	}
	return eid, nil
}

// ErrorLogPath translates a numeric log id into its error log object path.
// An id of 0 means no error log and yields an empty path.
func (p *Platform) ErrorLogPath(ctx context.Context, eid uint32) (string, error) {
	if eid == 0 {
		return "", nil
	}

	service, err := p.bus.ServiceName(ctx, LoggingPath, LoggingIface)
	if err != nil {
		return "", err
	}

	var bmcID uint32
	if err := p.bus.Call(ctx, service, LoggingPath, LoggingIface, "GetBMCLogIdFromPELId", []any{eid}, &bmcID); err != nil {
		return "", err
	}
	return LoggingPath + "/entry/" + strconv.FormatUint(uint64(bmcID), 10), nil
}

// SetEnabled mirrors the Enabled property of an inventory object.
// Objects without the property are ignored and failures are only logged.
func (p *Platform) SetEnabled(ctx context.Context, inventoryPath string, enabled bool) {
	service, err := p.bus.ServiceName(ctx, inventoryPath, EnableIface)
	if err != nil {
		if bus.IsErrorName(err, bus.ErrResourceNotFound) {
			return
		}
		p.logger.Error("Failed to get service name for Enabled update",
			zap.String("inventory_path", inventoryPath),
			zap.Error(err))
	}

	if service == InventoryManager {
		err = p.notifyInventory(ctx, service, inventoryPath, enabled)
	} else {
		err = p.bus.SetProperty(ctx, service, inventoryPath, EnableIface, EnabledProp, enabled)
	}
	if err != nil {
		if bus.IsErrorName(err, bus.ErrUnknownProperty) {
			return
		}
		p.logger.Error("Failed to set Enabled property",
			zap.String("inventory_path", inventoryPath),
			zap.Bool("enabled", enabled),
			zap.Error(err))
	}
}

// notifyInventory updates the property through the inventory manager, which
// expects paths relative to its own root.
func (p *Platform) notifyInventory(ctx context.Context, service, inventoryPath string, enabled bool) error {
	rel := strings.TrimPrefix(inventoryPath, InventoryManagerPath)
	tree := map[dbus.ObjectPath]map[string]map[string]dbus.Variant{
		dbus.ObjectPath(rel): {
			EnableIface: {EnabledProp: dbus.MakeVariant(enabled)},
		},
	}
	return p.bus.Call(ctx, service, InventoryManagerPath, InventoryManager, "Notify", []any{tree})
}
