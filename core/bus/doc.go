// Package bus is a thin client for the BMC's system D-Bus.
//
// The hardware isolation manager never owns bus objects itself through this
// package; it only calls out to collaborators: the object mapper (to find which
// service hosts an object), the logging service (error log id translation), the
// chassis state service, the settings service and inventory hosts.
//
// # Client
//
// Client wraps a godbus connection and adds:
//   - a fixed per-call timeout derived from the configuration,
//   - ServiceName, an object mapper GetObject lookup that rejects objects
//     hosted by more than one service; concurrent lookups of the same key are
//     coalesced with singleflight,
//   - property get/set helpers over org.freedesktop.DBus.Properties,
//   - IsErrorName for matching D-Bus error names through wrapped errors.
//
// # Usage
//
//	c, err := bus.Connect(cfg.Bus, log)
//	svc, err := c.ServiceName(ctx, "/xyz/openbmc_project/logging", iface)
//	var id uint32
//	err = c.Call(ctx, svc, path, iface, "GetPELIdFromBMCLogId", []any{uint32(17)}, &id)
package bus
