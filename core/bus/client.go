package bus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Well-known OpenBMC names used by the mapper lookup.
const (
	ObjectMapperName = "xyz.openbmc_project.ObjectMapper"
	ObjectMapperPath = "/xyz/openbmc_project/object_mapper"
	PropertiesIface  = "org.freedesktop.DBus.Properties"

	// ErrResourceNotFound is the mapper's error name for an unknown object.
	ErrResourceNotFound = "xyz.openbmc_project.Common.Error.ResourceNotFound"
	// ErrUnknownProperty is returned when an object lacks a property.
	ErrUnknownProperty = "org.freedesktop.DBus.Error.UnknownProperty"
)

// Conn is the subset of *dbus.Conn used by the client.
type Conn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	Close() error
}

// Client wraps a bus connection with per-call timeouts and mapper lookups.
type Client struct {
	conn    Conn
	timeout time.Duration
	logger  *zap.Logger
	sf      singleflight.Group
}

// Connect opens the configured bus.
func Connect(cfg Config, logger *zap.Logger) (*Client, error) {
	var (
		conn *dbus.Conn
		err  error
	)

	if cfg.Address == "" {
		conn, err = dbus.ConnectSystemBus()
	} else {
		conn, err = dbus.Connect(cfg.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bus: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return New(conn, timeout, logger), nil
}

// New creates a client on an existing connection.
func New(conn Conn, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		conn:    conn,
		timeout: timeout,
		logger:  logger,
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Call invokes iface.method on service/path and stores the reply body into out.
func (c *Client) Call(ctx context.Context, service, path, iface, method string, args []any, out ...any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	obj := c.conn.Object(service, dbus.ObjectPath(path))
	call := obj.CallWithContext(ctx, iface+"."+method, 0, args...)
	if call.Err != nil {
		return fmt.Errorf("call %s.%s on %s: %w", iface, method, path, call.Err)
	}
	if len(out) == 0 {
		return nil
	}
	if err := call.Store(out...); err != nil {
		return fmt.Errorf("decode reply of %s.%s on %s: %w", iface, method, path, err)
	}
	return nil
}

// ServiceName asks the object mapper which service hosts iface on path.
// An object hosted by more than one service is an error.
func (c *Client) ServiceName(ctx context.Context, path, iface string) (string, error) {
	key := path + "|" + iface
	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		var services map[string][]string
		err := c.Call(ctx, ObjectMapperName, ObjectMapperPath, ObjectMapperName, "GetObject",
			[]any{path, []string{iface}}, &services)
		if err != nil {
			return "", err
		}

		switch len(services) {
		case 0:
			return "", fmt.Errorf("no service hosts %s on %s", iface, path)
		case 1:
			for name := range services {
				return name, nil
			}
		}

		names := make([]string, 0, len(services))
		for name := range services {
			names = append(names, name)
		}
		sort.Strings(names)
		c.logger.Error("Object path hosted by more than one service",
			zap.String("path", path),
			zap.Strings("services", names))
		return "", fmt.Errorf("object %s hosted by more than one service [%s]", path, strings.Join(names, ","))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// GetProperty reads a property through org.freedesktop.DBus.Properties.
func (c *Client) GetProperty(ctx context.Context, service, path, iface, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	if err := c.Call(ctx, service, path, PropertiesIface, "Get", []any{iface, prop}, &v); err != nil {
		return dbus.Variant{}, err
	}
	return v, nil
}

// SetProperty writes a property through org.freedesktop.DBus.Properties.
func (c *Client) SetProperty(ctx context.Context, service, path, iface, prop string, value any) error {
	return c.Call(ctx, service, path, PropertiesIface, "Set", []any{iface, prop, dbus.MakeVariant(value)})
}

// GetPropertyOf resolves the hosting service first, then reads the property.
func (c *Client) GetPropertyOf(ctx context.Context, path, iface, prop string) (dbus.Variant, error) {
	service, err := c.ServiceName(ctx, path, iface)
	if err != nil {
		return dbus.Variant{}, err
	}
	return c.GetProperty(ctx, service, path, iface, prop)
}

// IsErrorName reports whether err carries the given D-Bus error name.
func IsErrorName(err error, name string) bool {
	var value dbus.Error
	if errors.As(err, &value) {
		return value.Name == name
	}
	var ptr *dbus.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Name == name
	}
	return false
}
