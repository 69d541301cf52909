package isolation

import (
	"context"
	"fmt"

	"hw-isolation/feature/entry"

	"go.uber.org/zap"
)

// isolationAllowed checks the isolation setting and, for manual isolation,
// that the chassis is powered off.
func (m *Manager) isolationAllowed(ctx context.Context, sev entry.Severity) error {
	if !m.platform.IsolationSettingEnabled(ctx) {
		m.logger.Info("Hardware isolation is not allowed since the setting is disabled")
		return fmt.Errorf("hardware isolation setting is disabled: %w", ErrUnavailable)
	}
	if sev != entry.SeverityManual {
		return nil
	}
	return m.requirePowerOff(ctx, "Manual hardware isolation")
}

// deisolationAllowed checks the isolation setting and that the chassis is
// powered off.
func (m *Manager) deisolationAllowed(ctx context.Context) error {
	if !m.platform.IsolationSettingEnabled(ctx) {
		m.logger.Info("Hardware deisolation is not allowed since the setting is disabled")
		return fmt.Errorf("hardware isolation setting is disabled: %w", ErrUnavailable)
	}
	return m.requirePowerOff(ctx, "Manual hardware de-isolation")
}

func (m *Manager) requirePowerOff(ctx context.Context, what string) error {
	off, err := m.platform.ChassisPoweredOff(ctx)
	if err != nil {
		m.logger.Error("Failed to read chassis power state", zap.Error(err))
		return fmt.Errorf("%v: %w", err, ErrInternalFailure)
	}
	if !off {
		m.logger.Error(what + " is allowed only when chassis power state is off")
		return fmt.Errorf("chassis is powered on: %w", ErrNotAllowed)
	}
	return nil
}
