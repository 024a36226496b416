// Package policy applies the per-OS autostart and restart settings the service
// manager does not cover on its own.
package policy

import (
	"context"
	"fmt"
	"runtime"

	"github.com/1023-Ventures/qlaunch/internal/config"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/1023-Ventures/qlaunch/pkg/utils"
)

type ServicePolicy interface {
	ConfigureAutoStart(ctx context.Context) error
	ConfigureRestartPolicy(ctx context.Context) error
}

type commandRunner func(ctx context.Context, name string, args ...string) (string, error)

// NewServicePolicy picks the policy for the running OS. Its actions are logged to log.
func NewServicePolicy(cfg *config.Config, log logger.Logger) (ServicePolicy, error) {
	switch runtime.GOOS {
	case "windows":
		return NewWindowsPolicy(cfg, log), nil
	case "linux":
		p, err := NewLinuxPolicy(cfg, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "darwin":
		return NewDarwinPolicy(cfg, log), nil
	default:
		return nil, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

var defaultRunner commandRunner = utils.RunCommand
