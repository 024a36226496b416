package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/1023-Ventures/qlaunch/internal/config"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
)

// LinuxPolicy manages the systemd user unit written by the service manager.
type LinuxPolicy struct {
	serviceName string
	unitDir     string
	run         commandRunner
	log         logger.Logger
}

func NewLinuxPolicy(cfg *config.Config, log logger.Logger) (*LinuxPolicy, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locate systemd user directory: %w", err)
	}
	return &LinuxPolicy{
		serviceName: cfg.ServiceName(),
		unitDir:     filepath.Join(dir, "systemd", "user"),
		run:         defaultRunner,
		log:         log,
	}, nil
}

func (p *LinuxPolicy) ConfigureAutoStart(ctx context.Context) error {
	if _, err := p.run(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
		return err
	}
	if _, err := p.run(ctx, "systemctl", "--user", "enable", p.serviceName); err != nil {
		return err
	}
	p.log.Info("systemd user unit enabled", "service", p.serviceName)
	return nil
}

// ConfigureRestartPolicy writes a drop-in so restarts survive regeneration of
// the main unit file.
func (p *LinuxPolicy) ConfigureRestartPolicy(ctx context.Context) error {
	dropIn := p.dropInPath()
	if err := os.MkdirAll(filepath.Dir(dropIn), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dropIn, []byte(restartDropIn), 0o644); err != nil {
		return err
	}
	if _, err := p.run(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
		return err
	}
	p.log.Info("systemd restart policy installed", "path", dropIn)
	return nil
}

func (p *LinuxPolicy) dropInPath() string {
	return filepath.Join(p.unitDir, p.serviceName+".service.d", "restart.conf")
}

const restartDropIn = `[Service]
Restart=always
RestartSec=5
KillSignal=SIGTERM
TimeoutStopSec=30
`
