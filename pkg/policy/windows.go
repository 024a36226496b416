package policy

import (
	"context"

	"github.com/1023-Ventures/qlaunch/internal/config"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
)

type WindowsPolicy struct {
	serviceName string
	run         commandRunner
	log         logger.Logger
}

func NewWindowsPolicy(cfg *config.Config, log logger.Logger) *WindowsPolicy {
	return &WindowsPolicy{
		serviceName: cfg.ServiceName(),
		run:         defaultRunner,
		log:         log,
	}
}

func (p *WindowsPolicy) ConfigureAutoStart(ctx context.Context) error {
	_, err := p.run(ctx, "sc", "config", p.serviceName, "start=", "auto")
	if err != nil {
		p.log.Warn("Failed to configure Windows auto-start", "err", err)
		return err
	}
	p.log.Info("Windows auto-start configured")
	return nil
}

func (p *WindowsPolicy) ConfigureRestartPolicy(ctx context.Context) error {
	_, err := p.run(ctx,
		"sc", "failure", p.serviceName,
		"actions=restart/5000/restart/5000/restart/5000",
		"reset=86400",
	)
	if err != nil {
		p.log.Warn("Failed to configure Windows restart policy", "err", err)
		return err
	}
	p.log.Info("Windows restart policy configured")
	return nil
}
