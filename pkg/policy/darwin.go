package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/1023-Ventures/qlaunch/internal/config"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
)

// DarwinPolicy manages the launchd agent in the user's GUI domain.
type DarwinPolicy struct {
	serviceName string
	uid         int
	run         commandRunner
	log         logger.Logger
}

func NewDarwinPolicy(cfg *config.Config, log logger.Logger) *DarwinPolicy {
	return &DarwinPolicy{
		serviceName: cfg.ServiceName(),
		uid:         os.Getuid(),
		run:         defaultRunner,
		log:         log,
	}
}

func (p *DarwinPolicy) ConfigureAutoStart(ctx context.Context) error {
	if _, err := p.run(ctx, "launchctl", "enable", p.target()); err != nil {
		return err
	}
	p.log.Info("launchd agent enabled", "target", p.target())
	return nil
}

func (p *DarwinPolicy) ConfigureRestartPolicy(context.Context) error {
	p.log.Info("launchd restart policy enforced via KeepAlive")
	return nil
}

func (p *DarwinPolicy) target() string {
	return fmt.Sprintf("gui/%d/%s", p.uid, p.serviceName)
}
