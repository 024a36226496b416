package daemon

import (
	"context"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/config"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	kardianos "github.com/kardianos/service"
)

const stopTimeout = 15 * time.Second

// Program adapts Application to the service manager lifecycle.
type Program struct {
	config *config.Config
	log    logger.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func NewProgram(cfg *config.Config, log logger.Logger) *Program {
	return &Program{config: cfg, log: log}
}

// kardianos.Interface implementation
func (p *Program) Start(s kardianos.Service) error {
	p.log.Info("Starting service", "service", s.String(), "platform", s.Platform())
	ctx, cancel := context.WithCancel(context.Background())
	app, err := NewApplication(ctx, p.config, p.log)
	if err != nil {
		cancel()
		return err
	}
	p.cancel = cancel
	p.done = make(chan struct{})
	go func() {
		defer close(p.done)
		if err := app.Run(ctx); err != nil {
			p.log.Error("qlaunch exited", "err", err)
		}
	}()
	return nil
}

func (p *Program) Stop(s kardianos.Service) error {
	p.log.Info("Stopping service", "service", s.String())
	if p.cancel == nil {
		return nil
	}
	p.cancel()
	select {
	case <-p.done:
	case <-time.After(stopTimeout):
		p.log.Warn("Timed out waiting for qlaunch to stop")
	}
	return nil
}
