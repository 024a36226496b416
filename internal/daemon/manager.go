package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/1023-Ventures/qlaunch/internal/config"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/1023-Ventures/qlaunch/pkg/policy"
	kardianos "github.com/kardianos/service"
)

const policyTimeout = 30 * time.Second

// Manager installs and controls qlaunch as a per-user background service.
type Manager struct {
	cfg     *config.Config
	log     logger.Logger
	program *Program
}

func NewManager(cfg *config.Config, log logger.Logger) *Manager {
	return &Manager{cfg: cfg, log: log, program: NewProgram(cfg, log)}
}

// serviceConfig describes the unit the service manager runs: the binary with
// the serve command and the current workspace settings in its environment.
func serviceConfig(cfg *config.Config, goos string) *kardianos.Config {
	opts := kardianos.KeyValue{
		"KeepAlive": true,
		"RunAtLoad": true,
		"Restart":   "always",
	}
	if goos != "windows" {
		opts["UserService"] = true
	}
	env := map[string]string{
		"QLAUNCH_ADDR":            cfg.ListenAddr(),
		"QLAUNCH_WORKSPACE_ROOTS": strings.Join(cfg.WorkspaceRoots(), string(os.PathListSeparator)),
		"QLAUNCH_WORKSPACE_NAME":  cfg.WorkspaceName(),
		"QLAUNCH_LOG_FILE":        cfg.LogFile(),
		"QLAUNCH_LOG_LEVEL":       cfg.LogLevel(),
	}
	if f := cfg.WorkspaceFile(); f != "" {
		env["QLAUNCH_WORKSPACE_FILE"] = f
	}
	if p := cfg.WatchPatterns(); len(p) > 0 {
		env["QLAUNCH_WATCH_PATTERNS"] = strings.Join(p, ",")
	}
	return &kardianos.Config{
		Name:        cfg.ServiceName(),
		DisplayName: cfg.ServiceDisplayName(),
		Description: cfg.ServiceDescription(),
		Executable:  cfg.BinaryPath(),
		Arguments:   []string{"serve"},
		EnvVars:     env,
		Option:      opts,
	}
}

func (m *Manager) newService() (kardianos.Service, error) {
	return kardianos.New(m.program, serviceConfig(m.cfg, runtime.GOOS))
}

func (m *Manager) Install() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	if err := s.Install(); err != nil {
		if runtime.GOOS == "windows" {
			return fmt.Errorf("failed to install Windows service (requires administrator privileges): %w", err)
		}
		return fmt.Errorf("failed to install service: %w", err)
	}
	p, err := policy.NewServicePolicy(m.cfg, m.log)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), policyTimeout)
	defer cancel()
	if err := p.ConfigureAutoStart(ctx); err != nil {
		return fmt.Errorf("failed to configure auto-start: %w", err)
	}
	if err := p.ConfigureRestartPolicy(ctx); err != nil {
		return fmt.Errorf("failed to configure restart policy: %w", err)
	}
	if err := s.Start(); err != nil {
		m.log.Error("Failed to start service after install", "err", err)
		return err
	}
	return nil
}

func (m *Manager) Uninstall() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	if err := s.Stop(); err != nil {
		m.log.Warn("Service was not stopped before uninstall", "err", err)
	}
	return s.Uninstall()
}

func (m *Manager) Start() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	return s.Start()
}

func (m *Manager) Stop() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	return s.Stop()
}

func (m *Manager) Restart() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	return s.Restart()
}

// Run blocks until the service manager, or an interrupt when run interactively,
// stops the program.
func (m *Manager) Run() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	return s.Run()
}

// Status reports the installed service state as a word.
func (m *Manager) Status() (string, error) {
	s, err := m.newService()
	if err != nil {
		return "", err
	}
	st, err := s.Status()
	if err != nil {
		if errors.Is(err, kardianos.ErrNotInstalled) {
			return "not installed", nil
		}
		return "", err
	}
	switch st {
	case kardianos.StatusRunning:
		return "running", nil
	case kardianos.StatusStopped:
		return "stopped", nil
	default:
		return "unknown", nil
	}
}
