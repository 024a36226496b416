package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds qlaunch configuration. Fields are unexported to prevent modification.
type Config struct {
	listenAddr         string
	workspaceRoots     []string
	workspaceName      string
	workspaceFile      string
	watchPatterns      []string
	allowedOrigins     []string
	throttleWindow     time.Duration
	settleWindow       time.Duration
	editorCommand      string
	shell              string
	logFile            string
	logLevel           string
	serviceName        string
	serviceDisplayName string
	serviceDescription string
	binaryPath         string
}

// defaultBinaryPath prefers the running executable so an install registers the
// binary the user invoked.
func defaultBinaryPath() string {
	if exe, err := os.Executable(); err == nil {
		return exe
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "qlaunch", "qlaunch.exe")
	case "darwin", "linux":
		return "/usr/local/bin/qlaunch"
	default:
		return ""
	}
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	if runtime.GOOS == "windows" {
		return "cmd.exe"
	}
	return "/bin/sh"
}

func New() *Config {
	_ = godotenv.Load() // ignore error if .env not found

	roots := splitList(os.Getenv("QLAUNCH_WORKSPACE_ROOTS"), string(os.PathListSeparator))
	if len(roots) == 0 {
		if wd, err := os.Getwd(); err == nil {
			roots = []string{wd}
		}
	}
	for i, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			roots[i] = abs
		}
	}

	workspaceName := os.Getenv("QLAUNCH_WORKSPACE_NAME")
	if workspaceName == "" {
		if len(roots) > 0 {
			workspaceName = filepath.Base(roots[0])
		} else {
			workspaceName = "No workspace"
		}
	}

	cfg := &Config{
		listenAddr:         envOr("QLAUNCH_ADDR", "127.0.0.1:7531"),
		workspaceRoots:     roots,
		workspaceName:      workspaceName,
		workspaceFile:      os.Getenv("QLAUNCH_WORKSPACE_FILE"),
		watchPatterns:      splitList(os.Getenv("QLAUNCH_WATCH_PATTERNS"), ","),
		allowedOrigins:     splitList(os.Getenv("QLAUNCH_ALLOWED_ORIGINS"), ","),
		throttleWindow:     envMillis("QLAUNCH_THROTTLE_MS", 500),
		settleWindow:       envMillis("QLAUNCH_SETTLE_MS", 50),
		editorCommand:      envOr("QLAUNCH_EDITOR", "code"),
		shell:              envOr("QLAUNCH_SHELL", defaultShell()),
		logFile:            envOr("QLAUNCH_LOG_FILE", "qlaunch.log"),
		logLevel:           envOr("QLAUNCH_LOG_LEVEL", "info"),
		serviceName:        envOr("SERVICE_NAME", "qlaunch"),
		serviceDisplayName: envOr("SERVICE_DISPLAY_NAME", "qlaunch workspace host"),
		serviceDescription: envOr("SERVICE_DESCRIPTION", "Serves workspace metadata and quick-launch actions to the qlaunch UI"),
	}
	cfg.binaryPath = defaultBinaryPath()
	return cfg
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envMillis(key string, fallback int) time.Duration {
	ms, err := strconv.Atoi(os.Getenv(key))
	if err != nil || ms <= 0 {
		ms = fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func splitList(raw, sep string) []string {
	var out []string
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Getter methods (immutable from outside)

func (c *Config) ListenAddr() string {
	return c.listenAddr
}

func (c *Config) WorkspaceRoots() []string {
	return append([]string(nil), c.workspaceRoots...)
}

func (c *Config) WorkspaceName() string {
	return c.workspaceName
}

func (c *Config) WorkspaceFile() string {
	return c.workspaceFile
}

// WatchPatterns returns the configured startup patterns; nil means use the defaults.
func (c *Config) WatchPatterns() []string {
	return append([]string(nil), c.watchPatterns...)
}

// AllowedOrigins lists browser origins accepted in addition to loopback ones.
func (c *Config) AllowedOrigins() []string {
	return append([]string(nil), c.allowedOrigins...)
}

func (c *Config) ThrottleWindow() time.Duration {
	return c.throttleWindow
}

func (c *Config) SettleWindow() time.Duration {
	return c.settleWindow
}

func (c *Config) EditorCommand() string {
	return c.editorCommand
}

func (c *Config) Shell() string {
	return c.shell
}

func (c *Config) LogFile() string {
	return c.logFile
}

func (c *Config) LogLevel() string {
	return c.logLevel
}

func (c *Config) ServiceName() string {
	return c.serviceName
}

func (c *Config) ServiceDisplayName() string {
	return c.serviceDisplayName
}

func (c *Config) ServiceDescription() string {
	return c.serviceDescription
}

func (c *Config) BinaryPath() string {
	return c.binaryPath
}

// BaseURL is the http URL clients use to reach the daemon.
func (c *Config) BaseURL() string {
	return "http://" + c.listenAddr
}
