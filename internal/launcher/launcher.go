// Package launcher opens paths with the operating system, the editor or a
// terminal on behalf of UI clients.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/1023-Ventures/qlaunch/internal/models"
	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/1023-Ventures/qlaunch/pkg/utils"
)

const ExplorerCommand = "workbench.view.explorer"

var (
	ErrNoEditor            = errors.New("no editor connected")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// CommandRunner runs an external program to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// EditorBridge delivers messages to connected editor clients.
type EditorBridge interface {
	SendToRole(role string, msg models.Message) int
}

// Broadcaster delivers messages to UI clients.
type Broadcaster interface {
	Broadcast(msg models.Message)
}

type TerminalOpener interface {
	Open(name, cwd string) (models.TerminalInfo, error)
}

type Options struct {
	// EditorCommand is used when no editor bridge is connected, e.g. "code -r".
	EditorCommand string
	// GOOS selects the system opener; empty means runtime.GOOS.
	GOOS   string
	Run    CommandRunner
	Logger logger.Logger
}

// Launcher implements host.Launcher.
type Launcher struct {
	bridge    EditorBridge
	ui        Broadcaster
	terminals TerminalOpener
	editorCmd []string
	goos      string
	run       CommandRunner
	log       logger.Logger
}

func New(bridge EditorBridge, ui Broadcaster, terminals TerminalOpener, opts Options) *Launcher {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Run == nil {
		opts.Run = utils.RunCommand
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	editor := strings.Fields(opts.EditorCommand)
	if len(editor) == 0 {
		editor = []string{"code"}
	}
	return &Launcher{
		bridge:    bridge,
		ui:        ui,
		terminals: terminals,
		editorCmd: editor,
		goos:      opts.GOOS,
		run:       opts.Run,
		log:       opts.Logger,
	}
}

// OpenExternal opens path with the system default application.
func (l *Launcher) OpenExternal(ctx context.Context, path string) error {
	var err error
	switch l.goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		_, err = l.run(ctx, "xdg-open", path)
	case "darwin":
		_, err = l.run(ctx, "open", path)
	case "windows":
		_, err = l.run(ctx, "rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return fmt.Errorf("open %s on %s: %w", path, l.goos, ErrUnsupportedPlatform)
	}
	return err
}

// OpenInEditor asks a connected editor to show path, falling back to the
// configured editor command.
func (l *Launcher) OpenInEditor(ctx context.Context, path string) error {
	msg := models.Message{Type: models.EditorMsgOpenDocument, Payload: models.OpenDocument{Path: path}}
	if l.bridge != nil && l.bridge.SendToRole(models.RoleEditor, msg) > 0 {
		return nil
	}
	args := append(append([]string{}, l.editorCmd[1:]...), path)
	_, err := l.run(ctx, l.editorCmd[0], args...)
	return err
}

func (l *Launcher) OpenTerminal(_ context.Context, cwd string) error {
	if l.terminals == nil {
		return errors.New("terminals unavailable")
	}
	info, err := l.terminals.Open("Terminal - "+filepath.Base(cwd), cwd)
	if err != nil {
		return err
	}
	l.log.Debug("Opened terminal", "id", info.ID, "cwd", cwd)
	return nil
}

// ExecuteCommand runs an editor command in every connected editor.
func (l *Launcher) ExecuteCommand(_ context.Context, command string) error {
	msg := models.Message{Type: models.EditorMsgExecuteCommand, Payload: models.ExecuteCommand{Command: command}}
	if l.bridge == nil || l.bridge.SendToRole(models.RoleEditor, msg) == 0 {
		return fmt.Errorf("execute %s: %w", command, ErrNoEditor)
	}
	return nil
}

// ShowErrorMessage reports message to UI and editor clients.
func (l *Launcher) ShowErrorMessage(message string) {
	payload := models.ErrorMessage{Message: message, Timestamp: models.Now()}
	if l.ui != nil {
		l.ui.Broadcast(models.Message{Type: models.MsgShowErrorMessage, Payload: payload})
	}
	if l.bridge != nil {
		l.bridge.SendToRole(models.RoleEditor, models.Message{Type: models.EditorMsgShowErrorMessage, Payload: payload})
	}
}

// OpenWithOS dispatches on the requested open method. Unknown methods use the
// system default. Failures are logged and shown to the user.
func (l *Launcher) OpenWithOS(ctx context.Context, path, method string) error {
	if method == "" {
		method = models.OpenDefault
	}
	l.log.Info("Opening file", "path", path, "method", method)

	var err error
	switch method {
	case models.OpenVSCode:
		err = l.OpenInEditor(ctx, path)
	case models.OpenExplorer, models.OpenFolder:
		err = l.OpenExternal(ctx, filepath.Dir(path))
	case models.OpenVSCodeTerminal:
		err = l.OpenTerminal(ctx, filepath.Dir(path))
	default:
		err = l.OpenExternal(ctx, path)
	}
	if err != nil {
		l.log.Error("Failed to open file", "path", path, "method", method, "err", err)
		l.ShowErrorMessage(fmt.Sprintf("Failed to open file with %s method: %s. %v", method, path, err))
		return err
	}
	return nil
}

// OpenTerminalAt opens a terminal in folder, reporting failures to the user.
func (l *Launcher) OpenTerminalAt(ctx context.Context, folder string) error {
	l.log.Info("Opening terminal", "path", folder)
	if err := l.OpenTerminal(ctx, folder); err != nil {
		l.log.Error("Failed to open terminal", "path", folder, "err", err)
		l.ShowErrorMessage(fmt.Sprintf("Failed to open terminal at: %s. %v", folder, err))
		return err
	}
	return nil
}

// SwitchToExplorer focuses the file explorer in connected editors.
func (l *Launcher) SwitchToExplorer(ctx context.Context) error {
	l.log.Info("Switching editor to explorer view")
	return l.ExecuteCommand(ctx, ExplorerCommand)
}
