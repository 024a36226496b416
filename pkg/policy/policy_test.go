package policy

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1023-Ventures/qlaunch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRun struct {
	calls []string
	fail  string
}

func (r *recordedRun) run(_ context.Context, name string, args ...string) (string, error) {
	call := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, call)
	if r.fail != "" && strings.Contains(call, r.fail) {
		return "", errors.New("exit status 1")
	}
	return "", nil
}

func TestLinuxPolicyEnablesUserUnit(t *testing.T) {
	rec := &recordedRun{}
	p := &LinuxPolicy{serviceName: "qlaunch", unitDir: t.TempDir(), run: rec.run, log: logger.Discard()}

	require.NoError(t, p.ConfigureAutoStart(context.Background()))
	assert.Equal(t, []string{
		"systemctl --user daemon-reload",
		"systemctl --user enable qlaunch",
	}, rec.calls)
}

func TestLinuxPolicyWritesRestartDropIn(t *testing.T) {
	dir := t.TempDir()
	rec := &recordedRun{}
	p := &LinuxPolicy{serviceName: "qlaunch", unitDir: dir, run: rec.run, log: logger.Discard()}

	require.NoError(t, p.ConfigureRestartPolicy(context.Background()))
	content, err := os.ReadFile(filepath.Join(dir, "qlaunch.service.d", "restart.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Restart=always")
	assert.Equal(t, []string{"systemctl --user daemon-reload"}, rec.calls)
}

func TestLinuxPolicyStopsOnFailedEnable(t *testing.T) {
	rec := &recordedRun{fail: "enable"}
	p := &LinuxPolicy{serviceName: "qlaunch", unitDir: t.TempDir(), run: rec.run, log: logger.Discard()}
	assert.Error(t, p.ConfigureAutoStart(context.Background()))
}

func TestDarwinPolicyTargetsGUIDomain(t *testing.T) {
	rec := &recordedRun{}
	p := &DarwinPolicy{serviceName: "qlaunch", uid: 501, run: rec.run, log: logger.Discard()}

	require.NoError(t, p.ConfigureAutoStart(context.Background()))
	require.NoError(t, p.ConfigureRestartPolicy(context.Background()))
	assert.Equal(t, []string{"launchctl enable gui/501/qlaunch"}, rec.calls)
}

func TestWindowsPolicyUsesServiceControl(t *testing.T) {
	rec := &recordedRun{}
	p := &WindowsPolicy{serviceName: "qlaunch", run: rec.run, log: logger.Discard()}

	require.NoError(t, p.ConfigureAutoStart(context.Background()))
	require.NoError(t, p.ConfigureRestartPolicy(context.Background()))
	assert.Equal(t, []string{
		"sc config qlaunch start= auto",
		"sc failure qlaunch actions=restart/5000/restart/5000/restart/5000 reset=86400",
	}, rec.calls)

	var buf bytes.Buffer
	failing := &WindowsPolicy{
		serviceName: "qlaunch",
		run:         (&recordedRun{fail: "failure"}).run,
		log:         slog.New(slog.NewTextHandler(&buf, nil)),
	}
	assert.Error(t, failing.ConfigureRestartPolicy(context.Background()))
	assert.Contains(t, buf.String(), "Failed to configure Windows restart policy")
}

func TestPoliciesLogToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	p := &DarwinPolicy{serviceName: "qlaunch", uid: 501, run: (&recordedRun{}).run, log: log}

	require.NoError(t, p.ConfigureAutoStart(context.Background()))
	assert.Contains(t, buf.String(), "launchd agent enabled")
	assert.Contains(t, buf.String(), "gui/501/qlaunch")
}
