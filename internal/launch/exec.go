package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dhavalsavalia/camlaunch/internal/device"
	"github.com/rs/zerolog/log"
)

// ExecActivator starts a command for each request. The command is expected
// to focus an existing instance of the application rather than open a
// second one.
type ExecActivator struct {
	command    string
	args       []string
	workingDir string
}

// NewExecActivator creates an activator running command with args.
// Args may contain {{source}}, {{timestamp}} and {{devices}}.
func NewExecActivator(command string, args []string, workingDir string) *ExecActivator {
	return &ExecActivator{
		command:    command,
		args:       args,
		workingDir: workingDir,
	}
}

// Activate starts the command and returns without waiting for it. The
// process is reaped in the background and outlives ctx.
func (a *ExecActivator) Activate(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := exec.Command(a.command, a.expandArgs(req)...)
	if a.workingDir != "" {
		cmd.Dir = a.workingDir
	}
	cmd.Env = append(os.Environ(), requestEnv(req)...)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", a.command, err)
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Warn().Err(err).Str("command", a.command).Msg("launch command exited with error")
		}
	}()
	return nil
}

func (a *ExecActivator) expandArgs(req Request) []string {
	r := strings.NewReplacer(
		"{{source}}", req.Source,
		"{{timestamp}}", strconv.FormatInt(req.TimestampMillis(), 10),
		"{{devices}}", joinKeys(req.Devices),
	)
	args := make([]string, len(a.args))
	for i, arg := range a.args {
		args[i] = r.Replace(arg)
	}
	return args
}

func requestEnv(req Request) []string {
	return []string{
		"CAMLAUNCH_AUTO_LAUNCH=" + strconv.FormatBool(req.AutoLaunch),
		"CAMLAUNCH_SOURCE=" + req.Source,
		"CAMLAUNCH_TIMESTAMP=" + strconv.FormatInt(req.TimestampMillis(), 10),
		"CAMLAUNCH_DEVICES=" + joinKeys(req.Devices),
	}
}

func joinKeys(keys []device.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}
