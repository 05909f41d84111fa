package execution

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Container layout shared with the tool images.
const (
	ContainerDir     = "/mcc-data"
	ContainerLogFile = ContainerDir + "/log"
)

// Docker defaults.
const (
	DefaultBinary   = "docker"
	DefaultRegistry = "mccpetrinets/"
	DefaultCommand  = "mcc-head"
)

// StopTimeout bounds the docker kill issued when a run is canceled, and the
// wait for output once the client is gone.
const StopTimeout = 30 * time.Second

// DockerExecutor runs each tool in its own container through the docker CLI.
type DockerExecutor struct {
	// Binary is the docker executable.
	Binary string
	// Registry is prepended to the lowercase tool name to form the image.
	Registry string
	// Command is the entry command run inside the container.
	Command string

	logger *slog.Logger
}

// NewDockerExecutor creates an executor with default binary, registry and
// command. Empty fields of the returned value may be overridden.
func NewDockerExecutor(logger *slog.Logger) *DockerExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DockerExecutor{
		Binary:   DefaultBinary,
		Registry: DefaultRegistry,
		Command:  DefaultCommand,
		logger:   logger,
	}
}

// Image returns the image name used for tool.
func (d *DockerExecutor) Image(tool string) string {
	return d.Registry + strings.ToLower(tool)
}

// Run starts the tool's container and blocks until it exits, streaming
// its combined output line by line to req.Output.
func (d *DockerExecutor) Run(ctx context.Context, req *Request) (*Result, error) {
	image := d.Image(req.Tool)
	if err := d.inspect(ctx, image); err != nil {
		return nil, err
	}

	name := containerName()
	args := d.runArgs(image, name, req)
	d.logger.Debug("Starting container", "image", image, "args", strings.Join(args, " "))

	//nolint:gosec // binary and image come from configuration, not untrusted input
	cmd := exec.CommandContext(ctx, d.Binary, args...)
	// Killing the docker client leaves the container running; kill it by name.
	cmd.Cancel = func() error {
		d.kill(name)
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = StopTimeout
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close() //nolint:errcheck
		return nil, fmt.Errorf("starting %s: %w", image, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			if req.Output != nil {
				req.Output(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil {
			d.logger.Warn("Dropping remaining tool output", "image", image, "error", err)
		}
		// Drain anything left after a scanner error so the process never blocks.
		io.Copy(io.Discard, pr) //nolint:errcheck
	}()

	waitErr := cmd.Wait()
	pw.Close() //nolint:errcheck
	wg.Wait()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("running %s: %w", image, ctx.Err())
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &Result{ExitCode: exitErr.ExitCode()}, nil
		}
		return nil, fmt.Errorf("running %s: %w", image, waitErr)
	}
	return &Result{ExitCode: 0}, nil
}

func (d *DockerExecutor) runArgs(image, name string, req *Request) []string {
	return []string{
		"run", "--rm",
		"--name", name,
		"--volume", req.Dir + ":" + ContainerDir + ":rw",
		"--workdir", ContainerDir,
		"--env", "BK_LOG_FILE=" + ContainerLogFile,
		"--env", "BK_EXAMINATION=" + req.Examination,
		"--env", "BK_TIME_CONFINEMENT=" + strconv.Itoa(req.TimeConfinement),
		"--env", "BK_INPUT=" + req.Instance,
		"--env", "BK_TOOL=" + strings.ToLower(req.Tool),
		image,
		d.Command,
	}
}

// kill stops the named container. Failures are only logged: the container
// may already be gone.
func (d *DockerExecutor) kill(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), StopTimeout)
	defer cancel()
	//nolint:gosec // see Run
	output, err := exec.CommandContext(ctx, d.Binary, "kill", name).CombinedOutput()
	if err != nil {
		d.logger.Warn("Failed to kill container", "name", name, "error", err, "output", strings.TrimSpace(string(output)))
		return
	}
	d.logger.Info("Killed container", "name", name)
}

func containerName() string {
	return "mcc4mcc-" + uuid.NewString()
}

// inspect checks that image exists locally.
func (d *DockerExecutor) inspect(ctx context.Context, image string) error {
	//nolint:gosec // see Run
	cmd := exec.CommandContext(ctx, d.Binary, "image", "inspect", "--format", "{{.Id}}", image)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		d.logger.Debug("Image inspection failed", "image", image, "output", strings.TrimSpace(string(output)))
		return fmt.Errorf("%s: %w", image, ErrImageNotFound)
	}
	return fmt.Errorf("inspecting %s: %w", image, err)
}
