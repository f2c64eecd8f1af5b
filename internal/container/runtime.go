// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container finds a local container runtime and runs analyzer images
// with the PDF on stdin and model records on stdout.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Supported runtime names, in detection order.
const (
	Docker = "docker"
	Podman = "podman"
)

// Runtime runs analyzer images.
type Runtime interface {
	// Name is the client binary, docker or podman.
	Name() string

	// Available reports whether the client is on PATH and its daemon answers.
	Available() bool

	// ImageExists returns an error when image is not present locally.
	ImageExists(image string) error

	// Run starts image with args after the image name. stdin and stdout are
	// attached to the container; cancelling ctx kills the client.
	Run(ctx context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error
}

type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// RunPiped keeps the tail of stderr so a failing container explains itself.
func (osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// client is a docker-compatible CLI. The two supported clients differ only
// in how they check for a local image.
type client struct {
	bin     string
	inspect []string
	exec    executor
}

// inspectArgs maps each supported client to its image check subcommand.
var inspectArgs = map[string][]string{
	Docker: {"image", "inspect"},
	Podman: {"image", "exists"},
}

func newClient(name string, e executor) (*client, error) {
	args, ok := inspectArgs[name]
	if !ok {
		return nil, fmt.Errorf("unsupported container runtime %q (want %s or %s)", name, Docker, Podman)
	}
	return &client{bin: name, inspect: args, exec: e}, nil
}

func (c *client) Name() string { return c.bin }

func (c *client) Available() bool {
	if _, err := c.exec.LookPath(c.bin); err != nil {
		return false
	}
	return c.exec.RunSilent(c.bin, "info") == nil
}

func (c *client) ImageExists(image string) error {
	args := append(append([]string(nil), c.inspect...), image)
	if err := c.exec.RunSilent(c.bin, args...); err != nil {
		return fmt.Errorf("%s has no local image %s: %w", c.bin, image, err)
	}
	return nil
}

func (c *client) Run(ctx context.Context, image string, args []string, stdin io.Reader, stdout io.Writer) error {
	full := append([]string{"run", "--rm", "-i", image}, args...)
	if err := c.exec.RunPiped(ctx, c.bin, full, stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", c.bin, image, err)
	}
	return nil
}

// Select returns the named runtime, or the first available of docker and
// podman when name is empty. A named runtime must be available.
func Select(name string) (Runtime, error) {
	return selectRuntime(name, osExecutor{})
}

func selectRuntime(name string, e executor) (Runtime, error) {
	candidates := []string{Docker, Podman}
	if name != "" {
		candidates = []string{name}
	}
	for _, n := range candidates {
		c, err := newClient(n, e)
		if err != nil {
			return nil, err
		}
		if c.Available() {
			return c, nil
		}
	}
	if name != "" {
		return nil, fmt.Errorf("container runtime %s is not available", name)
	}
	return nil, fmt.Errorf("no container runtime available: tried %s", strings.Join(candidates, ", "))
}
