// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testImage = "pdfbatch-analyzer:latest"

type mockExecutor struct {
	availableBins map[string]bool // binary -> whether LookPath succeeds
	runnableCmds  map[string]bool // "bin arg1 arg2" -> whether RunSilent succeeds
	runPipedFunc  func(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	if m.runPipedFunc != nil {
		return m.runPipedFunc(ctx, name, args, stdin, stdout)
	}
	return nil
}

func TestSelectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		want     string
		bins     map[string]bool
		cmds     map[string]bool
		wantName string
		wantErr  string
	}{
		{"docker available", "", map[string]bool{"docker": true}, map[string]bool{"docker info": true}, "docker", ""},
		{"podman fallback", "", map[string]bool{"podman": true}, map[string]bool{"podman info": true}, "podman", ""},
		{"docker daemon down", "", map[string]bool{"docker": true, "podman": true}, map[string]bool{"podman info": true}, "podman", ""},
		{"docker first", "", map[string]bool{"docker": true, "podman": true}, map[string]bool{"docker info": true, "podman info": true}, "docker", ""},
		{"neither", "", nil, nil, "", "no container runtime available"},
		{"podman requested", "podman", map[string]bool{"docker": true, "podman": true}, map[string]bool{"docker info": true, "podman info": true}, "podman", ""},
		{"requested missing", "podman", map[string]bool{"docker": true}, map[string]bool{"docker info": true}, "", "podman is not available"},
		{"unsupported", "containerd", nil, nil, "", "unsupported container runtime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := selectRuntime(tt.want, &mockExecutor{availableBins: tt.bins, runnableCmds: tt.cmds})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, rt.Name())
		})
	}
}

func mustClient(t *testing.T, name string, e executor) Runtime {
	t.Helper()
	c, err := newClient(name, e)
	require.NoError(t, err)
	return c
}

func TestImageExists(t *testing.T) {
	docker := mustClient(t, Docker, &mockExecutor{runnableCmds: map[string]bool{"docker image inspect " + testImage: true}})
	assert.NoError(t, docker.ImageExists(testImage))

	podman := mustClient(t, Podman, &mockExecutor{runnableCmds: map[string]bool{"podman image exists " + testImage: true}})
	assert.NoError(t, podman.ImageExists(testImage))

	err := mustClient(t, Docker, &mockExecutor{}).ImageExists(testImage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), testImage)
}

func TestRunPassesArgsAfterImage(t *testing.T) {
	var gotName string
	var gotArgs []string
	exec := &mockExecutor{runPipedFunc: func(_ context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
		gotName, gotArgs = name, args
		data, _ := io.ReadAll(stdin)
		_, _ = stdout.Write([]byte("analyzed " + string(data)))
		return nil
	}}

	var out bytes.Buffer
	err := mustClient(t, Podman, exec).Run(context.Background(), testImage, []string{"analyze", "--method", "ocr"}, strings.NewReader("pdf"), &out)
	require.NoError(t, err)
	assert.Equal(t, "podman", gotName)
	assert.Equal(t, []string{"run", "--rm", "-i", testImage, "analyze", "--method", "ocr"}, gotArgs)
	assert.Equal(t, "analyzed pdf", out.String())
}

func TestRunWrapsFailure(t *testing.T) {
	exec := &mockExecutor{runPipedFunc: func(context.Context, string, []string, io.Reader, io.Writer) error {
		return errors.New("exit status 1: model weights missing")
	}}
	err := mustClient(t, Docker, exec).Run(context.Background(), testImage, nil, strings.NewReader(""), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running docker container "+testImage)
	assert.Contains(t, err.Error(), "model weights missing")
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "fatal: boom", lastLine("loading\nfatal: boom\n"))
	assert.Equal(t, "", lastLine("  \n"))
}
