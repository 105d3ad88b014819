// Package main runs the rockets, messages, and consumer processes in one
// container and stops them together.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	entrypoint "github.com/louisbranch/rocketwatch/internal/platform/cmd"
	"github.com/louisbranch/rocketwatch/internal/platform/config"
	"github.com/louisbranch/rocketwatch/internal/platform/timeouts"
)

// stackConfig holds the supervisor settings. Child processes read their own
// ROCKETWATCH_ variables from the shared environment.
type stackConfig struct {
	BinDir string `env:"BIN_DIR" envDefault:"/app"`
}

// childProcess describes a managed child command.
type childProcess struct {
	name string
	cmd  *exec.Cmd
}

// processExit reports a child process exit result.
type processExit struct {
	name string
	err  error
}

func main() {
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceStack))
	var cfg stackConfig
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	children := make([]*childProcess, 0, 3)
	for _, cmd := range childCommands(cfg.BinDir) {
		child, err := startChild(cmd)
		if err != nil {
			terminateChildren(children)
			log.Fatalf("failed to start stack: %v", err)
		}
		children = append(children, child)
	}

	exitCh := make(chan processExit, len(children))
	for _, child := range children {
		go waitChild(child, exitCh)
	}

	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received")
		terminateChildren(children)
		waitForChildren(exitCh, len(children), children)
	case exit := <-exitCh:
		log.Printf("%s exited: %v", exit.name, exit.err)
		terminateChildren(children)
		waitForChildren(exitCh, len(children)-1, children)
		os.Exit(exitCode(exit.err))
	}
}

// childCommands lists the service binaries in start order. The query service
// comes first so the schema exists before the consumer writes.
func childCommands(binDir string) []*exec.Cmd {
	services := []string{entrypoint.ServiceRockets, entrypoint.ServiceMessages, entrypoint.ServiceConsumer}
	cmds := make([]*exec.Cmd, 0, len(services))
	for _, service := range services {
		cmds = append(cmds, exec.Command(filepath.Join(binDir, service)))
	}
	return cmds
}

// startChild starts a child process with inherited stdio streams.
func startChild(cmd *exec.Cmd) (*childProcess, error) {
	name := filepath.Base(cmd.Path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	return &childProcess{name: name, cmd: cmd}, nil
}

func waitChild(child *childProcess, exitCh chan<- processExit) {
	err := child.cmd.Wait()
	exitCh <- processExit{name: child.name, err: err}
}

func terminateChildren(children []*childProcess) {
	for _, child := range children {
		if child == nil || child.cmd == nil || child.cmd.Process == nil {
			continue
		}
		_ = child.cmd.Process.Signal(syscall.SIGTERM)
	}
}

// waitForChildren waits for the remaining exits, then kills stragglers once
// the shutdown grace period elapses.
func waitForChildren(exitCh <-chan processExit, remaining int, children []*childProcess) {
	if remaining <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()

	for remaining > 0 {
		select {
		case exit := <-exitCh:
			log.Printf("%s stopped: %v", exit.name, exit.err)
			remaining--
		case <-ctx.Done():
			forceKill(children)
			return
		}
	}
}

func forceKill(children []*childProcess) {
	for _, child := range children {
		if child == nil || child.cmd == nil || child.cmd.Process == nil {
			continue
		}
		if child.cmd.ProcessState != nil {
			continue
		}
		_ = child.cmd.Process.Kill()
	}
}

// exitCode derives a process exit code from a wait error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
