package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newCommand(fn RunFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "align", RunE: Run(fn)}
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	AddCommonFlags(cmd)
	return cmd
}

func TestRunLogsErrorToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "mapcrop.log")
	failure := errors.New("offsets file is broken")

	cmd := newCommand(func(env *Env, cmd *cobra.Command, args []string) error {
		return failure
	})
	cmd.SetArgs([]string{"--log-file", logPath, "--log-level", "info"})

	err := cmd.Execute()
	if !errors.Is(err, failure) {
		t.Fatalf("expected wrapped failure, got %v", err)
	}
	var logged loggedError
	if !errors.As(err, &logged) {
		t.Errorf("expected error to be marked as logged, got %T", err)
	}

	data, readErr := os.ReadFile(logPath)
	if readErr != nil {
		t.Fatalf("log file not written: %v", readErr)
	}
	if !strings.Contains(string(data), "offsets file is broken") {
		t.Errorf("error missing from log file: %s", data)
	}
}

func TestRunPassesEnv(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "mapcrop.log")

	var got *Env
	cmd := newCommand(func(env *Env, cmd *cobra.Command, args []string) error {
		got = env
		return nil
	})
	cmd.SetArgs([]string{"--log-file", logPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got == nil || got.Config == nil || got.Logger == nil {
		t.Fatalf("env not initialized: %+v", got)
	}
	if got.Config.LogFilePath != logPath {
		t.Errorf("log-file flag not applied: %s", got.Config.LogFilePath)
	}
}

func TestRunInitErrorIsNotMarkedLogged(t *testing.T) {
	cmd := newCommand(func(env *Env, cmd *cobra.Command, args []string) error {
		t.Error("run must not be called when the logger cannot be created")
		return nil
	})
	cmd.SetArgs([]string{"--log-file", filepath.Join(t.TempDir(), "x.log"), "--log-level", "loud"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for invalid log level")
	}
	var logged loggedError
	if errors.As(err, &logged) {
		t.Error("init errors must be printed by Execute, not treated as logged")
	}
}
