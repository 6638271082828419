//go:build linux

package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/codefionn/execguard/internal/sandbox"
)

// runLandlockHelper applies Landlock to the current process and then execs
// the wrapped command, which inherits the restrictions. Argument shape:
//
//	--landlock-helper [--best-effort] [--writable=<root>]... -- <command> [args...]
func runLandlockHelper(args []string) error {
	var writableRoots []string
	var command []string
	bestEffort := false
	for i, arg := range args {
		if arg == "--" {
			command = args[i+1:]
			break
		}
		if arg == "--best-effort" {
			bestEffort = true
			continue
		}
		if strings.HasPrefix(arg, "--writable=") {
			writableRoots = append(writableRoots, strings.TrimPrefix(arg, "--writable="))
			continue
		}
		return fmt.Errorf("unexpected helper argument: %s", arg)
	}
	if len(command) == 0 {
		return fmt.Errorf("missing command after --")
	}

	if err := sandbox.RestrictProcess(writableRoots, bestEffort); err != nil {
		return err
	}

	path, err := exec.LookPath(command[0])
	if err != nil {
		return fmt.Errorf("command not found: %s", command[0])
	}
	return unix.Exec(path, command, os.Environ())
}
