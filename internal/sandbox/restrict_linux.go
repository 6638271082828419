//go:build linux

package sandbox

import (
	"fmt"
	"os"

	"github.com/landlock-lsm/go-landlock/landlock"

	"github.com/codefionn/execguard/internal/logger"
)

// RestrictProcess confines the calling process so that only writableRoots
// are writable and the rest of the filesystem is read-only. Restrictions
// are inherited by every child spawned afterwards, which is how sandboxed
// commands are executed on Linux: a helper process restricts itself and
// then execs the command.
//
// With bestEffort the strongest ruleset the kernel supports is applied;
// otherwise an old kernel is an error.
func RestrictProcess(writableRoots []string, bestEffort bool) error {
	var rules []landlock.Rule
	rules = append(rules, landlock.RODirs("/"))
	for _, root := range writableRoots {
		if _, err := os.Stat(root); err != nil {
			logger.Debug("sandbox: skipping missing writable root %s: %v", root, err)
			continue
		}
		rules = append(rules, landlock.RWDirs(root))
	}

	cfg := landlock.V6
	if bestEffort {
		cfg = cfg.BestEffort()
	}
	if err := cfg.RestrictPaths(rules...); err != nil {
		return fmt.Errorf("landlock restrict: %w", err)
	}
	logger.Info("sandbox: landlock restrictions applied, %d writable roots", len(writableRoots))
	return nil
}
