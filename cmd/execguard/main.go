package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/codefionn/execguard/internal/audit"
	"github.com/codefionn/execguard/internal/config"
	"github.com/codefionn/execguard/internal/execsession"
	"github.com/codefionn/execguard/internal/logger"
	"github.com/codefionn/execguard/internal/pidfile"
	"github.com/codefionn/execguard/internal/safety"
	"github.com/codefionn/execguard/internal/sandbox"
	"github.com/codefionn/execguard/internal/tools"
	"github.com/codefionn/execguard/internal/trust"
)

func main() {
	// Sandboxed commands on Linux re-enter this binary so the helper can
	// apply Landlock to itself before exec'ing the real command.
	if len(os.Args) > 1 && os.Args[1] == "--landlock-helper" {
		if err := runLandlockHelper(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.GetConfigPath(), "Path to the configuration file")
	workdir := flag.String("workdir", "", "Working directory override")
	approvalFlag := flag.String("approval", "", "Approval policy override (never, on-failure, on-request, untrusted)")
	sandboxFlag := flag.String("sandbox", "", "Sandbox mode override (read-only, workspace-write, danger-full-access)")
	trustRulesFlag := flag.String("trust-rules", "", "Trust rule file override")
	logLevelFlag := flag.String("log-level", "", "Log level override (debug, info, warn, error, none)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *workdir != "" {
		cfg.WorkingDir = *workdir
	}
	if *approvalFlag != "" {
		cfg.ApprovalPolicy = *approvalFlag
	}
	if *sandboxFlag != "" {
		cfg.Sandbox.Mode = *sandboxFlag
	}
	if *trustRulesFlag != "" {
		cfg.TrustRulesPath = *trustRulesFlag
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}

	if err := logger.Init(logger.ParseLevel(cfg.LogLevel), cfg.LogPath); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Global().Close()
	slog.SetDefault(slog.New(logger.NewSlogHandler(logger.Global())))

	approvalPolicy, err := safety.ParseApprovalPolicy(cfg.ApprovalPolicy)
	if err != nil {
		return err
	}
	sandboxMode, err := safety.ParseSandboxMode(cfg.Sandbox.Mode)
	if err != nil {
		return err
	}
	sandboxPolicy := safety.SandboxPolicy{
		Mode:                sandboxMode,
		WritableRoots:       cfg.Sandbox.WritableRoots,
		NetworkAccess:       cfg.Sandbox.NetworkAccess,
		ExcludeTmpdirEnvVar: cfg.Sandbox.ExcludeTmpdirEnv,
		ExcludeSlashTmp:     cfg.Sandbox.ExcludeSlashTmp,
	}

	cwd := cfg.WorkingDir
	if cwd == "." || cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		}
	}

	platform := sandbox.Detect()
	logger.Info("platform sandbox: %s", platform)

	store := trust.NewStore(trust.RuleSet{})
	if cfg.TrustRulesPath != "" {
		rules, err := trust.LoadRules(cfg.TrustRulesPath)
		if err != nil {
			return fmt.Errorf("failed to load trust rules: %w", err)
		}
		store.Replace(rules)
		watcher, err := trust.NewWatcher(cfg.TrustRulesPath, store)
		if err != nil {
			logger.Warn("trust rule reload disabled: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	var recorder *audit.Recorder
	if cfg.AuditDBPath != "" {
		release, err := pidfile.Acquire(cfg.AuditDBPath + ".pid")
		if err != nil {
			return err
		}
		defer release()

		recorder, err = audit.NewRecorder(cfg.AuditDBPath)
		if err != nil {
			return fmt.Errorf("failed to open audit database: %w", err)
		}
		defer recorder.Close()
	}

	helperPath, err := os.Executable()
	if err != nil {
		logger.Warn("cannot determine own executable, landlock wrapping disabled: %v", err)
		helperPath = ""
	}

	engine := safety.NewEngine(store.Predicate(), platform)
	manager := execsession.NewManager(execsession.Options{
		Engine:            engine,
		ApprovalPolicy:    approvalPolicy,
		SandboxPolicy:     sandboxPolicy,
		Approved:          trust.NewApproved(),
		Cwd:               cwd,
		MaxSessions:       cfg.Sessions.MaxSessions,
		ProtectedRecent:   cfg.Sessions.ProtectedRecent,
		DeterministicIDs:  cfg.Sessions.DeterministicIDs,
		HelperPath:        helperPath,
		SandboxBestEffort: cfg.Sandbox.BestEffortLinux,
		Audit:             recorder,
	})
	defer manager.TerminateAll()

	defaults := tools.SessionDefaults{
		ExecYield:       time.Duration(cfg.Sessions.DefaultYieldMs) * time.Millisecond,
		StdinYield:      time.Duration(cfg.Sessions.StdinYieldMs) * time.Millisecond,
		MaxOutputTokens: cfg.Sessions.MaxOutputTokens,
	}
	registry := tools.NewRegistry(
		tools.NewExecCommandTool(manager, defaults),
		tools.NewWriteStdinTool(manager, defaults),
		tools.NewRecoverErrorTool(cwd, cfg.Recovery.MaxRetries,
			time.Duration(cfg.Recovery.BaseDelayMs)*time.Millisecond),
	)

	return serve(context.Background(), registry, os.Stdin, os.Stdout)
}

// invocation is one JSON line on stdin.
type invocation struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

// serve reads tool invocations line by line and writes one JSON result per
// invocation.
func serve(ctx context.Context, registry *tools.Registry, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var inv invocation
		if err := json.Unmarshal(line, &inv); err != nil {
			if encodeErr := encoder.Encode(&tools.ToolResult{Error: fmt.Sprintf("invalid invocation: %v", err)}); encodeErr != nil {
				return encodeErr
			}
			continue
		}

		result := registry.Execute(ctx, inv.Tool, inv.Params)
		if err := encoder.Encode(result); err != nil {
			return err
		}
	}
	return scanner.Err()
}
