// Command krb5keepd keeps a Kerberos credential cache fresh for a host or
// service principal. It obtains the initial ticket from a keytab, then
// periodically renews it, reissuing from the keytab whenever renewal is no
// longer possible.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"krb5keep"
)

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("krb5keepd", krb5keep.Version)
		return
	}

	// Ensure only one instance is running
	if err := krb5keep.EnsureSingleInstance(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer krb5keep.ReleaseSingleInstance()

	// Try to load config early for logging settings
	// If config doesn't exist, use defaults
	cfg, err := krb5keep.LoadConfig(*configPath)
	if err != nil {
		cfg = &krb5keep.Config{}
	}

	if err := krb5keep.InitLoggerWithConfig(cfg.GetLogConfigWithDefaults()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to initialize logger: %v\n", err)
	}
	krb5keep.SetLogLevel(*debug)
	krb5keep.LogStartup()
	defer krb5keep.LogShutdown()

	svc, err := krb5keep.NewCredentialService(cfg)
	if err != nil {
		krb5keep.LogError("Failed to initialize credential service: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			krb5keep.LogError("Credential cache teardown failed: %v", err)
		}
	}()

	hooks, err := krb5keep.NewHookEngine()
	if err != nil {
		krb5keep.LogWarn("Failed to initialize hook engine: %v", err)
		hooks = nil
	}

	run(svc, cfg, hooks)
}

// run drives the refresh loop until SIGINT/SIGTERM.
func run(svc *krb5keep.CredentialService, cfg *krb5keep.Config, hooks *krb5keep.HookEngine) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.RefreshInterval())
	defer ticker.Stop()

	refresh(svc, cfg, hooks)

	for {
		select {
		case <-ticker.C:
			refresh(svc, cfg, hooks)
		case sig := <-sigCh:
			krb5keep.LogInfo("Received signal %v, shutting down", sig)
			return
		}
	}
}

func refresh(svc *krb5keep.CredentialService, cfg *krb5keep.Config, hooks *krb5keep.HookEngine) {
	cachePath := strings.TrimPrefix(os.Getenv("KRB5CCNAME"), "FILE:")
	_, statErr := os.Stat(cachePath)
	existed := statErr == nil

	ok := svc.RefreshCredential()
	if hooks == nil || cfg.Hooks == nil {
		return
	}

	fields := map[string]string{
		"ccache": os.Getenv("KRB5CCNAME"),
		"time":   time.Now().Format(time.RFC3339),
	}
	switch {
	case ok && !existed:
		_ = hooks.RunHook(cfg.Hooks.OnCreate, "created", fields)
	case ok:
		// Covers both the no-op and the renewed shapes of success.
		_ = hooks.RunHook(cfg.Hooks.OnRenew, "refreshed", fields)
	default:
		_ = hooks.RunHook(cfg.Hooks.OnFail, "failed", fields)
	}
}
