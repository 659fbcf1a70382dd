package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JHAAdmins/gh-collab-audit/internal/audit"
	"github.com/JHAAdmins/gh-collab-audit/internal/output"
)

var rootCmd = &cobra.Command{
	Use:   "gh-collab-audit",
	Short: "Audit repository collaborator access for a GitHub organization",
	Long: `gh-collab-audit reports who can access every repository in a GitHub
organization, at what permission level, and through which teams, with
SSO and verified email identities attached where available.

Examples:
  gh-collab-audit --org my-org --token $GITHUB_TOKEN
  gh-collab-audit --org my-org --permission ADMIN --csv admins.csv
  gh-collab-audit --org my-org --affiliation OUTSIDE --fetch-names
  gh-collab-audit --org my-org --app-id 1234 --app-installation-id 567 \
      --app-private-key-file key.pem`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAudit,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()

	flags.StringP("org", "o", "", "GitHub organization to audit")
	flags.StringP("token", "t", "", "GitHub token (classic PAT)")
	flags.Int64("app-id", 0, "GitHub App ID")
	flags.Int64("app-installation-id", 0, "GitHub App installation ID")
	flags.String("app-private-key", "", "GitHub App private key (PEM)")
	flags.String("app-private-key-file", "", "Path to a GitHub App private key file")
	flags.StringP("permission", "p", audit.DefaultPermissionFilter, "Permission filter: ALL, ADMIN, MAINTAIN, WRITE, TRIAGE, or READ")
	flags.StringP("affiliation", "a", audit.DefaultAffiliation, "Collaborator affiliation: ALL, DIRECT, or OUTSIDE")
	flags.Int("retry-count", audit.DefaultRetryCount, "Retries per API call after the initial attempt")
	flags.Int("retry-delay-ms", audit.DefaultRetryBaseDelayMs, "Base retry delay in milliseconds, doubled per retry")
	flags.Bool("fetch-names", false, "Look up missing display names (one API call per user)")
	flags.IntP("max-workers", "w", audit.DefaultMaxWorkers, "Maximum concurrent collaborator listings")
	flags.StringSlice("include", nil, "Repository name patterns to include (default all)")
	flags.StringSlice("exclude", nil, "Repository name patterns to exclude")
	flags.String("csv", "", "CSV output path (default gh-collab-audit-<org>.csv)")
	flags.String("json", "", "JSON output path (optional)")
	flags.String("base-url", "", "GitHub Enterprise Server base URL, e.g. https://github.example.com")
	flags.Duration("timeout", 6*time.Hour, "Overall run timeout")
	flags.BoolP("verbose", "v", false, "Enable debug logging")

	for _, name := range []string{
		"org", "token", "app-id", "app-installation-id", "app-private-key",
		"app-private-key-file", "permission", "affiliation", "retry-count",
		"retry-delay-ms", "fetch-names", "max-workers", "include", "exclude",
		"csv", "json", "base-url", "timeout", "verbose",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	// Environment aliases. The INPUT_* names keep compatibility with
	// GitHub Actions workflow inputs; flags take precedence over both.
	_ = viper.BindEnv("org", "GITHUB_ORG", "INPUT_ORG")
	_ = viper.BindEnv("token", "GITHUB_TOKEN", "INPUT_TOKEN")
	_ = viper.BindEnv("app-id", "GITHUB_APP_ID", "INPUT_APPID")
	_ = viper.BindEnv("app-installation-id", "GITHUB_APP_INSTALLATION_ID", "INPUT_INSTALLATIONID")
	_ = viper.BindEnv("app-private-key", "GITHUB_APP_PRIVATE_KEY", "INPUT_PRIVATEKEY")
	_ = viper.BindEnv("permission", "INPUT_PERMISSION")
	_ = viper.BindEnv("affiliation", "INPUT_AFFILIATION")
	_ = viper.BindEnv("retry-count", "INPUT_RETRYCOUNT")
	_ = viper.BindEnv("retry-delay-ms", "INPUT_RETRYBASEDELAYMS")
	_ = viper.BindEnv("fetch-names", "INPUT_FETCHNAMES")
	_ = viper.BindEnv("base-url", "GITHUB_BASE_URL")
}

func runAudit(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	privateKey := viper.GetString("app-private-key")
	if keyFile := viper.GetString("app-private-key-file"); privateKey == "" && keyFile != "" {
		data, err := os.ReadFile(keyFile)
		if err != nil {
			return fmt.Errorf("failed to read private key file: %w", err)
		}
		privateKey = string(data)
	}

	org := viper.GetString("org")
	csvPath := viper.GetString("csv")
	if csvPath == "" {
		csvPath = fmt.Sprintf("gh-collab-audit-%s.csv", org)
	}

	// pterm printers are not safe for concurrent use; the callbacks
	// serialize on barMu.
	var (
		barMu sync.Mutex
		bar   *pterm.ProgressbarPrinter
	)
	stopBar := func() {
		barMu.Lock()
		defer barMu.Unlock()
		if bar != nil {
			_, _ = bar.Stop()
			bar = nil
		}
	}

	config := audit.Config{
		Organization:     org,
		GitHubToken:      viper.GetString("token"),
		AppID:            viper.GetInt64("app-id"),
		InstallationID:   viper.GetInt64("app-installation-id"),
		PrivateKey:       privateKey,
		Permission:       viper.GetString("permission"),
		Affiliation:      viper.GetString("affiliation"),
		RetryCount:       viper.GetInt("retry-count"),
		RetryBaseDelayMs: viper.GetInt("retry-delay-ms"),
		FetchNames:       viper.GetBool("fetch-names"),
		MaxWorkers:       viper.GetInt("max-workers"),
		IncludePatterns:  viper.GetStringSlice("include"),
		ExcludePatterns:  viper.GetStringSlice("exclude"),
		BaseURL:          viper.GetString("base-url"),
		Logger:           logger,
		OnStatus: func(message string) {
			stopBar()
			pterm.Info.Println(message)
		},
		OnProgress: func(current, total int64, message string) {
			barMu.Lock()
			defer barMu.Unlock()
			if bar == nil || bar.Total != int(total) {
				if bar != nil {
					_, _ = bar.Stop()
				}
				bar, _ = pterm.DefaultProgressbar.WithTotal(int(total)).WithTitle(message).Start()
			}
			if delta := int(current) - bar.Current; delta > 0 {
				bar.Add(delta)
			}
		},
	}

	auditor, err := audit.New(config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("timeout"))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt, shutting down gracefully... (press Ctrl-C again to force quit)")
		cancel()
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nForce quitting...")
		os.Exit(130)
	}()

	start := time.Now()
	report, err := auditor.Run(ctx)
	stopBar()
	if err != nil {
		return err
	}

	if err := output.WriteCSV(csvPath, report); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %d rows to %s\n", len(report.Rows), csvPath)

	if jsonPath := viper.GetString("json"); jsonPath != "" {
		if err := output.WriteJSON(jsonPath, report); err != nil {
			return err
		}
		pterm.Success.Printf("Wrote JSON report to %s\n", jsonPath)
	}

	pterm.Success.Printf("Audited %d repositories for %s in %s (%d excluded)\n",
		report.Repositories, report.Organization,
		time.Since(start).Round(time.Second), report.Excluded)
	return nil
}
