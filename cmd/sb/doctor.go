package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/db"
)

func newDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check system prerequisites and configuration",
		Long:  "Runs diagnostic checks: config, database, schema, device inventory, and credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Switchboard Doctor")
	fmt.Fprintln(out, "==================")

	var results []checkResult

	cfg, cfgResult := checkConfig(configPath)
	results = append(results, cfgResult)

	if cfg != nil {
		results = append(results, checkDatabase(cfg)...)
		results = append(results, checkAPIKey(cfg))
		results = append(results, checkBridgeTokens(cfg))
	}

	failed := 0
	for _, r := range results {
		fmt.Fprintf(out, "[%s] %-20s %s\n", r.status, r.name, r.detail)
		if r.status == "FAIL" {
			failed++
		}
	}

	fmt.Fprintln(out)
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Fprintln(out, "All checks passed.")
	return nil
}

func checkConfig(path string) (*config.Config, checkResult) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, checkResult{"config", "FAIL", err.Error()}
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return cfg, checkResult{"config", "WARN", fmt.Sprintf("%s not found, using defaults", path)}
	}
	return cfg, checkResult{"config", "PASS", path}
}

func checkDatabase(cfg *config.Config) []checkResult {
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return []checkResult{{"database", "FAIL", err.Error()}}
	}
	results := []checkResult{{"database", "PASS", cfg.Database.Driver}}

	migrator := gormDB.Migrator()
	missing := 0
	for _, model := range db.AllModels() {
		if !migrator.HasTable(model) {
			missing++
		}
	}
	if missing > 0 {
		results = append(results, checkResult{"schema", "FAIL",
			fmt.Sprintf("%d table(s) missing, run: sb db migrate", missing)})
		return results
	}
	results = append(results, checkResult{"schema", "PASS",
		fmt.Sprintf("%d tables", len(db.AllModels()))})

	var devices int64
	if err := gormDB.Table("devices").Count(&devices).Error; err == nil && devices == 0 {
		results = append(results, checkResult{"devices", "WARN", "inventory empty, run: sb db seed"})
	} else {
		results = append(results, checkResult{"devices", "PASS", fmt.Sprintf("%d registered", devices)})
	}
	return results
}

// checkAPIKey verifies the completion-service key is set, prompting
// once (no echo) when running interactively so the check can pass
// without exporting the key first.
func checkAPIKey(cfg *config.Config) checkResult {
	if cfg.APIKey() != "" {
		return checkResult{"llm key", "PASS", cfg.LLM.APIKeyEnv + " is set"}
	}

	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Printf("Enter API key to verify (%s, not stored): ", cfg.LLM.APIKeyEnv)
		key, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil && strings.TrimSpace(string(key)) != "" {
			return checkResult{"llm key", "WARN",
				fmt.Sprintf("provided interactively; export %s for non-interactive use", cfg.LLM.APIKeyEnv)}
		}
	}
	return checkResult{"llm key", "FAIL", "set " + cfg.LLM.APIKeyEnv}
}

func checkBridgeTokens(cfg *config.Config) checkResult {
	if cfg.Bridge.Platform == "" {
		return checkResult{"bridge", "PASS", "not configured (optional)"}
	}
	if cfg.BridgeToken() == "" {
		return checkResult{"bridge", "FAIL", "set " + cfg.Bridge.TokenEnv}
	}
	if cfg.Bridge.Platform == "slack" && cfg.BridgeAppToken() == "" {
		return checkResult{"bridge", "FAIL", "set " + cfg.Bridge.AppTokenEnv}
	}
	return checkResult{"bridge", "PASS", cfg.Bridge.Platform}
}
