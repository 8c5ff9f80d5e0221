package cmd

import (
	"fmt"
	"strings"

	"github.com/spacemeshos/smutil"
	"github.com/spf13/cobra"
)

// configKeys are the persistent flags that map onto config.Config.
var configKeys = []string{
	"mode",
	"program",
	"curve",
	"keys-dir",
	"setup-on-demand",
	"min-free-memory",
	"challenge-dir",
	"challenge-ttl",
	"nonce-size",
	"salt-size",
	"concurrency",
	"log-level",
	"log-file",
	"metrics-file",
}

func setFlags(cmd *cobra.Command, a *app) {
	flags := cmd.PersistentFlags()
	cfg := a.cfg

	flags.StringVar(&a.cfgFile, "config", "", "Path to configuration file (toml, yaml or json)")
	flags.BoolVar(&a.printConfig, "print-config", false, "Print the resolved config and exit")

	flags.String("mode", cfg.Mode, "Backend mode: real or mock")
	flags.String("program", cfg.Program, "Program identifier of the commitment circuit")
	flags.String("curve", cfg.Curve, "Curve of the real backend: bn254 or bls12-381")
	flags.String("keys-dir", cfg.KeysDir, "Directory holding circuit keys")
	flags.Bool("setup-on-demand", cfg.SetupOnDemand, "Run the circuit setup when proving with missing keys")
	flags.Uint64("min-free-memory", cfg.MinFreeMemory, "Free memory in bytes required before proving (0 disables the check)")
	flags.String("challenge-dir", cfg.ChallengeDir, "Directory of the challenge store")
	flags.Duration("challenge-ttl", cfg.ChallengeTTL, "Validity of an issued challenge")
	flags.Int("nonce-size", cfg.NonceSize, "Size in bytes of issued nonces")
	flags.Int("salt-size", cfg.SaltSize, "Size in bytes of generated salts")
	flags.Int("concurrency", cfg.Concurrency, "Maximum number of receipts verified in parallel")
	flags.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.String("log-file", cfg.LogFile, "Also write logs to this file, rotated")
	flags.String("metrics-file", cfg.MetricsFile, "Write Prometheus metrics to this file on exit")
}

// loadConfig resolves the config from defaults, the config file, ZKPASS_*
// environment variables and flags, in increasing priority.
func (a *app) loadConfig(cmd *cobra.Command) error {
	vip := a.vip
	vip.SetEnvPrefix("zkpass")
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	for _, key := range configKeys {
		if err := vip.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", key, err)
		}
	}

	if a.cfgFile != "" {
		vip.SetConfigFile(smutil.GetCanonicalPath(a.cfgFile))
		if err := vip.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := vip.Unmarshal(a.cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	for _, dir := range []*string{&a.cfg.KeysDir, &a.cfg.ChallengeDir} {
		if *dir != "" {
			*dir = smutil.GetCanonicalPath(*dir)
		}
	}

	return a.cfg.Validate()
}
