package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"time"

	"github.com/spacemeshos/smutil"
	"go.uber.org/zap/zapcore"

	"github.com/zkaccess/zkpass/internal/snark"
	"github.com/zkaccess/zkpass/shared"
)

const (
	MinNonceSize = 8
	MaxNonceSize = 64

	MinSaltSize = 8
	MaxSaltSize = 64
)

const (
	DefaultHomeDirName      = ".zkpass"
	DefaultKeysDirName      = "keys"
	DefaultChallengeDirName = "challenges"

	DefaultProgram      = "zkpass-commit-v1"
	DefaultChallengeTTL = 120 * time.Second
	DefaultNonceSize    = 16
	DefaultSaltSize     = 16
)

var (
	DefaultHomeDir      = filepath.Join(smutil.GetUserHomeDirectory(), DefaultHomeDirName)
	DefaultKeysDir      = filepath.Join(DefaultHomeDir, DefaultKeysDirName)
	DefaultChallengeDir = filepath.Join(DefaultHomeDir, DefaultChallengeDirName)

	programPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*$`)
)

type Config struct {
	Mode    string `mapstructure:"mode"`
	Program string `mapstructure:"program"`

	// Real backend.
	Curve         string `mapstructure:"curve"`
	KeysDir       string `mapstructure:"keys-dir"`
	SetupOnDemand bool   `mapstructure:"setup-on-demand"`
	MinFreeMemory uint64 `mapstructure:"min-free-memory"`

	// Challenge issuance.
	ChallengeDir string        `mapstructure:"challenge-dir"`
	ChallengeTTL time.Duration `mapstructure:"challenge-ttl"`
	NonceSize    int           `mapstructure:"nonce-size"`
	SaltSize     int           `mapstructure:"salt-size"`

	Concurrency int `mapstructure:"concurrency"`

	LogLevel    string `mapstructure:"log-level"`
	LogFile     string `mapstructure:"log-file"`
	MetricsFile string `mapstructure:"metrics-file"`
}

func (cfg *Config) Validate() error {
	if err := shared.Mode(cfg.Mode).Validate(); err != nil {
		return err
	}

	if !programPattern.MatchString(cfg.Program) {
		return fmt.Errorf("invalid `Program`; expected: lowercase letters, digits, '.' and '-', given: %q", cfg.Program)
	}

	if shared.Mode(cfg.Mode) == shared.ModeReal {
		if _, err := snark.ParseCurve(cfg.Curve); err != nil {
			return err
		}
		if cfg.KeysDir == "" {
			return fmt.Errorf("invalid `KeysDir`; expected: a directory, given: %q", cfg.KeysDir)
		}
	}

	if cfg.ChallengeTTL <= 0 {
		return fmt.Errorf("invalid `ChallengeTTL`; expected: > 0, given: %v", cfg.ChallengeTTL)
	}

	if cfg.NonceSize < MinNonceSize || cfg.NonceSize > MaxNonceSize {
		return fmt.Errorf("invalid `NonceSize`; expected: %d-%d, given: %d", MinNonceSize, MaxNonceSize, cfg.NonceSize)
	}

	if cfg.SaltSize < MinSaltSize || cfg.SaltSize > MaxSaltSize {
		return fmt.Errorf("invalid `SaltSize`; expected: %d-%d, given: %d", MinSaltSize, MaxSaltSize, cfg.SaltSize)
	}

	if cfg.Concurrency < 1 {
		return fmt.Errorf("invalid `Concurrency`; expected: >= 1, given: %d", cfg.Concurrency)
	}

	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid `LogLevel`; expected: debug, info, warn or error, given: %q", cfg.LogLevel)
	}

	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Mode:          string(shared.ModeReal),
		Program:       DefaultProgram,
		Curve:         snark.DefaultCurve,
		KeysDir:       DefaultKeysDir,
		SetupOnDemand: true,
		ChallengeDir:  DefaultChallengeDir,
		ChallengeTTL:  DefaultChallengeTTL,
		NonceSize:     DefaultNonceSize,
		SaltSize:      DefaultSaltSize,
		Concurrency:   runtime.NumCPU(),
		LogLevel:      zapcore.InfoLevel.String(),
	}
}
