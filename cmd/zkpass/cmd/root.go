package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zkaccess/zkpass/config"
	"github.com/zkaccess/zkpass/metrics"
)

var (
	Version = "0.0.0"
	Commit  = ""
)

// errConfigPrinted stops a command after --print-config without failing it.
var errConfigPrinted = errors.New("config printed")

type app struct {
	vip         *viper.Viper
	cfg         *config.Config
	cfgFile     string
	printConfig bool

	stdout io.Writer
	stderr io.Writer

	logger   *zap.Logger
	closeLog func()
	metrics  *metrics.Metrics
}

func newApp() *app {
	return &app{
		vip:      viper.New(),
		cfg:      config.DefaultConfig(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		logger:   zap.NewNop(),
		closeLog: func() {},
		metrics:  metrics.New(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "zkpass",
		Short: "Prove knowledge of a password without revealing it",
		Long: `zkpass proves that the holder of a password knows the preimage of a salted
SHA-256 commitment, bound to a single-use challenge nonce, and verifies such proofs.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			if a.printConfig {
				spew.Fdump(cmd.OutOrStdout(), a.cfg)
				return errConfigPrinted
			}

			level, err := zapcore.ParseLevel(a.cfg.LogLevel)
			if err != nil {
				return err
			}
			a.logger, a.closeLog = newLogger(level, a.cfg.LogFile, cmd.ErrOrStderr())
			return nil
		},
	}

	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	setFlags(root, a)
	root.AddCommand(
		newProveCmd(a),
		newVerifyCmd(a),
		newEnrollCmd(a),
		newKeysCmd(a),
		newChallengeCmd(a),
		newVersionCmd(),
	)
	return root
}

// finish flushes logs and exports metrics.
func (a *app) finish() {
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			a.logger.Error("failed to write metrics", zap.String("path", a.cfg.MetricsFile), zap.Error(err))
		}
	}
	_ = a.logger.Sync()
	a.closeLog()
}

func run(ctx context.Context, a *app, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	a.finish()
	if errors.Is(err, errConfigPrinted) {
		return nil
	}
	return err
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, newApp(), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return exitCode(err)
}
