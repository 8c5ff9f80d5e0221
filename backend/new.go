package backend

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/zkaccess/zkpass/config"
	"github.com/zkaccess/zkpass/internal/snark"
	"github.com/zkaccess/zkpass/shared"
)

// New builds the backend selected by cfg.Mode.
func New(cfg *config.Config, logger *zap.Logger) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch shared.Mode(cfg.Mode) {
	case shared.ModeMock:
		logger.Warn("using mock backend: receipts carry no cryptographic evidence")
		return NewMock(WithLogger(logger), WithProgram(cfg.Program))
	case shared.ModeReal:
		substrate, err := snark.New(
			snark.WithKeysDir(cfg.KeysDir),
			snark.WithCurve(cfg.Curve),
			snark.WithMinFreeMemory(cfg.MinFreeMemory),
			snark.WithSetupOnDemand(cfg.SetupOnDemand),
			snark.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create substrate: %w", err)
		}
		return NewReal(substrate, WithLogger(logger), WithProgram(cfg.Program))
	default:
		return nil, fmt.Errorf("unsupported mode %q", cfg.Mode)
	}
}
