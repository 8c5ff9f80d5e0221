package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zkaccess/zkpass/config"
	"github.com/zkaccess/zkpass/shared"
)

func TestNew(t *testing.T) {
	r := require.New(t)

	cfg := config.DefaultConfig()
	cfg.KeysDir = t.TempDir()

	b, err := New(cfg, zaptest.NewLogger(t))
	r.NoError(err)
	r.Equal(shared.ModeReal, b.Mode())
	r.IsType(&Real{}, b)

	cfg.Mode = string(shared.ModeMock)
	b, err = New(cfg, zaptest.NewLogger(t))
	r.NoError(err)
	r.Equal(shared.ModeMock, b.Mode())

	cfg.Mode = "other"
	_, err = New(cfg, zaptest.NewLogger(t))
	r.Error(err)
}
