package snark

import (
	"bytes"
	"encoding/json"
	"io"
	"sync"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// gnark logs through a process-wide zerolog logger. While at least one call
// is in flight it is replaced by a bridge into zap at debug level, or
// silenced when debug is disabled; the previous logger is restored after the
// last call returns.
var gnarkLog struct {
	sync.Mutex
	depth int
	saved zerolog.Logger
}

func withGnarkLogger(logger *zap.Logger) func() {
	gnarkLog.Lock()
	defer gnarkLog.Unlock()

	if gnarkLog.depth == 0 {
		gnarkLog.saved = gnarklogger.Logger()
		if logger.Core().Enabled(zapcore.DebugLevel) {
			gnarklogger.Set(zerolog.New(zapWriter{logger: logger.Named("gnark")}).Level(zerolog.DebugLevel))
		} else {
			gnarklogger.Set(zerolog.New(io.Discard).Level(zerolog.Disabled))
		}
	}
	gnarkLog.depth++

	return func() {
		gnarkLog.Lock()
		defer gnarkLog.Unlock()
		gnarkLog.depth--
		if gnarkLog.depth == 0 {
			gnarklogger.Set(gnarkLog.saved)
		}
	}
}

// zapWriter forwards zerolog JSON records to a zap logger.
type zapWriter struct {
	logger *zap.Logger
}

func (w zapWriter) Write(p []byte) (int, error) {
	var record map[string]any
	if err := json.Unmarshal(p, &record); err != nil {
		w.logger.Debug(string(bytes.TrimSpace(p)))
		return len(p), nil
	}

	msg, _ := record[zerolog.MessageFieldName].(string)
	delete(record, zerolog.MessageFieldName)
	delete(record, zerolog.LevelFieldName)
	delete(record, zerolog.TimestampFieldName)

	fields := make([]zap.Field, 0, len(record))
	for k, v := range record {
		fields = append(fields, zap.Any(k, v))
	}
	w.logger.Debug(msg, fields...)
	return len(p), nil
}
