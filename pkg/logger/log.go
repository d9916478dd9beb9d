package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// NewLogger пишет одновременно в stdout и в файл.
func NewLogger(level, filePath string) *zap.Logger {
	atomicLevel := zap.NewAtomicLevelAt(zap.DebugLevel)
	if level != "" {
		if err := atomicLevel.UnmarshalText([]byte(level)); err != nil {
			atomicLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
	}

	outputs := []string{"stdout"}
	if filePath != "" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err == nil {
			outputs = append(outputs, filePath)
		}
	}

	dualConfig := zap.Config{
		Encoding:         "console",
		Level:            atomicLevel,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}

	dualLogger, err := dualConfig.Build()
	if err != nil {
		panic(err)
	}

	return dualLogger
}
