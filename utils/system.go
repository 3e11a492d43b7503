package utils

import (
	"strconv"

	"AUScraper/internal/logger"

	"github.com/shirou/gopsutil/v3/cpu"
)

// cpuCounts is swapped in tests.
var cpuCounts = cpu.Counts

// GetBatchSize resolves the configured batch size. A positive integer is used
// as-is; "auto" (or anything invalid) derives it from the logical CPU count.
func GetBatchSize(configValue string) int {
	if manual, err := strconv.Atoi(configValue); err == nil && manual > 0 {
		logger.Debug("using configured batch size", "batch_size", manual)
		return manual
	}

	if configValue != "auto" {
		logger.Warn("invalid batch size, falling back to auto", "value", configValue)
	}

	// Each slot is a live browser tab, so stay well under the core count.
	cores, err := cpuCounts(true)
	if err != nil {
		logger.Warn("could not detect CPU cores, using default batch size", "batch_size", 5, "error", err)
		return 5
	}

	size := cores / 2
	if size < 1 {
		size = 1
	}
	if size > 16 {
		size = 16
	}

	logger.Info("derived batch size from CPU count", "cores", cores, "batch_size", size)
	return size
}
