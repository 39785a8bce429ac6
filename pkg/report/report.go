// Package report samples process resource usage around expensive pipeline
// stages. Sampling is diagnostic only: a failed sample degrades to a log
// warning and never changes the outcome of the wrapped call.
package report

import (
	"os"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Measure runs fn, recording wall-clock time and resident memory before and
// after. The returned error is fn's own, untouched.
func Measure(stage string, fn func() error) error {
	rssBefore, sampleErr := sampleRSS()
	if sampleErr != nil {
		log.Warn().Err(sampleErr).Str("stage", stage).Msg("Resource sampling unavailable")
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	event := log.Info().Str("stage", stage).Dur("elapsed", elapsed)
	if sampleErr == nil {
		if rssAfter, afterErr := sampleRSS(); afterErr == nil {
			event = event.
				Str("rss_before", bytefmt.ByteSize(rssBefore)).
				Str("rss_after", bytefmt.ByteSize(rssAfter))
		} else {
			log.Warn().Err(afterErr).Str("stage", stage).Msg("Resource sampling unavailable")
		}
	}
	event.Msg("Stage resource usage")

	return err
}

// TotalRAMGB reports the machine's total memory in gigabytes.
func TotalRAMGB() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Total / 1_000_000_000, nil
}

func sampleRSS() (uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}
