package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/snglth/rc-monitor/internal/metrics"
)

func startMetricsLogger(ctx context.Context, interval time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if interval <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				snap := metrics.Snap()
				l.Info("metrics_snapshot",
					"serial_rx_bytes", snap.SerialRxBytes,
					"frames_decoded", snap.FramesDecoded,
					"frames_resynced", snap.FramesResynced,
					"frames_malformed", snap.FramesMalformed,
					"other_command", snap.OtherCommand,
					"serial_tx", snap.SerialTx,
					"tcp_tx", snap.TCPTx,
					"hub_drops", snap.HubDrops,
					"errors", snap.Errors,
					"subscribers", snap.Subscribers,
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}
