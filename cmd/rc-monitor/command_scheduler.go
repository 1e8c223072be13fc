package main

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/snglth/rc-monitor/internal/duml"
	"github.com/snglth/rc-monitor/internal/serialport"
)

const txQueueSize = 64

// startCommandScheduler periodically enqueues outbound channel-request and
// controller-enable command frames through w. Either interval may be zero
// to disable that command.
func startCommandScheduler(ctx context.Context, w *serialport.TXWriter, channelEvery, enableEvery time.Duration, l *slog.Logger, wg *sync.WaitGroup) {
	if channelEvery <= 0 && enableEvery <= 0 {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		var seq atomic.Uint32
		nextSeq := func() uint16 { return uint16(seq.Add(1)) }

		var channelT, enableT *time.Ticker
		var channelC, enableC <-chan time.Time
		if channelEvery > 0 {
			channelT = time.NewTicker(channelEvery)
			defer channelT.Stop()
			channelC = channelT.C
		}
		if enableEvery > 0 {
			enableT = time.NewTicker(enableEvery)
			defer enableT.Stop()
			enableC = enableT.C
		}
		out := make([]byte, 64)
		for {
			select {
			case <-ctx.Done():
				return
			case <-channelC:
				n, err := duml.BuildChannelRequest(out, nextSeq())
				if err != nil {
					l.Error("build_channel_request", "error", err)
					continue
				}
				frame := append([]byte(nil), out[:n]...)
				if err := w.Send(frame); err != nil {
					l.Warn("channel_request_send_failed", "error", err)
				}
			case <-enableC:
				n, err := duml.BuildControllerEnable(out, nextSeq())
				if err != nil {
					l.Error("build_controller_enable", "error", err)
					continue
				}
				frame := append([]byte(nil), out[:n]...)
				if err := w.Send(frame); err != nil {
					l.Warn("controller_enable_send_failed", "error", err)
				}
			}
		}
	}()
}
