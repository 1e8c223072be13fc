package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/snglth/rc-monitor/internal/duml"
	"github.com/snglth/rc-monitor/internal/fanout"
	"github.com/snglth/rc-monitor/internal/metrics"
	"github.com/snglth/rc-monitor/internal/serialport"
)

const (
	serialReadBufSize = 4096
	rxBackoffMin      = 20 * time.Millisecond
	rxBackoffMax      = 500 * time.Millisecond
)

// sleepFn allows tests to intercept backoff sleeps.
var sleepFn = time.Sleep

// openSerialPort is a hook for tests.
var openSerialPort = serialport.Open

// initReceiver opens the serial port and launches the RX loop. Unlike a
// framed byte-stream codec that needs an external accumulation buffer, the
// duml.Parser owns its own ring buffer, so each Read result is simply fed
// straight through.
func initReceiver(ctx context.Context, cfg *appConfig, h *fanout.Hub, l *slog.Logger, wg *sync.WaitGroup) (serialport.Port, error) {
	sp, err := openSerialPort(cfg.serialDev, cfg.baud, cfg.serialReadTO)
	if err != nil {
		return nil, err
	}
	l.Info("serial_open", "device", cfg.serialDev, "baud", cfg.baud)

	parser := duml.NewParser(func(s *duml.Snapshot) {
		metrics.IncDecoded()
		h.Broadcast(*s)
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer l.Info("serial_rx_end")
		buf := make([]byte, serialReadBufSize)
		backoff := rxBackoffMin
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			n, err := sp.Read(buf)
			if n > 0 {
				metrics.AddSerialRx(n)
				parser.Feed(buf[:n])
				backoff = rxBackoffMin
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				var perr *os.PathError
				if errors.As(err, &perr) {
					return // device removed or fatal
				}
				if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
					continue // ignore transient EOF, common on a read-timeout-bound port
				}
				metrics.IncError(metrics.ErrSerialRead)
				l.Warn("serial_read_error", "error", err, "backoff", backoff)
				sleepFn(backoff)
				backoff *= 2
				if backoff > rxBackoffMax {
					backoff = rxBackoffMax
				}
			}
		}
	}()
	return sp, nil
}
