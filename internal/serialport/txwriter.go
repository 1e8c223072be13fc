package serialport

import (
	"context"
	"errors"

	"github.com/snglth/rc-monitor/internal/logging"
	"github.com/snglth/rc-monitor/internal/metrics"
	"github.com/snglth/rc-monitor/internal/transport"
)

// ErrTxOverflow is returned when the outbound command buffer is full.
var ErrTxOverflow = errors.New("serial tx overflow")

// TXWriter funnels all outbound command frames (channel requests,
// controller-enable handshakes) through one goroutine so a periodic
// scheduler never blocks on a wedged serial link.
type TXWriter struct{ base *transport.AsyncTx }

// NewTXWriter creates a serial TXWriter with a buffered channel of size buf.
func NewTXWriter(parent context.Context, sp Port, buf int) *TXWriter {
	send := func(fr []byte) error {
		_, err := sp.Write(fr)
		return err
	}
	hooks := transport.Hooks{
		OnError: func(err error) {
			metrics.IncError(metrics.ErrSerialWrite)
			logging.L().Error("serial_write_error", "error", err)
		},
		OnAfter: func() { metrics.IncSerialTx() },
		OnDrop: func() error {
			metrics.IncError(metrics.ErrSerialOver)
			return ErrTxOverflow
		},
	}
	return &TXWriter{base: transport.NewAsyncTx(parent, buf, send, hooks)}
}

// Send queues a command frame for asynchronous write (drops with
// ErrTxOverflow if the buffer is full).
func (w *TXWriter) Send(fr []byte) error { return w.base.Send(fr) }

// Close stops the writer and waits for the pending goroutine to exit.
func (w *TXWriter) Close() { w.base.Close() }
