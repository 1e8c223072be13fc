package fanout

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/snglth/rc-monitor/internal/metrics"
)

// startWriter launches the goroutine pushing hub snapshots to a single
// subscriber connection as newline-delimited JSON.
func (s *Server) startWriter(ctxDone <-chan struct{}, conn net.Conn, cl *Client, logger *slog.Logger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			_ = conn.Close()
			if s.Hub != nil {
				s.Hub.Remove(cl)
			}
			s.clientsMu.Lock()
			delete(s.clients, cl)
			s.clientsMu.Unlock()
			s.totalDisconnected.Add(1)
			logger.Info("subscriber_disconnected")
		}()
		w := bufio.NewWriter(conn)
		t := time.NewTicker(s.flushInterval)
		defer t.Stop()
		pending := 0
		flush := func() error {
			if pending == 0 {
				return nil
			}
			if err := w.Flush(); err != nil {
				wrap := fmt.Errorf("%w: %v", ErrConnWrite, err)
				metrics.IncError(mapErrToMetric(wrap))
				s.setError(wrap)
				return wrap
			}
			for i := 0; i < pending; i++ {
				metrics.IncTCPTx()
			}
			pending = 0
			return nil
		}
		for {
			select {
			case snap := <-cl.Out:
				line, err := json.Marshal(snap)
				if err == nil {
					_, _ = w.Write(line)
					_ = w.WriteByte('\n')
					pending++
				}
				if pending >= s.batchSize {
					if err := flush(); err != nil {
						return
					}
				}
			case <-t.C:
				if err := flush(); err != nil {
					return
				}
			case <-cl.Closed:
				_ = flush()
				return
			case <-ctxDone:
				_ = flush()
				return
			}
		}
	}()
}
