package main

import (
	"log/slog"

	"github.com/snglth/rc-monitor/internal/fanout"
)

func initHub(cfg *appConfig, l *slog.Logger) *fanout.Hub {
	h := fanout.New()
	h.OutBufSize = cfg.hubBuffer
	switch cfg.hubPolicy {
	case "drop":
		h.Policy = fanout.PolicyDrop
	case "kick":
		h.Policy = fanout.PolicyKick
	default:
		l.Warn("unknown_hub_policy", "policy", cfg.hubPolicy, "used", "drop")
		h.Policy = fanout.PolicyDrop
	}
	policyStr := map[fanout.BackpressurePolicy]string{fanout.PolicyDrop: "drop", fanout.PolicyKick: "kick"}[h.Policy]
	l.Info("build_info", "version", version, "commit", commit, "date", date)
	l.Info("hub_config", "policy", policyStr, "buffer", h.OutBufSize)
	return h
}
