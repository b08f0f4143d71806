package switchcore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatcher metrics
var (
	dispatchCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "softnicd_dispatch_total",
		Help: "The total number of dispatched commands",
	}, []string{"cmd"})
	dispatchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "softnicd_dispatch_errors",
		Help: "The total number of commands that returned an err SV",
	}, []string{"cmd", "errno"})
	dispatchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "softnicd_dispatch_seconds",
		Help: "Time spent executing a dispatched command (seconds)",
	}, []string{"cmd"})
)

// Worker metrics
var (
	workersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "softnicd_workers_active",
		Help: "The number of active (launched) workers",
	})
	workersRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "softnicd_workers_running",
		Help: "The number of workers currently in the running state",
	})
)

// Port/module metrics
var (
	portsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "softnicd_ports_total",
		Help: "The number of live ports",
	})
	modulesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "softnicd_modules_total",
		Help: "The number of live modules",
	})
	gatePackets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "softnicd_gate_packets_total",
		Help: "The total number of packets traversing a gate",
	}, []string{"module", "gate"})
	gateBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "softnicd_gate_bytes_total",
		Help: "The total number of bytes traversing a gate",
	}, []string{"module", "gate"})
)
