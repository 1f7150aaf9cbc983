// Dust
// Copyright (C) James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package prometheus provides functions that are useful to control and manage
// the built-in prometheus instance of the watch command.
package prometheus

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/purpleidea/dust/lang/normalize"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPrometheusListen is the address the metrics are served on when none
// is given.
const DefaultPrometheusListen = "127.0.0.1:9233"

// Prometheus is the struct that contains information about the prometheus
// instance. Run Init() on it.
type Prometheus struct {
	Listen string // the listen specification for the net/http server

	registry *prometheus.Registry
	server   *http.Server

	normalizeTotal          *prometheus.CounterVec // runs of the pipeline
	stepsTotal              *prometheus.CounterVec // work done by the normalizer
	boxesTotal              *prometheus.CounterVec // boxes handed out by the shelves
	processStartTimeSeconds prometheus.Gauge       // process start time in seconds since unix epoch
}

// Init some parameters - currently the Listen address.
func (obj *Prometheus) Init() error {
	if len(obj.Listen) == 0 {
		obj.Listen = DefaultPrometheusListen
	}
	obj.registry = prometheus.NewRegistry()

	obj.normalizeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dust_normalize_total",
			Help: "Number of times the input was normalized.",
		},
		// result: ok or error
		[]string{"result"},
	)
	obj.stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dust_steps_total",
			Help: "Number of reduction steps done by the normalizer.",
		},
		// kind: substitution, reduction or let
		[]string{"kind"},
	)
	obj.boxesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dust_boxes_total",
			Help: "Number of boxes the normalizer used.",
		},
		// source: allocated or reused
		[]string{"source"},
	)
	obj.processStartTimeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dust_process_start_time_seconds",
			Help: "Start time of the process since unix epoch in seconds.",
		},
	)
	for _, c := range []prometheus.Collector{obj.normalizeTotal, obj.stepsTotal, obj.boxesTotal, obj.processStartTimeSeconds} {
		if err := obj.registry.Register(c); err != nil {
			return err
		}
	}
	// directly set the processStartTimeSeconds
	obj.processStartTimeSeconds.SetToCurrentTime()

	// so that the labels show up before the first run
	for _, result := range []string{"ok", "error"} {
		obj.normalizeTotal.WithLabelValues(result)
	}
	return nil
}

// Handler returns the handler which responds the way prometheus expects.
func (obj *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(obj.registry, promhttp.HandlerOpts{})
}

// Start runs a http server in a go routine, that responds to /metrics as
// prometheus would expect. It errors if the address can't be listened on.
func (obj *Prometheus) Start() error {
	listener, err := net.Listen("tcp", obj.Listen)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", obj.Handler())
	obj.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go obj.server.Serve(listener)
	return nil
}

// Stop the http server.
func (obj *Prometheus) Stop() error {
	if obj.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return obj.server.Shutdown(ctx)
}

// UpdateNormalizeTotal counts one run of the pipeline and the work it did.
func (obj *Prometheus) UpdateNormalizeTotal(stats normalize.Stats, err error) error {
	result := "ok"
	if err != nil {
		result = "error"
	}
	obj.normalizeTotal.With(prometheus.Labels{"result": result}).Inc()

	obj.stepsTotal.With(prometheus.Labels{"kind": "substitution"}).Add(float64(stats.Substitutions))
	obj.stepsTotal.With(prometheus.Labels{"kind": "reduction"}).Add(float64(stats.Reductions))
	obj.stepsTotal.With(prometheus.Labels{"kind": "let"}).Add(float64(stats.Lets))

	obj.boxesTotal.With(prometheus.Labels{"source": "allocated"}).Add(float64(stats.Allocated))
	obj.boxesTotal.With(prometheus.Labels{"source": "reused"}).Add(float64(stats.Reused))
	return nil
}
