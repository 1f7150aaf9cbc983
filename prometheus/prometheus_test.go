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

package prometheus

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/purpleidea/dust/lang/normalize"
)

// TestInitMetrics tests that the metrics are registered and counted.
func TestInitMetrics(t *testing.T) {
	var prom Prometheus
	if err := prom.Init(); err != nil {
		t.Errorf("could not init: %+v", err)
		return
	}
	if prom.Listen != DefaultPrometheusListen {
		t.Errorf("unexpected listen: %s", prom.Listen)
	}

	// Get a list of metrics collected by this registry.
	metrics, err := prom.registry.Gather()
	if err != nil {
		t.Errorf("error while gathering metrics: %s", err)
		return
	}
	found := map[string]int{}
	for _, metric := range metrics {
		found[metric.GetName()] = len(metric.GetMetric())
	}
	if found["dust_normalize_total"] != 2 || found["dust_process_start_time_seconds"] != 1 {
		t.Errorf("unexpected metrics: %v", found)
	}

	stats := normalize.Stats{Substitutions: 3, Reductions: 2, Lets: 1, Allocated: 5, Reused: 4}
	prom.UpdateNormalizeTotal(stats, nil)
	prom.UpdateNormalizeTotal(stats, nil)
	prom.UpdateNormalizeTotal(normalize.Stats{}, fmt.Errorf("oops"))

	server := httptest.NewServer(prom.Handler())
	defer server.Close()
	resp, err := http.Get(server.URL)
	if err != nil {
		t.Errorf("could not get metrics: %+v", err)
		return
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Errorf("could not read metrics: %+v", err)
		return
	}
	for _, line := range []string{
		`dust_normalize_total{result="ok"} 2`,
		`dust_normalize_total{result="error"} 1`,
		`dust_steps_total{kind="substitution"} 6`,
		`dust_steps_total{kind="reduction"} 4`,
		`dust_boxes_total{source="reused"} 8`,
	} {
		if !strings.Contains(string(body), line) {
			t.Errorf("metrics are missing: %s", line)
		}
	}
}

func TestStartStop(t *testing.T) {
	prom := &Prometheus{Listen: "127.0.0.1:0"}
	if err := prom.Init(); err != nil {
		t.Errorf("could not init: %+v", err)
		return
	}
	if err := prom.Stop(); err != nil {
		t.Errorf("stop before start failed: %+v", err)
	}
	if err := prom.Start(); err != nil {
		t.Errorf("could not start: %+v", err)
		return
	}
	if err := prom.Stop(); err != nil {
		t.Errorf("could not stop: %+v", err)
	}

	bad := &Prometheus{Listen: "256.0.0.1:99999"}
	bad.Init()
	if err := bad.Start(); err == nil {
		t.Errorf("expected a listen error")
	}
}
