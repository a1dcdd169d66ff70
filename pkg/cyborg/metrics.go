/*
 * Copyright 2023 nebuly.com.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cyborg

import (
	"time"

	"github.com/nebuly-ai/accelbind/pkg/constant"
	"github.com/nebuly-ai/accelbind/pkg/errdefs"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSuccess = "success"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: constant.MetricsNamespace,
		Subsystem: "cyborg",
		Name:      "requests_total",
		Help:      "Total requests sent to the accelerator service grouped by operation and status.",
	}, []string{"operation", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: constant.MetricsNamespace,
		Subsystem: "cyborg",
		Name:      "request_duration_seconds",
		Help:      "Duration of the requests sent to the accelerator service.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

// RegisterMetrics registers the client metrics in the provided registry
func RegisterMetrics(registerer prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{requestsTotal, requestDuration} {
		if err := registerer.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

func observeRequest(operation string, err error, duration time.Duration) {
	status := statusSuccess
	if err != nil {
		status = string(errdefs.CodeOf(err))
		if status == "" {
			status = "error"
		}
	}
	requestsTotal.WithLabelValues(operation, status).Inc()
	requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
