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

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/nebuly-ai/accelbind/pkg/accelerator"
	configv1alpha1 "github.com/nebuly-ai/accelbind/pkg/api/accelbind.nebuly.com/config/v1alpha1"
	"github.com/nebuly-ai/accelbind/pkg/cyborg"
	"github.com/prometheus/client_golang/prometheus"
	ctrl "sigs.k8s.io/controller-runtime"
)

func newCyborgClient(config *configv1alpha1.AcceleratorConfig) (accelerator.Client, error) {
	return cyborg.NewClient(
		config.Endpoint,
		cyborg.WithHTTPClient(&http.Client{Timeout: config.RequestTimeout()}),
		cyborg.WithTokenSource(cyborg.StaticToken(config.Token)),
		cyborg.WithMicroversion(config.Microversion),
	)
}

func main() {
	if err := cyborg.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		fmt.Fprintln(os.Stderr, "unable to register metrics:", err)
		os.Exit(1)
	}

	ctx := ctrl.SetupSignalHandler()
	if err := NewRootCmd(newCyborgClient).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
