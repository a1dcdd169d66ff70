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

package accelerator

import (
	"context"

	"github.com/nebuly-ai/accelbind/pkg/errdefs"
	"github.com/nebuly-ai/accelbind/pkg/resource"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Factory creates the ARQs of a device profile and resolves each of them
// to the resource provider chosen by placement.
type Factory struct {
	client Client
}

func NewFactory(client Client) *Factory {
	return &Factory{client: client}
}

// Resolve creates the ARQs of the device profile and sets the device RP UUID of each
// of them to the single provider of the request group built from the same device profile group.
//
// The groups must already carry the providers assigned by placement. If any ARQ
// cannot be correlated the call fails with an internal-consistency error and no ARQ is returned.
func (f *Factory) Resolve(ctx context.Context, deviceProfileName string, groups []*resource.RequestGroup) ([]ARQ, error) {
	logger := log.FromContext(ctx)
	if deviceProfileName == "" {
		return nil, errdefs.InvalidArgumentErr.Errorf("device profile name is invalid: %q", deviceProfileName)
	}

	arqs, err := f.client.CreateARQs(ctx, deviceProfileName)
	if err != nil {
		return nil, upstreamError(err, "failed to create ARQs for device profile %q", deviceProfileName)
	}
	if len(arqs) == 0 {
		return nil, errdefs.UpstreamUnavailableErr.Errorf("no ARQs created for device profile %q", deviceProfileName)
	}
	logger.V(1).Info("created ARQs", "deviceProfile", deviceProfileName, "arqs", len(arqs))

	var errs []error
	res := make([]ARQ, 0, len(arqs))
	for _, c := range Correlate(arqs, groups) {
		if !c.Ok() {
			errs = append(errs, c.Err)
			continue
		}
		arq := c.ARQ
		arq.DeviceRPUUID = c.ProviderUUID
		res = append(res, arq)
	}
	if len(errs) > 0 {
		return nil, errdefs.InternalConsistencyErr.Wrap(utilerrors.NewAggregate(errs))
	}

	for _, arq := range res {
		logger.V(1).Info("resolved ARQ", "arq", arq.UUID, "deviceRP", arq.DeviceRPUUID)
	}
	return res, nil
}
