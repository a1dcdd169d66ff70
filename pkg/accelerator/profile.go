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
	"errors"
	"fmt"

	"github.com/nebuly-ai/accelbind/pkg/constant"
	"github.com/nebuly-ai/accelbind/pkg/errdefs"
	"github.com/nebuly-ai/accelbind/pkg/resource"
	"github.com/nebuly-ai/accelbind/pkg/util"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// RequesterID returns the requester id of the request group built from the
// device profile group with the given id. It is the key used to match the ARQs
// created for that group with the provider chosen by placement.
func RequesterID(deviceProfileGroupID int) string {
	return fmt.Sprintf("%s%d", constant.RequesterIDPrefix, deviceProfileGroupID)
}

// DeviceProfileGroups returns the groups of the device profile with the given name.
//
// The lookup must match exactly one profile: when the service returns zero or
// more than one profile the mismatch is logged and an empty list is returned
// without error.
func DeviceProfileGroups(ctx context.Context, client Client, name string) ([]DeviceProfileGroup, error) {
	logger := log.FromContext(ctx)
	if name == "" {
		return nil, errdefs.InvalidArgumentErr.Errorf("device profile name is invalid: %q", name)
	}

	profiles, err := client.ListDeviceProfiles(ctx, name)
	if err != nil {
		return nil, upstreamError(err, "failed to get device profile %q", name)
	}
	if len(profiles) != 1 {
		logger.Error(
			fmt.Errorf("expected 1 device profile but got %d", len(profiles)),
			"device profile lookup failed",
			"deviceProfile",
			name,
		)
		return []DeviceProfileGroup{}, nil
	}

	return profiles[0].Groups, nil
}

// RequestGroupsFromDeviceProfile builds one request group for each group of the device profile.
// Each request group is tagged with the requester id of the profile group it comes from.
// The numeric suffix of the groups is left empty so that the caller can assign it
// when adding the groups to its ResourceRequest.
//
// Entries of a profile group spread over several suffixes are merged into its single
// request group. A resource class requested with different amounts is a
// malformed-specification error.
func RequestGroupsFromDeviceProfile(ctx context.Context, groups []DeviceProfileGroup, extractor resource.Extractor) ([]*resource.RequestGroup, error) {
	res := make([]*resource.RequestGroup, 0, len(groups))
	for i, dpGroup := range groups {
		extracted, err := extractor.Extract(ctx, dpGroup)
		if err != nil {
			return nil, fmt.Errorf("device profile group %d: %w", i, err)
		}

		rg := resource.NewRequestGroup("")
		rg.RequesterID = RequesterID(i)
		rg.UseSameProvider = true
		for _, id := range util.SortedKeys(extracted) {
			g := extracted[id]
			for _, class := range util.SortedKeys(g.Resources) {
				amount := g.Resources[class]
				if current, ok := rg.Resources[class]; ok && current != amount {
					return nil, errdefs.MalformedSpecErr.Errorf(
						"device profile group %d requests resource class %s with conflicting amounts %d and %d",
						i,
						class,
						current,
						amount,
					)
				}
				rg.AddResource(class, amount)
			}
			rg.RequiredTraits = rg.RequiredTraits.Union(g.RequiredTraits)
		}
		if rg.IsEmpty() {
			return nil, errdefs.MalformedSpecErr.Errorf("device profile group %d requests no resources or traits", i)
		}
		res = append(res, rg)
	}
	return res, nil
}

// ProfileRequestGroups looks up the device profile with the given name and returns
// the request groups built from its groups.
func ProfileRequestGroups(ctx context.Context, client Client, name string, extractor resource.Extractor) ([]*resource.RequestGroup, error) {
	dpGroups, err := DeviceProfileGroups(ctx, client, name)
	if err != nil {
		return nil, err
	}
	return RequestGroupsFromDeviceProfile(ctx, dpGroups, extractor)
}

// upstreamError returns err unchanged if it already carries a code, otherwise
// wraps it as an upstream-unavailable error.
func upstreamError(err error, format string, args ...any) error {
	var e errdefs.Error
	if errors.As(err, &e) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
	}
	return errdefs.UpstreamUnavailableErr.Errorf("%s: %v", fmt.Sprintf(format, args...), err)
}
