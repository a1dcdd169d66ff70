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

package resource

import (
	"context"
	"sort"
	"strconv"

	"github.com/nebuly-ai/accelbind/pkg/errdefs"
	"github.com/nebuly-ai/accelbind/pkg/util"
)

// ResourceRequest collects the request groups of a single placement attempt
type ResourceRequest struct {
	groups map[string]*RequestGroup
}

func NewResourceRequest() *ResourceRequest {
	return &ResourceRequest{groups: make(map[string]*RequestGroup)}
}

// NewResourceRequestFromSpecs builds a ResourceRequest from flavor extra specs
func NewResourceRequestFromSpecs(ctx context.Context, extractor Extractor, specs map[string]string) (*ResourceRequest, error) {
	groups, err := extractor.Extract(ctx, specs)
	if err != nil {
		return nil, err
	}
	return &ResourceRequest{groups: groups}, nil
}

// AddRequestGroup adds the group to the request, assigning it the next free
// numeric suffix if the group does not carry one yet.
func (r *ResourceRequest) AddRequestGroup(group *RequestGroup) error {
	if group.GroupID == "" {
		group.GroupID = strconv.Itoa(r.nextGroupID())
		group.UseSameProvider = true
	}
	if _, ok := r.groups[group.GroupID]; ok {
		return errdefs.InvalidArgumentErr.Errorf("request group %q already exists", group.GroupID)
	}
	r.groups[group.GroupID] = group
	return nil
}

func (r *ResourceRequest) nextGroupID() int {
	var max int
	for id := range r.groups {
		if n, err := strconv.Atoi(id); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// Get returns the group with the given id
func (r *ResourceRequest) Get(groupID string) (*RequestGroup, bool) {
	g, ok := r.groups[groupID]
	return g, ok
}

// Groups returns the request groups ordered by id: the unnumbered group first,
// then the numbered groups in ascending numeric order.
func (r *ResourceRequest) Groups() []*RequestGroup {
	ids := util.SortedKeys(r.groups)
	sort.SliceStable(ids, func(i, j int) bool {
		return groupIDLess(ids[i], ids[j])
	})
	res := make([]*RequestGroup, 0, len(ids))
	for _, id := range ids {
		res = append(res, r.groups[id])
	}
	return res
}

func groupIDLess(a, b string) bool {
	if a == "" || b == "" {
		return a == "" && b != ""
	}
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return na < nb
}

// ApplyProviderMapping records the placement decision on the request groups.
// The mapping goes from group id to the providers chosen for that group.
// Every group of the request must be present in the mapping, and a group
// can receive a decision only once.
func (r *ResourceRequest) ApplyProviderMapping(mapping map[string][]string) error {
	for id := range mapping {
		if _, ok := r.groups[id]; !ok {
			return errdefs.InvalidArgumentErr.Errorf("provider mapping refers to unknown request group %q", id)
		}
	}
	for _, g := range r.Groups() {
		providers, ok := mapping[g.GroupID]
		if !ok || len(providers) == 0 {
			return errdefs.InvalidArgumentErr.Errorf("provider mapping has no provider for request group %q", g.GroupID)
		}
		if len(g.ProviderUUIDs) > 0 {
			return errdefs.InternalConsistencyErr.Errorf("request group %q already has providers %v", g.GroupID, g.ProviderUUIDs)
		}
	}
	for _, g := range r.groups {
		g.ProviderUUIDs = append([]string(nil), mapping[g.GroupID]...)
	}
	return nil
}
