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
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"
)

// RequestGroup is a set of resource and trait constraints that must be
// satisfied by a single resource provider decision.
type RequestGroup struct {
	// GroupID is the numeric suffix of the group, empty for the unnumbered group
	GroupID        string
	Resources      map[string]int64
	RequiredTraits sets.String
	// ProviderUUIDs are the resource providers chosen by placement for this group.
	// Empty until the placement decision has been applied.
	ProviderUUIDs []string
	// RequesterID is an opaque value used to correlate the group with the entity that requested it
	RequesterID     string
	UseSameProvider bool
}

func NewRequestGroup(groupID string) *RequestGroup {
	return &RequestGroup{
		GroupID:         groupID,
		Resources:       make(map[string]int64),
		RequiredTraits:  sets.NewString(),
		UseSameProvider: groupID != "",
	}
}

func (g *RequestGroup) AddResource(class string, amount int64) {
	g.Resources[class] = amount
}

func (g *RequestGroup) AddTrait(name string) {
	g.RequiredTraits.Insert(name)
}

func (g *RequestGroup) IsEmpty() bool {
	return len(g.Resources) == 0 && g.RequiredTraits.Len() == 0
}

// SingleProvider returns the only provider assigned to the group.
// It fails if placement assigned no provider or more than one.
func (g *RequestGroup) SingleProvider() (string, error) {
	if len(g.ProviderUUIDs) != 1 {
		return "", fmt.Errorf(
			"expected exactly 1 provider for request group %q, found %d",
			g.RequesterID,
			len(g.ProviderUUIDs),
		)
	}
	return g.ProviderUUIDs[0], nil
}

func (g *RequestGroup) String() string {
	return fmt.Sprintf(
		"RequestGroup(id=%q, requester=%q, resources=%v, traits=%v, providers=%v)",
		g.GroupID,
		g.RequesterID,
		g.Resources,
		g.RequiredTraits.List(),
		g.ProviderUUIDs,
	)
}
