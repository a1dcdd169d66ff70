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

package factory

import (
	"github.com/google/uuid"
	"github.com/nebuly-ai/accelbind/pkg/accelerator"
	"github.com/nebuly-ai/accelbind/pkg/resource"
)

type arqBuilder struct {
	accelerator.ARQ
}

func (b *arqBuilder) WithUUID(uuid string) *arqBuilder {
	b.UUID = uuid
	return b
}

func (b *arqBuilder) WithState(state accelerator.ARQState) *arqBuilder {
	b.State = state
	return b
}

func (b *arqBuilder) WithDeviceRP(rpUUID string) *arqBuilder {
	b.DeviceRPUUID = rpUUID
	return b
}

func (b *arqBuilder) WithInstance(hostName, instanceUUID string) *arqBuilder {
	b.HostName = hostName
	b.InstanceUUID = instanceUUID
	return b
}

func (b *arqBuilder) Get() accelerator.ARQ {
	return b.ARQ
}

// BuildARQ returns a builder for an unbound ARQ with a random UUID
func BuildARQ(deviceProfileName string, deviceProfileGroupID int) *arqBuilder {
	arq := accelerator.ARQ{
		UUID:                 uuid.NewString(),
		State:                accelerator.ARQStateInitial,
		DeviceProfileName:    deviceProfileName,
		DeviceProfileGroupID: deviceProfileGroupID,
	}
	return &arqBuilder{arq}
}

type deviceProfileBuilder struct {
	accelerator.DeviceProfile
}

func (b *deviceProfileBuilder) WithGroup(group accelerator.DeviceProfileGroup) *deviceProfileBuilder {
	b.Groups = append(b.Groups, group)
	return b
}

func (b *deviceProfileBuilder) WithDescription(description string) *deviceProfileBuilder {
	b.Description = description
	return b
}

func (b *deviceProfileBuilder) Get() accelerator.DeviceProfile {
	return b.DeviceProfile
}

func BuildDeviceProfile(name string) *deviceProfileBuilder {
	dp := accelerator.DeviceProfile{
		Name: name,
		UUID: uuid.NewString(),
	}
	return &deviceProfileBuilder{dp}
}

type requestGroupBuilder struct {
	*resource.RequestGroup
}

func (b *requestGroupBuilder) WithResource(class string, amount int64) *requestGroupBuilder {
	b.AddResource(class, amount)
	return b
}

func (b *requestGroupBuilder) WithTrait(name string) *requestGroupBuilder {
	b.AddTrait(name)
	return b
}

func (b *requestGroupBuilder) WithRequesterID(requesterID string) *requestGroupBuilder {
	b.RequesterID = requesterID
	return b
}

func (b *requestGroupBuilder) WithProviders(rpUUIDs ...string) *requestGroupBuilder {
	b.ProviderUUIDs = append(b.ProviderUUIDs, rpUUIDs...)
	return b
}

func (b *requestGroupBuilder) Get() *resource.RequestGroup {
	return b.RequestGroup
}

func BuildRequestGroup(groupID string) *requestGroupBuilder {
	return &requestGroupBuilder{resource.NewRequestGroup(groupID)}
}

// BuildResolvedDeviceProfileGroup returns a request group built from the device profile
// group with the given id and resolved by placement to the given provider
func BuildResolvedDeviceProfileGroup(deviceProfileGroupID int, rpUUID string) *requestGroupBuilder {
	return BuildRequestGroup("").
		WithRequesterID(accelerator.RequesterID(deviceProfileGroupID)).
		WithProviders(rpUUID)
}
