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

package mocks

import (
	"context"
	"sync"

	"github.com/nebuly-ai/accelbind/pkg/accelerator"
)

type MockedAcceleratorClient struct {
	ReturnedDeviceProfiles []accelerator.DeviceProfile
	ReturnedARQs           []accelerator.ARQ
	ReturnedError          error
	// ReturnedBindError, if set, overrides ReturnedError for BindARQs
	ReturnedBindError error

	NumCallsListDeviceProfiles int
	NumCallsCreateARQs         int
	NumCallsBindARQs           int
	NumCallsListARQs           int

	LastDeviceProfileName string
	LastInstanceUUID      string
	SubmittedPatches      []accelerator.BindingPatch

	lock sync.Mutex
}

func (m *MockedAcceleratorClient) Reset() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.NumCallsListDeviceProfiles = 0
	m.NumCallsCreateARQs = 0
	m.NumCallsBindARQs = 0
	m.NumCallsListARQs = 0
	m.LastDeviceProfileName = ""
	m.LastInstanceUUID = ""
	m.SubmittedPatches = nil
}

func (m *MockedAcceleratorClient) ListDeviceProfiles(_ context.Context, name string) ([]accelerator.DeviceProfile, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.NumCallsListDeviceProfiles++
	m.LastDeviceProfileName = name
	return m.ReturnedDeviceProfiles, m.ReturnedError
}

func (m *MockedAcceleratorClient) CreateARQs(_ context.Context, deviceProfileName string) ([]accelerator.ARQ, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.NumCallsCreateARQs++
	m.LastDeviceProfileName = deviceProfileName
	if m.ReturnedError != nil {
		return nil, m.ReturnedError
	}
	res := make([]accelerator.ARQ, len(m.ReturnedARQs))
	copy(res, m.ReturnedARQs)
	return res, nil
}

func (m *MockedAcceleratorClient) BindARQs(_ context.Context, patch accelerator.BindingPatch) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.NumCallsBindARQs++
	m.SubmittedPatches = append(m.SubmittedPatches, patch)
	if m.ReturnedBindError != nil {
		return m.ReturnedBindError
	}
	return m.ReturnedError
}

func (m *MockedAcceleratorClient) ListARQs(_ context.Context, instanceUUID string) ([]accelerator.ARQ, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.NumCallsListARQs++
	m.LastInstanceUUID = instanceUUID
	return m.ReturnedARQs, m.ReturnedError
}
