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

import "context"

// Relationships between the objects of this package:
//
//   - a device profile has one or more groups, just as a flavor has one or more request groups
//   - each device profile group corresponds to exactly one numbered request group of the
//     placement request, and each numbered request group to exactly one resource provider
//   - a device profile group may request several accelerators and therefore result in
//     the creation of several ARQs, but each ARQ belongs to exactly one device profile group

// DeviceProfile is a named template describing one or more accelerator requirements
type DeviceProfile struct {
	Name        string               `json:"name"`
	UUID        string               `json:"uuid"`
	Description string               `json:"description,omitempty"`
	Groups      []DeviceProfileGroup `json:"groups"`
}

// DeviceProfileGroup holds "resources:<class>" and "trait:<name>" entries plus
// zero or more vendor specific properties, e.g.
//
//	{
//	  "resources:CUSTOM_ACCELERATOR_FPGA": "2",
//	  "trait:CUSTOM_INTEL_PAC_ARRIA10": "required",
//	  "accel:bitstream_id": "FB021995_BF21_4463_936A_02D49D4DB5E5"
//	}
type DeviceProfileGroup map[string]string

type ARQState string

const (
	ARQStateInitial    ARQState = "Initial"
	ARQStateBinding    ARQState = "Binding"
	ARQStateBound      ARQState = "Bound"
	ARQStateUnbound    ARQState = "Unbound"
	ARQStateBindFailed ARQState = "BindFailed"
	ARQStateDeleting   ARQState = "Deleting"
)

// ARQ is an accelerator request, a reservation of one accelerator unit
type ARQ struct {
	UUID                 string            `json:"uuid"`
	State                ARQState          `json:"state,omitempty"`
	DeviceProfileName    string            `json:"device_profile_name,omitempty"`
	DeviceProfileGroupID int               `json:"device_profile_group_id"`
	DeviceRPUUID         string            `json:"device_rp_uuid,omitempty"`
	HostName             string            `json:"host_name,omitempty"`
	InstanceUUID         string            `json:"instance_uuid,omitempty"`
	AttachHandleType     string            `json:"attach_handle_type,omitempty"`
	AttachHandleInfo     map[string]string `json:"attach_handle_info,omitempty"`
}

func (a ARQ) IsResolved() bool {
	return a.DeviceRPUUID != ""
}

// IsBindingCompleted returns true if the binding of the ARQ reached a final state
func (a ARQ) IsBindingCompleted() bool {
	return a.State == ARQStateBound || a.State == ARQStateBindFailed
}

// Client is the accelerator-management service as seen by this package
type Client interface {
	// ListDeviceProfiles returns the device profiles with the given name
	ListDeviceProfiles(ctx context.Context, name string) ([]DeviceProfile, error)
	// CreateARQs creates the ARQs of the given device profile. The call is not idempotent.
	CreateARQs(ctx context.Context, deviceProfileName string) ([]ARQ, error)
	// BindARQs submits the binding patch batch. A nil error means the batch was accepted,
	// not that the binding is completed.
	BindARQs(ctx context.Context, patch BindingPatch) error
	// ListARQs returns the ARQs bound, or being bound, to the given instance
	ListARQs(ctx context.Context, instanceUUID string) ([]ARQ, error)
}
