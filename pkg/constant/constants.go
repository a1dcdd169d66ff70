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

package constant

import "time"

const (
	// AcceleratorServiceType is the service catalog type of the accelerator-management service
	AcceleratorServiceType = "accelerator"

	DeviceProfilesPath      = "/device_profiles"
	AcceleratorRequestsPath = "/accelerator_requests"
)

const (
	HeaderAuthToken  = "X-Auth-Token"
	HeaderAPIVersion = "OpenStack-API-Version"
	MediaTypeJSON    = "application/json"
)

const (
	// SpecPrefixResources is the extra-spec key family carrying resource amounts
	SpecPrefixResources = "resources"
	// SpecPrefixTrait is the extra-spec key family carrying trait requirements
	SpecPrefixTrait = "trait"
	// RegexSpecKey matches "resources[N]:<class>" and "trait[N]:<name>"
	RegexSpecKey = `^(resources|trait)([1-9][0-9]*)?:(.*)$`

	// CustomResourceClassPrefix is the namespace of operator-defined resource classes
	CustomResourceClassPrefix = "CUSTOM_"
	RegexCustomResourceClass  = `^CUSTOM_[A-Z0-9_]+$`
	// FirstCustomResourceClassID is the id assigned to the first registered custom class
	FirstCustomResourceClassID = 10000

	TraitRequired = "required"
)

const (
	// RequesterIDPrefix prefixes the requester id of request groups spawned by device profile groups
	RequesterIDPrefix = "device_profile_"
)

const (
	BindingFieldHostName     = "host_name"
	BindingFieldInstanceUUID = "instance_uuid"
	BindingFieldDeviceRPUUID = "device_rp_uuid"
)

const (
	EnvVarPrefix          = "ACCELBIND"
	DefaultRequestTimeout = 30 * time.Second
	MetricsNamespace      = "accelbind"
)
