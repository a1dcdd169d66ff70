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
	"regexp"
	"strconv"
	"strings"

	"github.com/nebuly-ai/accelbind/pkg/constant"
	"github.com/nebuly-ai/accelbind/pkg/errdefs"
)

var specKeyRegex = regexp.MustCompile(constant.RegexSpecKey)

// Spec is a single parsed resource or trait entry of a flavor or device profile group.
// The concrete type is either ResourceSpec or TraitSpec.
type Spec interface {
	// GroupID returns the numeric suffix of the key, or an empty string for unnumbered entries
	GroupID() string
	isSpec()
}

type ResourceSpec struct {
	Group  string
	Class  string
	Amount int64
}

func (s ResourceSpec) GroupID() string {
	return s.Group
}

func (ResourceSpec) isSpec() {}

type TraitSpec struct {
	Group string
	Name  string
	// Level is the raw requirement level, only "required" has a meaning today
	Level string
}

func (s TraitSpec) GroupID() string {
	return s.Group
}

func (s TraitSpec) IsRequired() bool {
	return s.Level == constant.TraitRequired
}

func (TraitSpec) isSpec() {}

// ParseSpec parses a single key/value specification entry.
//
// The boolean is false when the key does not belong to the resources/trait families:
// such keys (e.g. vendor properties like "accel:bitstream_id") are not an error and
// are left to other consumers. An error is returned when the key matches but the entry
// is invalid, that is the resource class is unknown or the amount is not a non-negative integer.
func ParseSpec(key, value string) (Spec, bool, error) {
	m := specKeyRegex.FindStringSubmatch(key)
	if m == nil {
		return nil, false, nil
	}
	kind, group, name := m[1], m[2], m[3]

	if kind == constant.SpecPrefixTrait {
		if name == "" {
			return nil, true, errdefs.MalformedSpecErr.Errorf("empty trait name in key %q", key)
		}
		return TraitSpec{Group: group, Name: name, Level: value}, true, nil
	}

	if !IsValidClassName(name) {
		return nil, true, errdefs.MalformedSpecErr.Errorf("invalid resource class %q in key %q", name, key)
	}
	amount, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || amount < 0 {
		return nil, true, errdefs.MalformedSpecErr.Errorf(
			"resource amounts must be non-negative integers, received %q for key %s%s",
			value,
			constant.SpecPrefixResources,
			group,
		)
	}
	return ResourceSpec{Group: group, Class: name, Amount: amount}, true, nil
}
