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
	"fmt"

	"github.com/nebuly-ai/accelbind/pkg/resource"
)

// CorrelationError describes an ARQ that could not be matched to exactly one
// resolved request group with exactly one provider.
type CorrelationError struct {
	ARQUUID     string
	RequesterID string
	// Matches is the number of request groups whose requester id matches the ARQ
	Matches int
	// Providers is the number of providers of the matching group, meaningful only if Matches is 1
	Providers int
}

func (e *CorrelationError) Error() string {
	if e.Matches != 1 {
		return fmt.Sprintf(
			"ARQ %s: expected exactly 1 request group with requester id %q, found %d",
			e.ARQUUID,
			e.RequesterID,
			e.Matches,
		)
	}
	return fmt.Sprintf(
		"ARQ %s: expected exactly 1 provider for request group %q, found %d",
		e.ARQUUID,
		e.RequesterID,
		e.Providers,
	)
}

// Correlation is the outcome of matching a single ARQ. Exactly one of ProviderUUID and Err is set.
type Correlation struct {
	ARQ          ARQ
	ProviderUUID string
	Err          *CorrelationError
}

func (c Correlation) Ok() bool {
	return c.Err == nil
}

// Correlate matches every ARQ against the request groups through the requester id
// derived from its device profile group id. The result contains one entry per ARQ,
// in the same order, and never modifies its inputs.
func Correlate(arqs []ARQ, groups []*resource.RequestGroup) []Correlation {
	byRequester := make(map[string][]*resource.RequestGroup, len(groups))
	for _, g := range groups {
		if g.RequesterID == "" {
			continue
		}
		byRequester[g.RequesterID] = append(byRequester[g.RequesterID], g)
	}

	res := make([]Correlation, 0, len(arqs))
	for _, arq := range arqs {
		requesterID := RequesterID(arq.DeviceProfileGroupID)
		matching := byRequester[requesterID]
		c := Correlation{ARQ: arq}
		switch {
		case len(matching) != 1:
			c.Err = &CorrelationError{ARQUUID: arq.UUID, RequesterID: requesterID, Matches: len(matching)}
		case len(matching[0].ProviderUUIDs) != 1 || matching[0].ProviderUUIDs[0] == "":
			c.Err = &CorrelationError{
				ARQUUID:     arq.UUID,
				RequesterID: requesterID,
				Matches:     1,
				Providers:   len(matching[0].ProviderUUIDs),
			}
		default:
			c.ProviderUUID = matching[0].ProviderUUIDs[0]
		}
		res = append(res, c)
	}
	return res
}
