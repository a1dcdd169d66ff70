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

	"github.com/nebuly-ai/accelbind/pkg/errdefs"
	"github.com/nebuly-ai/accelbind/pkg/util"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Extractor turns flat resource/trait specifications into request groups.
//
// In lenient mode (the default) each malformed entry is logged and dropped, and the
// extraction fails only if the specification contained resource/trait entries but none
// of them produced a group. In strict mode the first malformed entry fails the extraction.
type Extractor struct {
	strict     bool
	classCache *ClassCache
}

type ExtractorOption func(*Extractor)

func WithStrict(strict bool) ExtractorOption {
	return func(e *Extractor) {
		e.strict = strict
	}
}

// WithClassCache registers every custom resource class accepted by the extractor in the cache
func WithClassCache(cache *ClassCache) ExtractorOption {
	return func(e *Extractor) {
		e.classCache = cache
	}
}

func NewExtractor(opts ...ExtractorOption) Extractor {
	e := Extractor{}
	for _, o := range opts {
		o(&e)
	}
	return e
}

// ExtractRequestGroups extracts the request groups using a lenient extractor
func ExtractRequestGroups(ctx context.Context, specs map[string]string) (map[string]*RequestGroup, error) {
	return NewExtractor().Extract(ctx, specs)
}

// Extract returns the request groups described by specs, indexed by group id.
// Entries sharing the same numeric suffix land in the same group, entries without
// suffix land in the group with empty id. Keys outside the resources/trait families are ignored.
func (e Extractor) Extract(ctx context.Context, specs map[string]string) (map[string]*RequestGroup, error) {
	logger := log.FromContext(ctx)

	groups := make(map[string]*RequestGroup)
	getGroup := func(id string) *RequestGroup {
		if _, ok := groups[id]; !ok {
			groups[id] = NewRequestGroup(id)
		}
		return groups[id]
	}

	var matched int
	for _, key := range util.SortedKeys(specs) {
		value := specs[key]
		spec, ok, err := ParseSpec(key, value)
		if !ok {
			continue
		}
		matched++
		if err != nil {
			if e.strict {
				return nil, err
			}
			logger.Info("skipping invalid specification entry", "key", key, "value", value, "reason", err.Error())
			continue
		}

		switch s := spec.(type) {
		case ResourceSpec:
			if e.classCache != nil && IsCustomClass(s.Class) {
				if _, err := e.classCache.Register(s.Class); err != nil {
					if e.strict {
						return nil, errdefs.MalformedSpecErr.Wrap(err)
					}
					logger.Info("skipping invalid resource class", "key", key, "reason", err.Error())
					continue
				}
			}
			getGroup(s.Group).AddResource(s.Class, s.Amount)
		case TraitSpec:
			if !s.IsRequired() {
				logger.V(1).Info("unsupported trait level, treating trait as required", "key", key, "level", s.Level)
			}
			getGroup(s.Group).AddTrait(s.Name)
		}
	}

	if matched > 0 && len(groups) == 0 {
		return nil, errdefs.MalformedSpecErr.Errorf(
			"none of the %d resource/trait entries of the specification is valid",
			matched,
		)
	}
	logger.V(1).Info("extracted request groups", "groups", len(groups), "entries", matched)

	return groups, nil
}
