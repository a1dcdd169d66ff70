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
	"strings"
	"sync"

	"github.com/nebuly-ai/accelbind/pkg/constant"
	"github.com/nebuly-ai/accelbind/pkg/errdefs"
)

// StandardClasses lists the standard resource classes. The position of a class
// is its id and must never change.
var StandardClasses = []string{
	"VCPU",
	"MEMORY_MB",
	"DISK_GB",
	"PCI_DEVICE",
	"SRIOV_NET_VF",
	"NUMA_SOCKET",
	"NUMA_CORE",
	"NUMA_THREAD",
	"NUMA_MEMORY_MB",
	"IPV4_ADDRESS",
	"VGPU",
	"VGPU_DISPLAY_HEAD",
	"NET_BW_EGR_KILOBIT_PER_SEC",
	"NET_BW_IGR_KILOBIT_PER_SEC",
	"PCPU",
	"MEM_ENCRYPTION_CONTEXT",
	"FPGA",
	"PGPU",
}

var (
	standardClassIDs  = indexStandardClasses()
	customClassRegexp = regexp.MustCompile(constant.RegexCustomResourceClass)
)

func indexStandardClasses() map[string]int {
	res := make(map[string]int, len(StandardClasses))
	for id, name := range StandardClasses {
		res[name] = id
	}
	return res
}

func IsStandardClass(name string) bool {
	_, ok := standardClassIDs[name]
	return ok
}

func IsCustomClass(name string) bool {
	return strings.HasPrefix(name, constant.CustomResourceClassPrefix)
}

// IsValidClassName returns true if the name is a standard class or carries the custom namespace prefix
func IsValidClassName(name string) bool {
	return IsStandardClass(name) || IsCustomClass(name)
}

// ClassCache maps resource class names to numeric ids and back.
// Standard classes are always known, custom classes must be registered first.
// ClassCache is safe for concurrent use.
type ClassCache struct {
	mtx      sync.RWMutex
	idByName map[string]int
	nameByID map[int]string
	nextID   int
}

func NewClassCache() *ClassCache {
	return &ClassCache{
		idByName: make(map[string]int),
		nameByID: make(map[int]string),
		nextID:   constant.FirstCustomResourceClassID,
	}
}

// Register adds a custom resource class to the cache and returns its id.
// Registering the same class twice returns the id assigned the first time.
func (c *ClassCache) Register(name string) (int, error) {
	if id, ok := standardClassIDs[name]; ok {
		return id, nil
	}
	if !customClassRegexp.MatchString(name) {
		return 0, errdefs.InvalidArgumentErr.Errorf(
			"custom resource class %q must match %s",
			name,
			constant.RegexCustomResourceClass,
		)
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()
	if id, ok := c.idByName[name]; ok {
		return id, nil
	}
	id := c.nextID
	c.nextID++
	c.idByName[name] = id
	c.nameByID[id] = name
	return id, nil
}

func (c *ClassCache) IDFromString(name string) (int, error) {
	if id, ok := standardClassIDs[name]; ok {
		return id, nil
	}
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if id, ok := c.idByName[name]; ok {
		return id, nil
	}
	return 0, errdefs.NotFoundErr.Errorf("resource class %q not found", name)
}

func (c *ClassCache) StringFromID(id int) (string, error) {
	if id >= 0 && id < len(StandardClasses) {
		return StandardClasses[id], nil
	}
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if name, ok := c.nameByID[id]; ok {
		return name, nil
	}
	return "", errdefs.NotFoundErr.Errorf("resource class with id %d not found", id)
}
