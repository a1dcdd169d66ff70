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
	"context"
	"fmt"
	"strings"

	"github.com/nebuly-ai/accelbind/pkg/constant"
	"github.com/nebuly-ai/accelbind/pkg/errdefs"
	"github.com/nebuly-ai/accelbind/pkg/util"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

const PatchOpAdd = "add"

// PatchOperation is a single JSON patch operation. Only "add" operations are produced.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

func NewAddOperation(field string, value any) PatchOperation {
	return PatchOperation{
		Op:    PatchOpAdd,
		Path:  "/" + escapeJSONPointer(field),
		Value: value,
	}
}

// Binding contains the fields to set on an ARQ, indexed by field name
type Binding map[string]any

// BindingPatch is the body of a bind request: the patch operations to apply, indexed by ARQ UUID
type BindingPatch map[string][]PatchOperation

// ARQUUIDs returns the UUIDs of the ARQs of the patch in ascending order
func (p BindingPatch) ARQUUIDs() []string {
	return util.SortedKeys(p)
}

// BindAck is returned when the accelerator service accepted a bind request.
// It does not mean that the binding is completed: the state of the ARQs must be
// checked through Client.ListARQs.
type BindAck struct {
	ARQUUIDs   []string
	Operations int
}

// InstanceBinding returns the binding attaching the resolved ARQ to the given host and instance
func InstanceBinding(arq ARQ, hostName, instanceUUID string) Binding {
	return Binding{
		constant.BindingFieldHostName:     hostName,
		constant.BindingFieldInstanceUUID: instanceUUID,
		constant.BindingFieldDeviceRPUUID: arq.DeviceRPUUID,
	}
}

// EncodeBindings converts each binding into a list of add operations, one for each
// field, ordered by field name.
func EncodeBindings(bindings map[string]Binding) (BindingPatch, error) {
	if len(bindings) == 0 {
		return nil, errdefs.InvalidArgumentErr.Errorf("bindings cannot be empty")
	}
	patch := make(BindingPatch, len(bindings))
	for arqUUID, binding := range bindings {
		if arqUUID == "" {
			return nil, errdefs.InvalidArgumentErr.Errorf("ARQ UUID cannot be empty")
		}
		if len(binding) == 0 {
			return nil, errdefs.InvalidArgumentErr.Errorf("binding of ARQ %s has no fields", arqUUID)
		}
		ops := make([]PatchOperation, 0, len(binding))
		for _, field := range util.SortedKeys(binding) {
			if field == "" {
				return nil, errdefs.InvalidArgumentErr.Errorf("binding of ARQ %s contains an empty field name", arqUUID)
			}
			ops = append(ops, NewAddOperation(field, binding[field]))
		}
		patch[arqUUID] = ops
	}
	return patch, nil
}

// Binder submits bind requests to the accelerator service
type Binder struct {
	client Client
}

func NewBinder(client Client) *Binder {
	return &Binder{client: client}
}

// Bind encodes the bindings and submits them as a single batch. The call returns as soon as the
// accelerator service accepts the batch, the binding itself completes asynchronously.
func (b *Binder) Bind(ctx context.Context, bindings map[string]Binding) (BindAck, error) {
	logger := log.FromContext(ctx)

	patch, err := EncodeBindings(bindings)
	if err != nil {
		return BindAck{}, err
	}

	if err = b.client.BindARQs(ctx, patch); err != nil {
		if errdefs.IsBindingSubmission(err) {
			return BindAck{}, err
		}
		return BindAck{}, errdefs.BindingSubmissionErr.Errorf("failed to submit binding of %d ARQs: %w", len(patch), err)
	}

	ack := BindAck{ARQUUIDs: patch.ARQUUIDs()}
	for _, ops := range patch {
		ack.Operations += len(ops)
	}
	logger.V(1).Info("binding submitted", "arqs", ack.ARQUUIDs, "operations", ack.Operations)
	return ack, nil
}

func escapeJSONPointer(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}

func (o PatchOperation) String() string {
	return fmt.Sprintf("%s %s %v", o.Op, o.Path, o.Value)
}
