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

package accelerator_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nebuly-ai/accelbind/pkg/accelerator"
	"github.com/nebuly-ai/accelbind/pkg/errdefs"
	"github.com/nebuly-ai/accelbind/pkg/test/factory"
	"github.com/nebuly-ai/accelbind/pkg/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBindings(t *testing.T) {
	testCases := []struct {
		name     string
		bindings map[string]accelerator.Binding

		expectedError bool
		expected      accelerator.BindingPatch
	}{
		{
			name:          "empty bindings",
			bindings:      map[string]accelerator.Binding{},
			expectedError: true,
		},
		{
			name:          "empty ARQ UUID",
			bindings:      map[string]accelerator.Binding{"": {"host_name": "h1"}},
			expectedError: true,
		},
		{
			name:          "binding without fields",
			bindings:      map[string]accelerator.Binding{"arq-1": {}},
			expectedError: true,
		},
		{
			name:          "empty field name",
			bindings:      map[string]accelerator.Binding{"arq-1": {"": "x"}},
			expectedError: true,
		},
		{
			name: "one add operation per field",
			bindings: map[string]accelerator.Binding{
				"arq-1": {"instance_uuid": "i1", "host_name": "h1"},
			},
			expected: accelerator.BindingPatch{
				"arq-1": {
					{Op: "add", Path: "/host_name", Value: "h1"},
					{Op: "add", Path: "/instance_uuid", Value: "i1"},
				},
			},
		},
		{
			name: "several ARQs",
			bindings: map[string]accelerator.Binding{
				"arq-1": {"host_name": "h1"},
				"arq-2": {"host_name": "h2", "device_rp_uuid": "rp-2"},
			},
			expected: accelerator.BindingPatch{
				"arq-1": {
					{Op: "add", Path: "/host_name", Value: "h1"},
				},
				"arq-2": {
					{Op: "add", Path: "/device_rp_uuid", Value: "rp-2"},
					{Op: "add", Path: "/host_name", Value: "h2"},
				},
			},
		},
		{
			name: "field names are escaped",
			bindings: map[string]accelerator.Binding{
				"arq-1": {"a/b~c": 1},
			},
			expected: accelerator.BindingPatch{
				"arq-1": {
					{Op: "add", Path: "/a~1b~0c", Value: 1},
				},
			},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := accelerator.EncodeBindings(tt.bindings)
			if tt.expectedError {
				assert.True(t, errdefs.IsInvalidArgument(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, patch)
		})
	}
}

func TestBindingPatch_JSON(t *testing.T) {
	patch, err := accelerator.EncodeBindings(map[string]accelerator.Binding{
		"arq-1": {"host_name": "h1", "instance_uuid": "i1"},
	})
	require.NoError(t, err)

	body, err := json.Marshal(patch)
	require.NoError(t, err)
	assert.JSONEq(
		t,
		`{"arq-1":[{"op":"add","path":"/host_name","value":"h1"},{"op":"add","path":"/instance_uuid","value":"i1"}]}`,
		string(body),
	)
}

func TestInstanceBinding(t *testing.T) {
	arq := factory.BuildARQ("dp", 0).WithDeviceRP("rp-0").Get()
	binding := accelerator.InstanceBinding(arq, "compute-1", "instance-1")
	assert.Equal(t, accelerator.Binding{
		"host_name":      "compute-1",
		"instance_uuid":  "instance-1",
		"device_rp_uuid": "rp-0",
	}, binding)
}

func TestBinder_Bind(t *testing.T) {
	t.Run("submits a single batch", func(t *testing.T) {
		client := &mocks.MockedAcceleratorClient{}
		binder := accelerator.NewBinder(client)

		ack, err := binder.Bind(context.Background(), map[string]accelerator.Binding{
			"arq-2": {"host_name": "h1", "instance_uuid": "i1"},
			"arq-1": {"host_name": "h1", "instance_uuid": "i1", "device_rp_uuid": "rp-1"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, client.NumCallsBindARQs)
		assert.Equal(t, []string{"arq-1", "arq-2"}, ack.ARQUUIDs)
		assert.Equal(t, 5, ack.Operations)
		require.Len(t, client.SubmittedPatches, 1)
		assert.Len(t, client.SubmittedPatches[0], 2)
	})

	t.Run("invalid bindings are not submitted", func(t *testing.T) {
		client := &mocks.MockedAcceleratorClient{}
		_, err := accelerator.NewBinder(client).Bind(context.Background(), nil)
		assert.True(t, errdefs.IsInvalidArgument(err))
		assert.Equal(t, 0, client.NumCallsBindARQs)
	})

	t.Run("rejected submission", func(t *testing.T) {
		client := &mocks.MockedAcceleratorClient{ReturnedBindError: errors.New("connection reset")}
		ack, err := accelerator.NewBinder(client).Bind(context.Background(), map[string]accelerator.Binding{
			"arq-1": {"host_name": "h1"},
		})
		assert.True(t, errdefs.IsBindingSubmission(err))
		assert.Empty(t, ack.ARQUUIDs)
	})

	t.Run("submission error code is kept", func(t *testing.T) {
		client := &mocks.MockedAcceleratorClient{
			ReturnedBindError: errdefs.BindingSubmissionErr.Errorf("status 400"),
		}
		_, err := accelerator.NewBinder(client).Bind(context.Background(), map[string]accelerator.Binding{
			"arq-1": {"host_name": "h1"},
		})
		assert.True(t, errdefs.IsBindingSubmission(err))
		assert.Contains(t, err.Error(), "status 400")
	})
}
