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

package v1alpha1

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/nebuly-ai/accelbind/pkg/constant"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/yaml"
)

const Kind = "AcceleratorConfig"

var GroupVersion = schema.GroupVersion{Group: "config.accelbind.nebuly.com", Version: "v1alpha1"}

type AcceleratorConfig struct {
	metav1.TypeMeta `json:",inline"`
	// Endpoint is the base URL of the accelerator-management service, including the API version path
	Endpoint     string `json:"endpoint"`
	Token        string `json:"token,omitempty"`
	Microversion string `json:"microversion,omitempty"`
	// TimeoutSeconds is the timeout of each request sent to the accelerator service
	TimeoutSeconds time.Duration `json:"timeoutSeconds,omitempty"`
	// StrictSpecs makes the extraction of request groups fail on the first malformed entry
	// instead of skipping it
	StrictSpecs bool `json:"strictSpecs,omitempty"`
}

func (c *AcceleratorConfig) FillDefaultValues() {
	if c.APIVersion == "" {
		c.APIVersion = GroupVersion.String()
	}
	if c.Kind == "" {
		c.Kind = Kind
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = time.Duration(constant.DefaultRequestTimeout.Seconds())
	}
}

func (c *AcceleratorConfig) Validate() error {
	if c.APIVersion != "" && c.APIVersion != GroupVersion.String() {
		return fmt.Errorf("unsupported apiVersion %q, expected %q", c.APIVersion, GroupVersion.String())
	}
	if c.Kind != "" && c.Kind != Kind {
		return fmt.Errorf("unsupported kind %q, expected %q", c.Kind, Kind)
	}
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint is invalid: %v", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint %q must be an absolute http(s) URL", c.Endpoint)
	}
	if c.TimeoutSeconds < 0 {
		return errors.New("timeoutSeconds cannot be negative")
	}
	return nil
}

// RequestTimeout returns the timeout of each request sent to the accelerator service
func (c *AcceleratorConfig) RequestTimeout() time.Duration {
	return c.TimeoutSeconds * time.Second
}

// LoadFromFile reads the config from the YAML file at the provided path.
// Default values are not filled.
func LoadFromFile(path string) (*AcceleratorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	var config AcceleratorConfig
	if err = yaml.UnmarshalStrict(data, &config); err != nil {
		return nil, fmt.Errorf("unable to decode config file %s: %w", path, err)
	}
	return &config, nil
}
