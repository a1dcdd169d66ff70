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

package main

import (
	"fmt"
	"strconv"

	"github.com/nebuly-ai/accelbind/pkg/accelerator"
	"github.com/nebuly-ai/accelbind/pkg/constant"
	"github.com/nebuly-ai/accelbind/pkg/errdefs"
	"github.com/nebuly-ai/accelbind/pkg/resource"
	"github.com/nebuly-ai/accelbind/pkg/util"
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

func newResolveCmd(opts *rootOptions) *cobra.Command {
	var providers []string
	cmd := &cobra.Command{
		Use:   "resolve NAME --provider GROUP=RP_UUID...",
		Short: "Create the ARQs of a device profile and resolve them to the given resource providers",
		Long: `Create the ARQs of a device profile and resolve each of them to the resource provider
chosen by placement for its device profile group. The call is not idempotent:
every invocation creates new ARQs.`,
		Example: `  accelctl resolve fpga-dp --provider 0=5518a925-1c2c-49a2-a8bf-0927d9456f3e`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, config, err := opts.connect()
			if err != nil {
				return err
			}
			groups, err := accelerator.ProfileRequestGroups(ctx, client, args[0], newExtractor(config.StrictSpecs))
			if err != nil {
				return err
			}
			req := resource.NewResourceRequest()
			for _, g := range groups {
				if err = req.AddRequestGroup(g); err != nil {
					return err
				}
			}

			pairs, err := util.ParseKeyValuePairs(providers)
			if err != nil {
				return err
			}
			mapping := make(map[string][]string, len(pairs))
			for k, rp := range pairs {
				dpGroupID, err := strconv.Atoi(k)
				if err != nil || dpGroupID < 0 || dpGroupID >= len(groups) {
					return errdefs.InvalidArgumentErr.Errorf("invalid device profile group %q", k)
				}
				if !util.IsUUID(rp) {
					log.FromContext(ctx).Info("resource provider is not a UUID", "group", dpGroupID, "provider", rp)
				}
				mapping[groups[dpGroupID].GroupID] = []string{rp}
			}
			if err = req.ApplyProviderMapping(mapping); err != nil {
				return err
			}

			arqs, err := accelerator.NewFactory(client).Resolve(ctx, args[0], req.Groups())
			if err != nil {
				return err
			}
			printARQs(cmd, arqs)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&providers, "provider", nil, "Provider chosen by placement for a device profile group, in the form GROUP=RP_UUID")
	return cmd
}

func newBindCmd(opts *rootOptions) *cobra.Command {
	var (
		hostName     string
		instanceUUID string
		deviceRP     string
		fields       []string
	)
	cmd := &cobra.Command{
		Use:   "bind ARQ_UUID... --host HOST --instance INSTANCE_UUID",
		Short: "Submit the binding of ARQs to an instance",
		Long: `Submit the binding of ARQs to an instance. The binding completes asynchronously,
use "accelctl status" to check the state of the ARQs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInstanceUUID(instanceUUID); err != nil {
				return err
			}
			client, _, err := opts.connect()
			if err != nil {
				return err
			}
			extra, err := util.ParseKeyValuePairs(fields)
			if err != nil {
				return err
			}

			bindings := make(map[string]accelerator.Binding, len(args))
			for _, arqUUID := range args {
				binding := accelerator.InstanceBinding(accelerator.ARQ{UUID: arqUUID, DeviceRPUUID: deviceRP}, hostName, instanceUUID)
				if deviceRP == "" {
					delete(binding, constant.BindingFieldDeviceRPUUID)
				}
				for k, v := range extra {
					binding[k] = v
				}
				bindings[arqUUID] = binding
			}

			ack, err := accelerator.NewBinder(client).Bind(cmd.Context(), bindings)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "binding of %d ARQs submitted (%d operations)\n", len(ack.ARQUUIDs), ack.Operations)
			return nil
		},
	}
	cmd.Flags().StringVar(&hostName, "host", "", "Name of the host of the instance")
	cmd.Flags().StringVar(&instanceUUID, "instance", "", "UUID of the instance")
	cmd.Flags().StringVar(&deviceRP, "device-rp", "", "UUID of the resource provider of the device")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Additional binding field in the form KEY=VALUE")
	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("instance")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status INSTANCE_UUID",
		Short: "Show the ARQs bound to an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInstanceUUID(args[0]); err != nil {
				return err
			}
			client, _, err := opts.connect()
			if err != nil {
				return err
			}
			arqs, err := client.ListARQs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printARQs(cmd, arqs)
			return nil
		},
	}
}

func validateInstanceUUID(instanceUUID string) error {
	if !util.IsUUID(instanceUUID) {
		return errdefs.InvalidArgumentErr.Errorf("instance %q is not a valid UUID", instanceUUID)
	}
	return nil
}

func printARQs(cmd *cobra.Command, arqs []accelerator.ARQ) {
	table := newTable(cmd.OutOrStdout(), "UUID", "STATE", "DEVICE PROFILE", "GROUP", "DEVICE RP", "HOST", "INSTANCE")
	for _, arq := range arqs {
		table.Append([]string{
			arq.UUID,
			string(arq.State),
			arq.DeviceProfileName,
			strconv.Itoa(arq.DeviceProfileGroupID),
			arq.DeviceRPUUID,
			arq.HostName,
			arq.InstanceUUID,
		})
	}
	table.Render()
}
