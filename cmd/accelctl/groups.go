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
	"github.com/nebuly-ai/accelbind/pkg/resource"
	"github.com/nebuly-ai/accelbind/pkg/util"
	"github.com/spf13/cobra"
)

func newGroupsCmd(opts *rootOptions) *cobra.Command {
	var specs []string
	cmd := &cobra.Command{
		Use:     "groups --spec KEY=VALUE...",
		Short:   "Show the request groups described by a set of resource/trait specs",
		Example: `  accelctl groups --spec resources1:CUSTOM_FPGA=1 --spec trait1:CUSTOM_INTEL=required`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := util.ParseKeyValuePairs(specs)
			if err != nil {
				return err
			}
			strict, err := opts.strictSpecs()
			if err != nil {
				return err
			}
			req, err := resource.NewResourceRequestFromSpecs(cmd.Context(), newExtractor(strict), parsed)
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), "GROUP", "RESOURCES", "TRAITS", "SAME PROVIDER")
			for _, g := range req.Groups() {
				table.Append([]string{g.GroupID, formatResources(g), formatTraits(g), strconv.FormatBool(g.UseSameProvider)})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&specs, "spec", nil, "Resource or trait spec in the form KEY=VALUE, can be repeated")
	return cmd
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile NAME",
		Short: "Show the request groups of a device profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, config, err := opts.connect()
			if err != nil {
				return err
			}
			groups, err := accelerator.ProfileRequestGroups(cmd.Context(), client, args[0], newExtractor(config.StrictSpecs))
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				return fmt.Errorf("device profile %q not found or ambiguous", args[0])
			}
			table := newTable(cmd.OutOrStdout(), "DEVICE PROFILE GROUP", "REQUESTER ID", "RESOURCES", "TRAITS")
			for i, g := range groups {
				table.Append([]string{strconv.Itoa(i), g.RequesterID, formatResources(g), formatTraits(g)})
			}
			table.Render()
			return nil
		},
	}
}
