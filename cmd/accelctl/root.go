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
	goflag "flag"
	"fmt"
	"io"
	"strings"

	"github.com/nebuly-ai/accelbind/pkg/accelerator"
	configv1alpha1 "github.com/nebuly-ai/accelbind/pkg/api/accelbind.nebuly.com/config/v1alpha1"
	"github.com/nebuly-ai/accelbind/pkg/constant"
	"github.com/nebuly-ai/accelbind/pkg/resource"
	"github.com/nebuly-ai/accelbind/pkg/util"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

const (
	flagConfig         = "config"
	flagEndpoint       = "endpoint"
	flagToken          = "token"
	flagMicroversion   = "microversion"
	flagTimeoutSeconds = "timeout-seconds"
	flagStrictSpecs    = "strict-specs"
)

// clientFactory builds the accelerator client from the loaded config
type clientFactory func(config *configv1alpha1.AcceleratorConfig) (accelerator.Client, error)

type rootOptions struct {
	v         *viper.Viper
	newClient clientFactory
}

// config returns the config file, if any, overlaid with flags and environment variables
func (o *rootOptions) config() (*configv1alpha1.AcceleratorConfig, error) {
	config := &configv1alpha1.AcceleratorConfig{}
	if path := o.v.GetString(flagConfig); path != "" {
		var err error
		if config, err = configv1alpha1.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if o.v.IsSet(flagEndpoint) {
		config.Endpoint = o.v.GetString(flagEndpoint)
	}
	if o.v.IsSet(flagToken) {
		config.Token = o.v.GetString(flagToken)
	}
	if o.v.IsSet(flagMicroversion) {
		config.Microversion = o.v.GetString(flagMicroversion)
	}
	if o.v.IsSet(flagTimeoutSeconds) {
		config.TimeoutSeconds = o.v.GetDuration(flagTimeoutSeconds)
	}
	if o.v.IsSet(flagStrictSpecs) {
		config.StrictSpecs = o.v.GetBool(flagStrictSpecs)
	}
	config.FillDefaultValues()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// strictSpecs returns the strict mode setting without requiring a complete config,
// for commands that do not contact the accelerator service.
func (o *rootOptions) strictSpecs() (bool, error) {
	if o.v.IsSet(flagStrictSpecs) {
		return o.v.GetBool(flagStrictSpecs), nil
	}
	if path := o.v.GetString(flagConfig); path != "" {
		config, err := configv1alpha1.LoadFromFile(path)
		if err != nil {
			return false, err
		}
		return config.StrictSpecs, nil
	}
	return false, nil
}

// connect loads the config and builds the accelerator client from it
func (o *rootOptions) connect() (accelerator.Client, *configv1alpha1.AcceleratorConfig, error) {
	config, err := o.config()
	if err != nil {
		return nil, nil, err
	}
	client, err := o.newClient(config)
	if err != nil {
		return nil, nil, err
	}
	return client, config, nil
}

func newExtractor(strict bool) resource.Extractor {
	return resource.NewExtractor(
		resource.WithStrict(strict),
		resource.WithClassCache(resource.NewClassCache()),
	)
}

func NewRootCmd(newClient clientFactory) *cobra.Command {
	opts := &rootOptions{v: viper.New(), newClient: newClient}

	zapOpts := zap.Options{
		Development: util.GetEnvBool(constant.EnvVarPrefix+"_DEVELOPMENT", false),
	}
	zapFlags := goflag.NewFlagSet("zap", goflag.ContinueOnError)
	zapOpts.BindFlags(zapFlags)

	cmd := &cobra.Command{
		Use:           "accelctl",
		Short:         "Resolve and bind accelerator requests",
		Long:          `Inspect device profiles, create accelerator requests (ARQs) resolved to the providers chosen by placement, and bind them to instances.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zapOpts.DestWriter = cmd.ErrOrStderr()
			log.SetLogger(zap.New(zap.UseFlagOptions(&zapOpts)))
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(flagConfig, "", "Path to the AcceleratorConfig file. Flags and environment variables override its values.")
	flags.String(flagEndpoint, "", "Base URL of the accelerator-management service")
	flags.String(flagToken, "", "Auth token sent with every request")
	flags.String(flagMicroversion, "", "API microversion of the accelerator-management service")
	flags.Int(flagTimeoutSeconds, int(constant.DefaultRequestTimeout.Seconds()), "Timeout in seconds of each request")
	flags.Bool(flagStrictSpecs, false, "Fail on the first malformed resource/trait entry instead of skipping it")
	flags.AddGoFlagSet(zapFlags)

	cobra.CheckErr(bindEnvAndFlags(opts.v, flags))

	cmd.AddCommand(
		newGroupsCmd(opts),
		newProfileCmd(opts),
		newResolveCmd(opts),
		newBindCmd(opts),
		newStatusCmd(opts),
	)
	return cmd
}

// bindEnvAndFlags makes each flag readable from the environment variable
// ACCELBIND_<FLAG>, with dashes replaced by underscores. Flags take precedence.
func bindEnvAndFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	v.SetEnvPrefix(constant.EnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v.BindPFlags(flags)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	return table
}

func formatResources(g *resource.RequestGroup) string {
	res := make([]string, 0, len(g.Resources))
	for _, class := range util.SortedKeys(g.Resources) {
		res = append(res, fmt.Sprintf("%s=%d", class, g.Resources[class]))
	}
	return strings.Join(res, ",")
}

func formatTraits(g *resource.RequestGroup) string {
	return strings.Join(g.RequiredTraits.List(), ",")
}
