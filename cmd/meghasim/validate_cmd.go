/*
 Licensed to the Apache Software Foundation (ASF) under one
 or more contributor license agreements.  See the NOTICE file
 distributed with this work for additional information
 regarding copyright ownership.  The ASF licenses this file
 to you under the Apache License, Version 2.0 (the
 "License"); you may not use this file except in compliance
 with the License.  You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/megha-sim/megha-core/pkg/common/configs"
)

type validateCmd struct {
	config string
}

func (v *validateCmd) registerFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "validate",
		Short: "check a topology configuration without running it",
		Args:  cobra.NoArgs,
	}
	r.Flags().StringVar(&v.config, "config", "", "topology configuration file (YAML or JSON)")
	return r
}

func (v *validateCmd) run(_ *cli, cmd *cobra.Command, _ []string) error {
	if v.config == "" {
		return fmt.Errorf("--config is required")
	}
	conf, err := configs.LoadSimulatorConfigFromFile(v.config)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "checksum: %s\n", conf.Checksum)
	fmt.Fprintf(out, "local masters: %d\n", len(conf.LMIDs()))
	fmt.Fprintf(out, "global masters: %d\n", len(conf.GMIDs()))
	fmt.Fprintf(out, "nodes: %d\n", conf.TotalNodes())
	return nil
}
