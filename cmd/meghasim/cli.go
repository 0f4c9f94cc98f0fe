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
	"github.com/spf13/cobra"

	"github.com/megha-sim/megha-core/pkg/log"
)

type cli struct {
	rootCmd  *cobra.Command
	logLevel string
}

type command interface {
	registerFlags() *cobra.Command
	run(c *cli, cmd *cobra.Command, args []string) error
}

func newCLI() *cli {
	c := &cli{}
	c.rootCmd = &cobra.Command{
		Use:               "meghasim",
		Short:             "meghasim simulates a federated cluster scheduler over a workload trace",
		SilenceUsage:      true,
		PersistentPreRunE: c.setLogLevel,
	}
	c.rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	c.addCmd(&runCmd{})
	c.addCmd(&validateCmd{})
	return c
}

func (c *cli) Exec() error {
	return c.rootCmd.Execute()
}

func (c *cli) setLogLevel(*cobra.Command, []string) error {
	level, err := log.ParseLevel(c.logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(log.Root, level)
	return nil
}

func (c *cli) addCmd(cmd command) {
	cobraCmd := cmd.registerFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.run(c, innerCmd, args)
	}
	c.rootCmd.AddCommand(cobraCmd)
}
