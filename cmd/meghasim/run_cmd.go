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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/megha-sim/megha-core/pkg/common/configs"
	"github.com/megha-sim/megha-core/pkg/log"
	"github.com/megha-sim/megha-core/pkg/recorder"
	"github.com/megha-sim/megha-core/pkg/simulation"
	"github.com/megha-sim/megha-core/pkg/trace"
	"github.com/megha-sim/megha-core/pkg/webservice"
)

type runCmd struct {
	workload string
	config   string
	logDir   string
	seed     int64
	maxTime  float64
	serve    string
	linger   time.Duration
}

func (r *runCmd) registerFlags() *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "run a workload trace through the simulated cluster",
		Args:  cobra.NoArgs,
	}
	c.Flags().StringVar(&r.workload, "workload", "", "workload trace file")
	c.Flags().StringVar(&r.config, "config", "", "topology configuration file (YAML or JSON)")
	c.Flags().StringVar(&r.logDir, "log-dir", "logs", "directory for the run output files")
	c.Flags().Int64Var(&r.seed, "seed", configs.DefaultSeed, "random seed, overrides the configuration")
	c.Flags().Float64Var(&r.maxTime, "max-time", 0, "stop once simulated time passes this value, 0 runs to completion")
	c.Flags().StringVar(&r.serve, "serve", "", "serve progress and results over HTTP on this address")
	c.Flags().DurationVar(&r.linger, "linger", 0, "keep serving results for this long after the run")
	return c
}

func (r *runCmd) run(_ *cli, cmd *cobra.Command, _ []string) (err error) {
	if r.workload == "" || r.config == "" {
		return fmt.Errorf("--workload and --config are required")
	}
	conf, err := configs.LoadSimulatorConfigFromFile(r.config)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		conf.Simulation.Seed = r.seed
	}
	workload, err := os.Open(r.workload)
	if err != nil {
		return errors.Wrap(err, "failed to open workload trace")
	}
	defer workload.Close()

	files, err := recorder.NewFileRecorder(r.logDir)
	if err != nil {
		return err
	}
	rec := recorder.Tee{files}
	var memory *recorder.MemoryRecorder
	if r.serve != "" {
		memory = recorder.NewMemoryRecorder()
		rec = append(rec, memory)
	}
	defer func() {
		err = multierr.Append(err, rec.Close())
	}()

	generator := trace.NewSyntheticConstraints(conf.Simulation.Seed)
	ingestor := trace.NewIngestor(trace.NewReader(workload), generator, rec, conf.Simulation.DuplicateStartOffset)
	sim, err := simulation.New(conf, ingestor, rec, simulation.Options{MaxTime: r.maxTime})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if r.serve != "" {
		ws := webservice.NewWebApp(sim, memory)
		ws.StartWebApp(r.serve)
		defer func() {
			err = multierr.Append(err, ws.StopWebApp())
		}()
	}

	log.Log(log.Root).Info("starting simulation",
		zap.String("runID", sim.RunID()),
		zap.String("workload", r.workload),
		zap.String("config", r.config),
		zap.String("checksum", conf.Checksum),
		zap.Int64("seed", conf.Simulation.Seed))
	summary, runErr := sim.Run(ctx)
	if summary != nil {
		out, jsonErr := json.MarshalIndent(summary, "", "  ")
		if jsonErr != nil {
			return multierr.Append(runErr, jsonErr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
	if runErr != nil {
		return runErr
	}
	if r.serve != "" && r.linger > 0 {
		log.Log(log.Root).Info("run finished, serving results",
			zap.String("address", r.serve),
			zap.Duration("linger", r.linger))
		select {
		case <-ctx.Done():
		case <-time.After(r.linger):
		}
	}
	return nil
}
