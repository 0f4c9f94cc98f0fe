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

package trace

import (
	"math/rand"
)

// ConstraintGenerator produces the constraint set of a new task.
type ConstraintGenerator interface {
	Constraints() []int
}

// FixedConstraints gives every task the same constraint set.
type FixedConstraints []int

func (fc FixedConstraints) Constraints() []int {
	out := make([]int, len(fc))
	copy(out, fc)
	return out
}

// constraintFrequency is the percentage of tasks requiring constraint j, per statistical cluster.
var constraintFrequency = [10][21]float64{
	{8, 7, 7, 10, 23, 20, 30, 1, 3, 1, 4, 3, 2, 1, 4, 2, 9, 8, 11, 25, 29},
	{7.5, 6.6, 6.6, 9.4, 21.6, 18.8, 28.2, 0.9, 2.8, 0.9, 3.8, 2.8, 1.9, 0.9, 3.8, 1.9, 8.5, 7.5, 10.3, 23.5, 27.3},
	{7.8, 6.9, 6.9, 9.8, 22.5, 19.6, 29.4, 1, 2.9, 1, 3.9, 2.9, 2, 1, 3.9, 2, 8.8, 7.8, 10.8, 24.5, 28.4},
	{5.8, 5, 5, 7.2, 16.6, 14.4, 21.6, 0.7, 2.2, 0.7, 2.9, 2.2, 1.4, 0.7, 2.9, 1.4, 6.5, 5.8, 7.9, 18, 20.9},
	{9.7, 8.5, 8.5, 12.1, 27.8, 24.2, 36.3, 1.2, 3.6, 1.2, 4.8, 3.6, 2.4, 1.2, 4.8, 2.4, 10.9, 9.7, 13.3, 30.2, 35.1},
	{6.6, 5.7, 5.7, 8.2, 18.9, 16.4, 24.6, 0.8, 2.5, 0.8, 3.3, 2.5, 1.6, 0.8, 3.3, 1.6, 7.4, 6.6, 9, 20.5, 23.8},
	{8.7, 7.6, 7.6, 10.9, 25.1, 21.8, 32.7, 1.1, 3.3, 1.1, 4.4, 3.3, 2.2, 1.1, 4.4, 2.2, 9.8, 8.7, 12, 27.3, 31.6},
	{4.7, 4.1, 4.1, 5.9, 13.6, 11.8, 17.7, 0.6, 1.8, 0.6, 2.4, 1.8, 1.2, 0.6, 2.4, 1.2, 5.3, 4.7, 6.5, 14.8, 17.1},
	{5.7, 5, 5, 7.1, 16.3, 14.2, 21.3, 0.7, 2.1, 0.7, 2.8, 2.1, 1.4, 0.7, 2.8, 1.4, 6.4, 5.7, 7.8, 17.8, 20.6},
	{7.2, 6.3, 6.3, 9, 20.6, 17.9, 26.9, 0.9, 2.7, 0.9, 3.6, 2.7, 1.8, 0.9, 3.6, 1.8, 8.1, 7.2, 9.9, 22.4, 26},
}

// clusterWeights is the weight of every statistical cluster, per task type.
var clusterWeights = [4][10]float64{
	{0.039628712871287115, 0.1404950495049505, 0.05905940594059404, 0.12032178217821782, 0.08987623762376236,
		0.11004950495049505, 0.08987623762376236, 0.1404950495049505, 0.12032178217821782, 0.08987623762376236},
	{0.12043316831683168, 0.07971534653465345, 0.11016089108910891, 0.12043316831683168, 0.09976485148514852,
		0.09976485148514852, 0.059294554455445535, 0.13033415841584156, 0.09011138613861384, 0.08998762376237622},
	{0.13037128712871288, 0.16081683168316832, 0.1506683168316832, 0.049306930693069295, 0.16081683168316832,
		0.12047029702970297, 0.028886138613861374, 0.049306930693069295, 0.12047029702970297, 0.028886138613861374},
	{0.11675742574257425, 0.12047029702970297, 0.13383663366336634, 0.09658415841584157, 0.11675742574257425,
		0.1101980198019802, 0.049306930693069295, 0.10388613861386138, 0.09980198019801981, 0.052400990099009885},
}

// NumSyntheticConstraints is the number of constraint ids the synthetic model can produce.
const NumSyntheticConstraints = len(constraintFrequency[0])

// SyntheticConstraints draws constraint sets from a statistical model of a production cluster:
// a task type is picked uniformly, then a statistical cluster weighted by type, then every constraint is
// included with the frequency of that cluster.
type SyntheticConstraints struct {
	random *rand.Rand
}

func NewSyntheticConstraints(seed int64) *SyntheticConstraints {
	return &SyntheticConstraints{
		random: rand.New(rand.NewSource(seed)), //nolint:gosec
	}
}

func (sc *SyntheticConstraints) Constraints() []int {
	taskType := sc.random.Intn(len(clusterWeights))
	cluster := weightedPick(sc.random, clusterWeights[taskType][:])
	var constraints []int
	for j, freq := range constraintFrequency[cluster] {
		if sc.random.Float64()*100 <= freq {
			constraints = append(constraints, j)
		}
	}
	return constraints
}

func weightedPick(random *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	target := random.Float64() * total
	for i, w := range weights {
		target -= w
		if target < 0 {
			return i
		}
	}
	return len(weights) - 1
}
