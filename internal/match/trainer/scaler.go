// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

import "gonum.org/v1/gonum/stat"

// StandardScaler standardizes features to zero mean and unit variance,
// fitted on the training split only.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// FitScaler computes per-column mean and standard deviation.
func FitScaler(features [][]float64) *StandardScaler {
	if len(features) == 0 {
		return &StandardScaler{}
	}

	dim := len(features[0])
	s := &StandardScaler{
		Mean: make([]float64, dim),
		Std:  make([]float64, dim),
	}

	col := make([]float64, len(features))
	for j := 0; j < dim; j++ {
		for i, row := range features {
			col[i] = row[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		s.Mean[j] = mean
		if std == 0 || len(features) < 2 {
			std = 1 // constant column, leave values centered only
		}
		s.Std[j] = std
	}

	return s
}

// Transform returns a standardized copy of the vector.
func (s *StandardScaler) Transform(x []float64) []float64 {
	if len(s.Mean) == 0 {
		return x
	}
	out := make([]float64, len(x))
	for j := range x {
		if j < len(s.Mean) {
			out[j] = (x[j] - s.Mean[j]) / s.Std[j]
		} else {
			out[j] = x[j]
		}
	}
	return out
}

// TransformAll standardizes a batch of vectors.
func (s *StandardScaler) TransformAll(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for i, x := range features {
		out[i] = s.Transform(x)
	}
	return out
}
