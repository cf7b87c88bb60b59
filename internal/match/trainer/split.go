// ContribMatch - Open Source Issue Matching & Scoring Engine
// Copyright 2026 ContribMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/contribmatch/contribmatch

package trainer

import "math/rand"

// stratifiedSplit shuffles within each label class and returns train/test
// index sets with the given test fraction per class, so both splits keep
// the original label balance. Each class contributes at least one test row.
func stratifiedSplit(labels []int, testFraction float64, rng *rand.Rand) (trainIdx, testIdx []int) {
	var pos, neg []int
	for i, y := range labels {
		if y == 1 {
			pos = append(pos, i)
		} else {
			neg = append(neg, i)
		}
	}

	for _, class := range [][]int{pos, neg} {
		class := class
		rng.Shuffle(len(class), func(i, j int) { class[i], class[j] = class[j], class[i] })

		nTest := int(float64(len(class)) * testFraction)
		if nTest < 1 && len(class) > 1 {
			nTest = 1
		}
		testIdx = append(testIdx, class[:nTest]...)
		trainIdx = append(trainIdx, class[nTest:]...)
	}

	return trainIdx, testIdx
}

// timeOrderedFolds partitions row indexes (already sorted by label time)
// into k contiguous folds. The final fold is the natural held-out split:
// it contains the most recent labels, respecting temporal ordering instead
// of random shuffling, since what counts as a good match may drift.
func timeOrderedFolds(n, k int) [][]int {
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}

	folds := make([][]int, k)
	base := n / k
	extra := n % k

	start := 0
	for f := 0; f < k; f++ {
		size := base
		if f < extra {
			size++
		}
		fold := make([]int, size)
		for i := 0; i < size; i++ {
			fold[i] = start + i
		}
		folds[f] = fold
		start += size
	}
	return folds
}
