package lda

import (
	"math/rand"
	"time"
)

// looThreshold is the largest sample count evaluated by leave-one-out;
// above it the estimate switches to 10-fold for tractability.
const (
	looThreshold = 100
	kFolds       = 10
)

// estimateAccuracy cross-validates the fitted pipeline: leave-one-out for
// small calibration sets, 10-fold on a shuffled partition otherwise.
func estimateAccuracy(x [][]float64, y []int, seed int64) float64 {
	if len(x) <= looThreshold {
		return leaveOneOut(x, y)
	}
	return kFold(x, y, seed)
}

// leaveOneOut refits the discriminant once per held-out sample. Folds
// whose training remainder collapses to a single class are skipped.
func leaveOneOut(x [][]float64, y []int) float64 {
	correct, evaluated := 0, 0

	trainX := make([][]float64, 0, len(x)-1)
	trainY := make([]int, 0, len(y)-1)
	for held := range x {
		trainX = trainX[:0]
		trainY = trainY[:0]
		n0, n1 := 0, 0
		for i := range x {
			if i == held {
				continue
			}
			trainX = append(trainX, x[i])
			trainY = append(trainY, y[i])
			if y[i] == 1 {
				n1++
			} else {
				n0++
			}
		}
		if n0 == 0 || n1 == 0 {
			continue
		}

		w, threshold, _ := fit(trainX, trainY)
		predicted := 0
		if dot(w, x[held])-threshold > 0 {
			predicted = 1
		}
		if predicted == y[held] {
			correct++
		}
		evaluated++
	}

	if evaluated == 0 {
		return 0
	}
	return float64(correct) / float64(evaluated)
}

// kFold shuffles the samples and evaluates each fold against a model
// fitted on the remaining folds.
func kFold(x [][]float64, y []int, seed int64) float64 {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	order := rng.Perm(len(x))
	foldSize := (len(x) + kFolds - 1) / kFolds

	correct, evaluated := 0, 0
	for fold := 0; fold < kFolds; fold++ {
		lo := fold * foldSize
		if lo >= len(order) {
			break
		}
		hi := lo + foldSize
		if hi > len(order) {
			hi = len(order)
		}

		heldOut := make(map[int]bool, hi-lo)
		for _, idx := range order[lo:hi] {
			heldOut[idx] = true
		}

		trainX := make([][]float64, 0, len(x)-(hi-lo))
		trainY := make([]int, 0, len(y)-(hi-lo))
		n0, n1 := 0, 0
		for i := range x {
			if heldOut[i] {
				continue
			}
			trainX = append(trainX, x[i])
			trainY = append(trainY, y[i])
			if y[i] == 1 {
				n1++
			} else {
				n0++
			}
		}
		if n0 == 0 || n1 == 0 {
			continue
		}

		w, threshold, _ := fit(trainX, trainY)
		for idx := range heldOut {
			predicted := 0
			if dot(w, x[idx])-threshold > 0 {
				predicted = 1
			}
			if predicted == y[idx] {
				correct++
			}
			evaluated++
		}
	}

	if evaluated == 0 {
		return 0
	}
	return float64(correct) / float64(evaluated)
}
