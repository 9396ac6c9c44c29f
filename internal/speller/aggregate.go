// Package speller turns per-flash classifier scores into a character
// prediction over the 6x6 matrix.
package speller

import (
	"math"

	"github.com/yelabb/phantomSpell-sub001/internal/models"
)

// AggregateFlashScores combines a full trial's flash events and their
// parallel classifier scores into one row/column prediction. Per-row and
// per-column score means are accumulated, the arg-max of each axis is the
// prediction, and confidence is the geometric mean of the two axis margins
// (best minus second-best), clamped to [0, 1]. A short trial still yields
// a prediction; it just carries low confidence.
func AggregateFlashScores(events []models.FlashEvent, scores []float64) models.Prediction {
	var rowSums, colSums [models.MatrixSize]float64
	var rowCounts, colCounts [models.MatrixSize]int

	n := len(events)
	if len(scores) < n {
		n = len(scores)
	}

	first, last := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		ev := events[i]
		if ev.Index < 0 || ev.Index >= models.MatrixSize {
			continue
		}
		if ev.Type == models.FlashRow {
			rowSums[ev.Index] += scores[i]
			rowCounts[ev.Index]++
		} else {
			colSums[ev.Index] += scores[i]
			colCounts[ev.Index]++
		}
		if ev.Timestamp < first {
			first = ev.Timestamp
		}
		if ev.Timestamp > last {
			last = ev.Timestamp
		}
	}

	var pred models.Prediction
	for i := 0; i < models.MatrixSize; i++ {
		if rowCounts[i] > 0 {
			pred.RowScores[i] = rowSums[i] / float64(rowCounts[i])
		}
		if colCounts[i] > 0 {
			pred.ColScores[i] = colSums[i] / float64(colCounts[i])
		}
	}

	var rowMargin, colMargin float64
	pred.PredictedRow, rowMargin = argmaxWithMargin(pred.RowScores)
	pred.PredictedCol, colMargin = argmaxWithMargin(pred.ColScores)
	pred.Confidence = math.Min(1, math.Sqrt(math.Max(0, rowMargin)*math.Max(0, colMargin)))

	if last >= first {
		pred.Latency = last - first
	}
	return pred
}

// argmaxWithMargin returns the index of the best score and the gap between
// the best and second-best.
func argmaxWithMargin(scores [models.MatrixSize]float64) (int, float64) {
	best := 0
	for i := 1; i < models.MatrixSize; i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}

	second := math.Inf(-1)
	for i := 0; i < models.MatrixSize; i++ {
		if i != best && scores[i] > second {
			second = scores[i]
		}
	}
	return best, scores[best] - second
}
