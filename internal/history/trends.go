package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport turns an ordered run list into per-run deltas and
// moving averages over the given window.
func BuildTrendReport(runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs available")
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, current := range runs {
		point := TrendPoint{
			Timestamp:    current.Timestamp,
			RunID:        current.RunID,
			ErrorCount:   current.ErrorCount,
			WarningCount: current.WarningCount,
			FileCount:    current.FileCount,
		}

		if i > 0 {
			prev := runs[i-1]
			point.DeltaErrors = current.ErrorCount - prev.ErrorCount
			point.DeltaWarnings = current.WarningCount - prev.WarningCount
			point.DeltaFiles = current.FileCount - prev.FileCount
		}

		avgErrors, avgWarnings := movingAverages(runs, i, window)
		point.AvgErrors = round2(avgErrors)
		point.AvgWarnings = round2(avgWarnings)
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		TargetPath:    runs[len(runs)-1].TargetPath,
		Since:         runs[0].Timestamp,
		Until:         runs[len(runs)-1].Timestamp,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func movingAverages(runs []Run, index int, window time.Duration) (float64, float64) {
	if window <= 0 {
		return float64(runs[index].ErrorCount), float64(runs[index].WarningCount)
	}

	cutoff := runs[index].Timestamp.Add(-window)
	var errorsTotal int
	var warningsTotal int
	count := 0
	for i := index; i >= 0; i-- {
		if runs[i].Timestamp.Before(cutoff) {
			break
		}
		errorsTotal += runs[i].ErrorCount
		warningsTotal += runs[i].WarningCount
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(errorsTotal) / float64(count), float64(warningsTotal) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
