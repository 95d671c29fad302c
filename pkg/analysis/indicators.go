package analysis

// SMA returns the simple moving average of the last window values, or 0
// when there is not enough data.
func SMA(values []float64, window int) float64 {
	if window <= 0 || len(values) < window {
		return 0
	}

	var sum float64
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window)
}

// RSI returns the relative strength index over the given period using
// Wilder's smoothing. Returns 0 when there is not enough data, 100 when
// there were no losses in the period.
func RSI(values []float64, period int) float64 {
	if period <= 0 || len(values) <= period {
		return 0
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
