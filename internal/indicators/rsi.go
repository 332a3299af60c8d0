package indicators

// RSI computes the Relative Strength Index using a simple rolling mean of
// gains and losses over the trailing period price changes. Index i is defined
// once period changes are available, i.e. from index period onward.
func RSI(values []float64, period int) Series {
	out := undefined(len(values))
	if period <= 0 || len(values) < period+1 {
		return out
	}

	gains, losses := splitChanges(values)
	for i := period; i < len(values); i++ {
		var avgGain, avgLoss float64
		for j := i - period + 1; j <= i; j++ {
			avgGain += gains[j]
			avgLoss += losses[j]
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)
		out[i] = defined(rsiFromAverages(avgGain, avgLoss))
	}
	return out
}

// RSIWilder computes RSI with Wilder smoothing. The first average is the
// simple mean of the first period changes; later averages are
// (prev*(period-1) + current) / period.
func RSIWilder(values []float64, period int) Series {
	out := undefined(len(values))
	if period <= 0 || len(values) < period+1 {
		return out
	}

	gains, losses := splitChanges(values)
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = defined(rsiFromAverages(avgGain, avgLoss))

	p := float64(period)
	for i := period + 1; i < len(values); i++ {
		avgGain = (avgGain*(p-1) + gains[i]) / p
		avgLoss = (avgLoss*(p-1) + losses[i]) / p
		out[i] = defined(rsiFromAverages(avgGain, avgLoss))
	}
	return out
}

// splitChanges returns per-index gains and losses (both non-negative).
// Index 0 has no change and is zero in both.
func splitChanges(values []float64) (gains, losses []float64) {
	gains = make([]float64, len(values))
	losses = make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}
	return gains, losses
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	rsi := 100 - 100/(1+rs)
	// guard against float drift at the edges
	if rsi < 0 {
		return 0
	}
	if rsi > 100 {
		return 100
	}
	return rsi
}
