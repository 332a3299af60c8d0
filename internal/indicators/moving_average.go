package indicators

// SMA computes the simple moving average over a trailing window of period values.
// The first period-1 outputs are undefined.
func SMA(values []float64, period int) Series {
	out := undefined(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-period+1 : i+1] {
			sum += v
		}
		out[i] = defined(sum / float64(period))
	}
	return out
}

// EMA computes the exponential moving average with alpha = 2/(period+1).
// It is seeded with the SMA of the first period values, so the first
// period-1 outputs are undefined.
func EMA(values []float64, period int) Series {
	out := undefined(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	alpha := 2.0 / float64(period+1)
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	prev := seed / float64(period)
	out[period-1] = defined(prev)

	for i := period; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = defined(prev)
	}
	return out
}

// emaOfSeries applies EMA to the defined tail of s, keeping alignment with s.
func emaOfSeries(s Series, period int) Series {
	out := undefined(len(s))
	start, vals := contiguousTail(s)
	if start < 0 {
		return out
	}
	copy(out[start:], EMA(vals, period))
	return out
}

// smaOfSeries applies SMA to the defined tail of s, keeping alignment with s.
func smaOfSeries(s Series, period int) Series {
	out := undefined(len(s))
	start, vals := contiguousTail(s)
	if start < 0 {
		return out
	}
	copy(out[start:], SMA(vals, period))
	return out
}
