package analytics

import "math"

// mean returns the arithmetic mean of values, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev returns the population standard deviation of values.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mu := mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - mu) * (v - mu)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// sharpe returns mean/stdDev, or 0 when there is no dispersion.
func sharpe(values []float64) float64 {
	sigma := stdDev(values)
	if sigma == 0 {
		return 0
	}
	return mean(values) / sigma
}

// maxDrawdown walks the cumulative sum of pnls in order and returns the
// largest fall from the running peak as a percentage of that peak.
// The peak starts at 0, so nothing is recorded until the cumulative PnL has
// been positive.
func maxDrawdown(pnls []float64) float64 {
	var running, peak, worst float64
	for _, pnl := range pnls {
		running += pnl
		if running > peak {
			peak = running
		}
		if peak == 0 {
			continue
		}
		drawdown := (peak - running) / math.Abs(peak) * 100
		if drawdown > worst {
			worst = drawdown
		}
	}
	return worst
}

// pearson returns the Pearson correlation coefficient of two equally sized
// series. ok is false when either series has no variance.
func pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0, false
	}
	mx, my := mean(xs), mean(ys)
	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// percent returns num/den*100, or 0 when den is 0.
func percent(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den * 100
}
