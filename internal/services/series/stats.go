package series

import "math"

// Pure rolling statistics over price/volume columns. Every function here is
// deterministic and side-effect free: identical input yields identical
// output, which the analyzer tests rely on.

// ReturnOverPeriod is the fractional change of the last price versus the
// price n points back (a 3% gain returns 0.03). It needs n+1 points and at
// least 2.
func ReturnOverPeriod(prices []float64, n int) (float64, error) {
	if len(prices) < 2 {
		return 0, &InsufficientDataError{Op: "return", Need: 2, Got: len(prices)}
	}
	if n < 1 || len(prices) < n+1 {
		return 0, &InsufficientDataError{Op: "return", Need: n + 1, Got: len(prices)}
	}
	base := prices[len(prices)-1-n]
	if base == 0 {
		return 0, nil
	}
	return (prices[len(prices)-1] - base) / base, nil
}

// MovingAverage is the simple arithmetic mean of the last window prices.
func MovingAverage(prices []float64, window int) (float64, error) {
	if window < 1 || len(prices) < window {
		return 0, &InsufficientDataError{Op: "moving average", Need: window, Got: len(prices)}
	}
	sum := 0.0
	for _, p := range prices[len(prices)-window:] {
		sum += p
	}
	return sum / float64(window), nil
}

// Trend is (shortMA - longMA) / longMA: a dimensionless fraction whose sign
// gives the direction and whose magnitude gives the strength.
func Trend(prices []float64, shortWindow, longWindow int) (float64, error) {
	shortMA, err := MovingAverage(prices, shortWindow)
	if err != nil {
		return 0, err
	}
	longMA, err := MovingAverage(prices, longWindow)
	if err != nil {
		return 0, err
	}
	if longMA == 0 {
		return 0, nil
	}
	return (shortMA - longMA) / longMA, nil
}

// VolumeStrength is the ratio of the recent average volume to a longer
// baseline average. 1.0 is neutral, above 1.0 is elevated volume.
func VolumeStrength(volumes []float64, recentWindow, baselineWindow int) (float64, error) {
	recent, err := MovingAverage(volumes, recentWindow)
	if err != nil {
		return 0, &InsufficientDataError{Op: "volume strength", Need: recentWindow, Got: len(volumes)}
	}
	baseline, err := MovingAverage(volumes, baselineWindow)
	if err != nil {
		return 0, &InsufficientDataError{Op: "volume strength", Need: baselineWindow, Got: len(volumes)}
	}
	if baseline == 0 {
		return 1.0, nil
	}
	return recent / baseline, nil
}

// RSI is the classic Wilder relative strength index over closing prices.
// When the average loss is zero the index is pinned to the neutral 50 to
// avoid the division by zero.
func RSI(prices []float64, period int) (float64, error) {
	if period < 1 || len(prices) < period+1 {
		return 0, &InsufficientDataError{Op: "rsi", Need: period + 1, Got: len(prices)}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		avgGain = (avgGain*float64(period-1) + math.Max(0, delta)) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + math.Max(0, -delta)) / float64(period)
	}

	if avgLoss == 0 {
		return 50, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// Volatility is the population standard deviation of the point-to-point
// returns over the last window prices. No annualization: the value is only
// compared against other windows of the same series.
func Volatility(prices []float64, window int) (float64, error) {
	if window < 2 || len(prices) < window {
		return 0, &InsufficientDataError{Op: "volatility", Need: window, Got: len(prices)}
	}

	recent := prices[len(prices)-window:]
	returns := make([]float64, 0, window-1)
	for i := 1; i < len(recent); i++ {
		if recent[i-1] == 0 {
			continue
		}
		returns = append(returns, (recent[i]-recent[i-1])/recent[i-1])
	}
	if len(returns) == 0 {
		return 0, nil
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance), nil
}
