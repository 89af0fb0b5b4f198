package indicators

// SMA computes the simple moving average of values over the given period.
// Output[i] is NaN until i >= period-1.
func SMA(values []float64, period int) []float64 {
	out := nans(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// Bias computes the percentage deviation of each close from its moving
// average: (close - ma) / ma * 100. NaN wherever the average is undefined.
func Bias(closes, ma []float64) []float64 {
	out := nans(len(closes))
	for i := range closes {
		if i < len(ma) && Defined(ma[i]) && ma[i] != 0 {
			out[i] = (closes[i] - ma[i]) / ma[i] * 100
		}
	}
	return out
}
