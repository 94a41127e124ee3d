package weather

// Summarize combines one day's readings into a DailySummary.
// Max and min are taken over all readings; the condition is picked by majority (first seen wins a tie).
// It returns false when there are no readings.
func Summarize(date string, readings []Reading) (DailySummary, bool) {
	if len(readings) == 0 {
		return DailySummary{Date: date, Condition: ConditionUnknown}, false
	}

	var sumTemp float64
	maxTemp := readings[0].Temperature
	minTemp := readings[0].Temperature

	conditionCounts := make(map[Condition]int)
	var order []Condition

	for _, r := range readings {
		sumTemp += r.Temperature
		if r.Temperature > maxTemp {
			maxTemp = r.Temperature
		}
		if r.Temperature < minTemp {
			minTemp = r.Temperature
		}

		cond := r.Condition
		if cond == "" {
			cond = ConditionUnknown
		}
		if _, seen := conditionCounts[cond]; !seen {
			order = append(order, cond)
		}
		conditionCounts[cond]++
	}

	// Pick majority condition.
	bestCond := ConditionUnknown
	bestCount := 0
	for _, cond := range order {
		if count := conditionCounts[cond]; count > bestCount {
			bestCount = count
			bestCond = cond
		}
	}

	return DailySummary{
		Date:      date,
		ActualMax: Round1(maxTemp),
		ActualMin: Round1(minTemp),
		Average:   Round1(sumTemp / float64(len(readings))),
		Count:     len(readings),
		Condition: bestCond,
	}, true
}

// Compare returns actual minus forecast for both bounds, sign preserved.
func Compare(morning ForecastSnapshot, actual DailySummary) Comparison {
	return Comparison{
		ForecastedMax: morning.ForecastedMax,
		ForecastedMin: morning.ForecastedMin,
		ActualMax:     actual.ActualMax,
		ActualMin:     actual.ActualMin,
		MaxDelta:      Round1(actual.ActualMax - morning.ForecastedMax),
		MinDelta:      Round1(actual.ActualMin - morning.ForecastedMin),
	}
}
