package report

import (
	"hash/fnv"
	"math/rand"
)

// GenerateChartPayload builds a synthetic payload shaped correctly for the
// chosen kind, so the rendering collaborator never receives an empty or
// malformed chart_data object. The generator is seeded by a stable hash of
// the section title, so repeated runs over the same blueprint produce the
// same numbers.
func GenerateChartPayload(kind Kind, title string) map[string]interface{} {
	rng := rand.New(rand.NewSource(titleSeed(title)))

	switch kind {
	case KindLine, KindArea, KindCandlestick:
		labels := yearLabels(5)
		if kind == KindCandlestick {
			return candlestickPayload(rng, labels)
		}
		return map[string]interface{}{
			"labels": labels,
			"values": risingSeries(rng, len(labels), 80, 40),
		}
	case KindBar, KindHorizontalBar, KindHistogram, KindPareto:
		labels := categoryLabels(rng, 5)
		values := randomSeries(rng, len(labels), 10, 90)
		p := map[string]interface{}{"labels": labels, "values": values}
		if kind == KindPareto {
			p["cumulative"] = cumulativePercent(values)
		}
		return p
	case KindPie, KindDonut, KindTreeMap:
		labels := categoryLabels(rng, 4)
		return map[string]interface{}{
			"labels": labels,
			"values": shares(rng, len(labels)),
		}
	case KindScatter:
		return map[string]interface{}{
			"x_values": randomSeries(rng, 8, 5, 95),
			"y_values": randomSeries(rng, 8, 5, 95),
		}
	case KindBubble:
		return map[string]interface{}{
			"x_values": randomSeries(rng, 6, 5, 95),
			"y_values": randomSeries(rng, 6, 5, 95),
			"sizes":    randomSeries(rng, 6, 50, 400),
		}
	case KindStackedBar, KindMultiLine:
		labels := []string{"Q1", "Q2", "Q3", "Q4"}
		return map[string]interface{}{
			"labels": labels,
			"series": []map[string]interface{}{
				{"name": "Series A", "values": risingSeries(rng, len(labels), 20, 30)},
				{"name": "Series B", "values": risingSeries(rng, len(labels), 10, 25)},
			},
		}
	case KindRadar:
		labels := []string{"Quality", "Price", "Reach", "Innovation", "Support"}
		return map[string]interface{}{
			"labels": labels,
			"values": randomSeries(rng, len(labels), 40, 95),
		}
	case KindHeatmap:
		labels := []string{"North", "South", "East", "West"}
		categories := yearLabels(3)
		matrix := make([][]float64, len(categories))
		for i := range matrix {
			matrix[i] = randomSeries(rng, len(labels), 10, 90)
		}
		return map[string]interface{}{
			"labels":     labels,
			"categories": categories,
			"values":     matrix,
		}
	case KindWaterfall:
		return map[string]interface{}{
			"labels": []string{"Opening", "Q1", "Q2", "Q3", "Q4", "Adjustments"},
			"values": []float64{
				float64(100 + rng.Intn(50)),
				float64(10 + rng.Intn(20)),
				float64(5 + rng.Intn(20)),
				-float64(5 + rng.Intn(10)),
				float64(10 + rng.Intn(20)),
				-float64(rng.Intn(10) + 1),
			},
		}
	case KindFunnel:
		labels := []string{"Awareness", "Interest", "Evaluation", "Purchase"}
		values := make([]float64, len(labels))
		v := float64(800 + rng.Intn(400))
		for i := range values {
			values[i] = v
			v *= 0.4 + rng.Float64()*0.3
		}
		return map[string]interface{}{"labels": labels, "values": values}
	case KindGauge:
		return map[string]interface{}{
			"value": float64(30 + rng.Intn(65)),
			"max":   100.0,
		}
	case KindBoxPlot:
		labels := categoryLabels(rng, 3)
		data := make([][]float64, len(labels))
		for i := range data {
			data[i] = randomSeries(rng, 12, 20, 80)
		}
		return map[string]interface{}{"labels": labels, "data": data}
	default:
		return map[string]interface{}{}
	}
}

func titleSeed(title string) int64 {
	h := fnv.New64a()
	h.Write([]byte(title))
	return int64(h.Sum64())
}

func yearLabels(n int) []string {
	years := []string{"2020", "2021", "2022", "2023", "2024", "2025"}
	if n > len(years) {
		n = len(years)
	}
	return years[:n]
}

func categoryLabels(rng *rand.Rand, n int) []string {
	pool := []string{
		"Segment A", "Segment B", "Segment C", "Segment D",
		"Segment E", "Segment F",
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}

func randomSeries(rng *rand.Rand, n int, lo, hi int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(lo + rng.Intn(hi-lo+1))
	}
	return out
}

func risingSeries(rng *rand.Rand, n int, base, spread int) []float64 {
	out := make([]float64, n)
	v := float64(base + rng.Intn(spread))
	for i := range out {
		out[i] = v
		v += float64(5 + rng.Intn(spread))
	}
	return out
}

// shares returns n positive values summing to 100.
func shares(rng *rand.Rand, n int) []float64 {
	weights := make([]float64, n)
	total := 0.0
	for i := range weights {
		weights[i] = 1 + rng.Float64()*4
		total += weights[i]
	}
	out := make([]float64, n)
	running := 0.0
	for i := 0; i < n-1; i++ {
		out[i] = float64(int(weights[i] / total * 100))
		running += out[i]
	}
	out[n-1] = 100 - running
	return out
}

func candlestickPayload(rng *rand.Rand, labels []string) map[string]interface{} {
	n := len(labels)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closeP := make([]float64, n)
	price := float64(80 + rng.Intn(40))
	for i := 0; i < n; i++ {
		open[i] = price
		move := float64(rng.Intn(21) - 10)
		closeP[i] = price + move
		high[i] = maxF(open[i], closeP[i]) + float64(rng.Intn(5)+1)
		low[i] = minF(open[i], closeP[i]) - float64(rng.Intn(5)+1)
		price = closeP[i]
	}
	return map[string]interface{}{
		"labels": labels,
		"open":   open,
		"high":   high,
		"low":    low,
		"close":  closeP,
	}
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func cumulativePercent(values []float64) []float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	out := make([]float64, len(values))
	running := 0.0
	for i, v := range values {
		running += v
		if total > 0 {
			out[i] = running / total * 100
		}
	}
	return out
}
