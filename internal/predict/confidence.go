package predict

// Metrics — сводка уверенности предсказания.
type Metrics struct {
	Residues   int     `json:"residues"`
	MeanPLDDT  float64 `json:"mean_plddt"`
	Bands      []int   `json:"bands"`
	BandCounts [4]int  `json:"band_counts"`
	MaxPAE     float64 `json:"max_pae,omitempty"`
	Violations int     `json:"violations"`
}

// Band возвращает полосу уверенности остатка:
// 0 — <50, 1 — 50–70, 2 — 70–90, 3 — >90.
func Band(plddt float64) int {
	switch {
	case plddt < 50:
		return 0
	case plddt < 70:
		return 1
	case plddt < 90:
		return 2
	default:
		return 3
	}
}

// ComputeMetrics считает среднюю pLDDT и полосы уверенности.
func ComputeMetrics(pred *Prediction) Metrics {
	m := Metrics{
		Residues: len(pred.PLDDT),
		Bands:    make([]int, len(pred.PLDDT)),
		MaxPAE:   pred.MaxPAE,
	}

	var sum float64
	for i, v := range pred.PLDDT {
		sum += v
		b := Band(v)
		m.Bands[i] = b
		m.BandCounts[b]++
	}
	if m.Residues > 0 {
		m.MeanPLDDT = sum / float64(m.Residues)
	}

	return m
}
