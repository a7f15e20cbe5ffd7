package storage

import (
	"encoding/json"
	"io"
)

type ExportTerm struct {
	Exponents   []int   `json:"exponents"`
	Coefficient float64 `json:"coefficient"`
}

type ExportData struct {
	Run    RunMetadata    `json:"run"`
	Times  []float64      `json:"times"`
	States [][]float64    `json:"states"`
	Final  [][]ExportTerm `json:"final"`
}

// Export bundles a stored run into one document.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return nil, err
	}
	final, err := s.LoadFinal(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{
		Run:    *meta,
		Times:  times,
		States: states,
		Final:  make([][]ExportTerm, len(final)),
	}
	for i, x := range final {
		data.Final[i] = []ExportTerm{}
		for _, t := range x.Terms() {
			data.Final[i] = append(data.Final[i], ExportTerm{Exponents: t.Exps, Coefficient: t.Coeff})
		}
	}
	return data, nil
}

func ExportJSON(w io.Writer, data *ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
