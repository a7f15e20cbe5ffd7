package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/daprop/internal/da"
	"github.com/san-kum/daprop/internal/experiment"
)

var ErrMalformed = errors.New("storage: malformed run file")

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	finalFile    = "final.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Timestamp   time.Time          `json:"timestamp"`
	Integrator  string             `json:"integrator"`
	Order       int                `json:"order"`
	Vars        int                `json:"vars"`
	Dim         int                `json:"dim"`
	Magnitude   string             `json:"magnitude"`
	Scale       float64            `json:"scale"`
	T0          float64            `json:"t0"`
	T1          float64            `json:"t1"`
	Dt          float64            `json:"dt"`
	AbsTol      float64            `json:"abs_tol"`
	RelTol      float64            `json:"rel_tol"`
	Steps       int                `json:"steps"`
	Rejected    int                `json:"rejected"`
	Evaluations int                `json:"evaluations"`
	ElapsedMs   int64              `json:"elapsed_ms"`
	Deviation   *float64           `json:"deviation,omitempty"`
	Params      map[string]float64 `json:"params,omitempty"`
}

// Save writes one run directory: metadata, the nominal trajectory and the
// final DA state coefficient by coefficient.
func (s *Store) Save(result *experiment.Result) (string, error) {
	cfg := result.Config
	now := time.Now()
	runID := fmt.Sprintf("%s_o%d_%d", cfg.Model, cfg.Order, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Model:       cfg.Model,
		Timestamp:   now,
		Integrator:  cfg.Integrator,
		Order:       cfg.Order,
		Vars:        cfg.Vars,
		Dim:         len(result.Final),
		Magnitude:   cfg.Magnitude,
		Scale:       cfg.Scale,
		T0:          cfg.T0,
		T1:          cfg.T1,
		Dt:          cfg.Dt,
		AbsTol:      cfg.AbsTol,
		RelTol:      cfg.RelTol,
		Steps:       result.Stats.Steps,
		Rejected:    result.Stats.Rejected,
		Evaluations: result.Stats.Evaluations,
		ElapsedMs:   result.Elapsed.Milliseconds(),
		Params:      cfg.Params,
	}
	if result.Reference != nil {
		dev := result.Deviation
		meta.Deviation = &dev
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), result.Times, result.Nominal); err != nil {
		return "", err
	}
	if err := writeFinal(filepath.Join(runDir, finalFile), result.Final); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeStates(path string, times []float64, states [][]float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	w := csv.NewWriter(f)
	if len(states) > 0 {
		header := []string{"time"}
		for i := range states[0] {
			header = append(header, fmt.Sprintf("x%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}
	}

	for i, state := range states {
		row := []string{strconv.FormatFloat(times[i], 'g', -1, 64)}
		for _, v := range state {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// writeFinal stores each non-zero monomial as component, exponents..., coefficient.
func writeFinal(path string, final []da.DA) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	w := csv.NewWriter(f)
	vars := 0
	if len(final) > 0 && final[0].Config() != nil {
		vars = final[0].Config().Vars()
	}

	header := []string{"component"}
	for v := 1; v <= vars; v++ {
		header = append(header, fmt.Sprintf("e%d", v))
	}
	header = append(header, "coefficient")
	if err := w.Write(header); err != nil {
		return err
	}

	for i, x := range final {
		for _, term := range x.Terms() {
			row := []string{strconv.Itoa(i)}
			for _, p := range term.Exps {
				row = append(row, strconv.Itoa(p))
			}
			row = append(row, strconv.FormatFloat(term.Coeff, 'g', -1, 64))
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

// closeFile surfaces the close error of a written file unless an earlier error is set.
func closeFile(f *os.File, err *error) {
	if cerr := f.Close(); *err == nil {
		*err = cerr
	}
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// LoadStates reads the nominal trajectory back as (states, times).
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)
	for line, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, statesFile, line+2, err)
			}
			row[j] = v
		}
		if len(row) == 0 {
			continue
		}
		times = append(times, row[0])
		states = append(states, row[1:])
	}

	return states, times, nil
}

// LoadFinal rebuilds the final DA state in the algebra recorded in the metadata.
func (s *Store) LoadFinal(runID string) ([]da.DA, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	mag, err := da.ParseMagnitude(meta.Magnitude)
	if err != nil {
		return nil, err
	}
	alg, err := da.NewConfig(meta.Order, meta.Vars, da.WithMagnitude(mag))
	if err != nil {
		return nil, err
	}

	records, err := readCSV(filepath.Join(s.baseDir, runID, finalFile))
	if err != nil {
		return nil, err
	}

	coeffs := make(map[int][]float64)
	dim := meta.Dim
	for line, record := range records[min(1, len(records)):] {
		if len(record) != meta.Vars+2 {
			return nil, fmt.Errorf("%w: %s line %d has %d fields", ErrMalformed, finalFile, line+2, len(record))
		}
		ints := make([]int, meta.Vars+1)
		for j := range ints {
			if ints[j], err = strconv.Atoi(record[j]); err != nil {
				return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, finalFile, line+2, err)
			}
		}
		c, err := strconv.ParseFloat(record[meta.Vars+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, finalFile, line+2, err)
		}

		comp := ints[0]
		idx, ok := alg.Index(ints[1:]...)
		if comp < 0 || comp >= dim || !ok {
			return nil, fmt.Errorf("%w: %s line %d: monomial outside the algebra", ErrMalformed, finalFile, line+2)
		}
		if coeffs[comp] == nil {
			coeffs[comp] = make([]float64, alg.Size())
		}
		coeffs[comp][idx] = c
	}

	out := make([]da.DA, dim)
	for i := range out {
		if coeffs[i] == nil {
			out[i] = alg.Const(0)
			continue
		}
		if out[i], err = alg.FromCoeffs(coeffs[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
