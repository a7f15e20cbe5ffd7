package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/daprop/internal/config"
	"github.com/san-kum/daprop/internal/da"
	"github.com/san-kum/daprop/internal/dynamo"
	"github.com/san-kum/daprop/internal/experiment"
)

func testResult() *experiment.Result {
	cfg := config.DefaultConfig()
	cfg.Order, cfg.Vars = 2, 2
	alg := da.MustConfig(2, 2)

	return &experiment.Result{
		Config:  cfg,
		Times:   []float64{0, 0.1},
		Nominal: [][]float64{{1, 2, 3}, {1.5, 2.5, 3.5}},
		Final: []da.DA{
			alg.Const(1.5).Add(alg.Var(1).Scale(0.25)),
			alg.Const(2.5).Add(alg.Var(1).Mul(alg.Var(2))),
			alg.Const(0),
		},
		Stats:     dynamo.Stats{Steps: 1, Rejected: 2, Evaluations: 13},
		Elapsed:   3 * time.Millisecond,
		Reference: []float64{1.5, 2.5, 3.5},
		Deviation: 1e-12,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result := testResult()
	runID, err := st.Save(result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "lorenz" || meta.Order != 2 || meta.Dim != 3 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.Steps != 1 || meta.Rejected != 2 || meta.Evaluations != 13 {
		t.Errorf("stats not recorded: %+v", meta)
	}
	if meta.Deviation == nil || *meta.Deviation != 1e-12 {
		t.Errorf("expected deviation 1e-12, got %v", meta.Deviation)
	}

	states, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(times) != 2 || times[1] != 0.1 {
		t.Errorf("unexpected times %v", times)
	}
	if len(states) != 2 || states[1][2] != 3.5 {
		t.Errorf("unexpected states %v", states)
	}

	final, err := st.LoadFinal(runID)
	if err != nil {
		t.Fatalf("load final failed: %v", err)
	}
	if len(final) != 3 {
		t.Fatalf("expected 3 components, got %d", len(final))
	}
	for i := range final {
		want, got := result.Final[i].Coeffs(), final[i].Coeffs()
		for j := range want {
			if want[j] != got[j] {
				t.Errorf("component %d coefficient %d: expected %v, got %v", i, j, want[j], got[j])
			}
		}
	}
	if final[1].Coeff(1, 1) != 1 {
		t.Errorf("expected mixed term 1, got %v", final[1].Coeff(1, 1))
	}
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "runs"))

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected empty list for missing dir, got %v (%v)", runs, err)
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(st.baseDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestLoadFinalMalformed(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	path := filepath.Join(st.baseDir, runID, finalFile)
	if err := os.WriteFile(path, []byte("component,e1,e2,coefficient\n0,3,0,1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadFinal(runID); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := st.Export(runID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, data); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var decoded ExportData
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Run.ID != runID || len(decoded.Times) != 2 {
		t.Errorf("unexpected export header: %+v", decoded.Run)
	}
	if len(decoded.Final) != 3 || len(decoded.Final[0]) != 2 || len(decoded.Final[2]) != 0 {
		t.Errorf("unexpected final terms: %+v", decoded.Final)
	}
}

func TestCloseFileKeepsFirstError(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "closed.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	var got error
	closeFile(f, &got)
	if got == nil {
		t.Error("expected the close error of an already closed file")
	}

	earlier := errors.New("flush failed")
	got = earlier
	closeFile(f, &got)
	if got != earlier {
		t.Errorf("expected the earlier error to win, got %v", got)
	}
}
