// Package api exposes the calculator and the ledger to an external
// presentation layer over JSON HTTP. It owns no widgets and no presentation
// decisions: it maps requests to core operations and core errors to statuses.
//
// The core is single-threaded by contract, so the server serializes all
// ledger access with one mutex at this boundary; the ledger itself stays
// lock-free.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/ansel1/merry"
	"github.com/fpawel/vctool/internal/calc"
	"github.com/fpawel/vctool/internal/ledger"
	"github.com/fpawel/vctool/internal/xlsxout"
	"github.com/powerman/structlog"
)

var log = structlog.New()

type Server struct {
	mu         sync.Mutex
	lgr        *ledger.Ledger
	exportFile string
}

// New wraps the ledger. exportFile is the destination used when an export
// request names no file.
func New(lgr *ledger.Ledger, exportFile string) *Server {
	return &Server{lgr: lgr, exportFile: exportFile}
}

// Run serves the API on addr until the listener fails.
func (s *Server) Run(addr string) error {
	log.Info("serve api", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /compute", s.compute)
	mux.HandleFunc("GET /entries", s.listEntries)
	mux.HandleFunc("POST /entries", s.addEntry)
	mux.HandleFunc("PATCH /entries/{index}", s.editEntry)
	mux.HandleFunc("DELETE /entries/{index}", s.deleteEntry)
	mux.HandleFunc("POST /export", s.export)
	mux.HandleFunc("GET /health", s.health)
	return mux
}

// ComputeRequest carries field values as the presentation layer collected
// them. Blank numeric fields preview as zero.
type ComputeRequest struct {
	Nominal   string `json:"nominal"`
	Upper     string `json:"upper"`
	Lower     string `json:"lower"`
	Tolerance string `json:"tolerance"`
	Feature   string `json:"feature"`
}

func (r ComputeRequest) rawInput() (calc.RawInput, error) {
	feature, err := calc.ParseFeatureType(r.Feature)
	if err != nil {
		return calc.RawInput{}, err
	}
	return calc.RawInput{
		Nominal:   r.Nominal,
		Upper:     r.Upper,
		Lower:     r.Lower,
		Tolerance: r.Tolerance,
		Feature:   feature,
	}, nil
}

type ComputeResponse struct {
	MMC   float64 `json:"mmc"`
	VC75  float64 `json:"vc75"`
	VC80  float64 `json:"vc80"`
	VC90  float64 `json:"vc90"`
	VC100 float64 `json:"vc100"`
}

func (s *Server) compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	raw, err := req.rawInput()
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	in, err := calc.ParseInput(raw)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	res, err := calc.Compute(in)
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, ComputeResponse{
		MMC:   res.MMC,
		VC75:  res.VC75,
		VC80:  res.VC80,
		VC90:  res.VC90,
		VC100: res.VC100,
	})
}

// AddEntryRequest is a ComputeRequest plus the datum letter.
type AddEntryRequest struct {
	ComputeRequest
	Datum string `json:"datum"`
}

func (s *Server) addEntry(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	raw, err := req.rawInput()
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	s.mu.Lock()
	index, err := s.lgr.AddRaw(raw, req.Datum)
	s.mu.Unlock()
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"index": index})
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entries, err := s.lgr.List()
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type EditEntryRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) editEntry(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req EditEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	field, err := ledger.ParseFieldName(req.Field)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.lgr.EditField(index, field, req.Value)
	s.mu.Unlock()
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.lgr.Delete(index)
	s.mu.Unlock()
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ExportRequest struct {
	Filename string `json:"filename"`
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Filename == "" {
		req.Filename = s.exportFile
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, merry.New("filename is required"))
		return
	}
	s.mu.Lock()
	t, err := s.lgr.Export()
	s.mu.Unlock()
	if err != nil {
		writeError(w, errStatus(err), err)
		return
	}
	if err := xlsxout.Write(req.Filename, t); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"filename": req.Filename,
		"rows":     len(t.Rows()),
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errStatus maps the core error taxonomy to HTTP statuses. Every core error
// is recoverable; nothing here may kill the process.
func errStatus(err error) int {
	switch {
	case merry.Is(err, ledger.ErrIndexOutOfRange):
		return http.StatusNotFound
	case merry.Is(err, ledger.ErrEmptyStore):
		return http.StatusConflict
	case merry.Is(err, calc.ErrInvalidInput),
		merry.Is(err, ledger.ErrIncompleteEntry),
		merry.Is(err, ledger.ErrInvalidNumericValue),
		merry.Is(err, ledger.ErrInvalidDatum):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.PrintErr(err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.PrintErr(err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
