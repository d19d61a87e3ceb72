package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"folio/internal/application/service"
	"folio/internal/infrastructure/metrics"
)

type envelope struct {
	Data     any      `json:"data"`
	Metadata metadata `json:"metadata"`
}

type metadata struct {
	Timestamp string `json:"timestamp"`
}

type errorBody struct {
	Error string `json:"error"`
}

type nameRequest struct {
	Code   string `json:"code"`
	Market string `json:"market"`
}

type importResult struct {
	Imported  int  `json:"imported"`
	Overwrite bool `json:"overwrite"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/portfolio
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.SummaryDuration)
	sum, err := s.c.PortfolioService().Summary(r.Context())
	timer.ObserveDuration()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, http.StatusOK, sum)
}

// POST /api/portfolio/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.SummaryDuration)
	sum, err := s.c.PortfolioService().Refresh(r.Context())
	timer.ObserveDuration()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, http.StatusOK, sum)
}

// GET /api/transactions
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.c.TransactionService().List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, http.StatusOK, txs)
}

// POST /api/transactions
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req service.AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "請求格式不正確"})
		return
	}
	tx, err := s.c.TransactionService().Add(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	metrics.LedgerWrites.WithLabelValues("append").Inc()
	s.writeData(w, http.StatusCreated, tx)
}

// POST /api/transactions/import，multipart 栏位 import_file，overwrite=on|true 时覆盖
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "請選擇要匯入的檔案"})
		return
	}
	file, hdr, err := r.FormFile("import_file")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "請選擇要匯入的檔案"})
		return
	}
	defer file.Close()
	if !strings.HasSuffix(strings.ToLower(hdr.Filename), ".csv") {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "請選擇有效的 CSV 檔案"})
		return
	}

	overwrite := isTruthy(r.FormValue("overwrite"))
	n, err := s.c.TransactionService().Import(r.Context(), file, overwrite)
	if err != nil {
		s.writeError(w, err)
		return
	}
	op := "append"
	if overwrite {
		op = "replace"
	}
	metrics.LedgerWrites.WithLabelValues(op).Inc()
	s.writeData(w, http.StatusOK, importResult{Imported: n, Overwrite: overwrite})
}

// GET /api/transactions/export
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.ExportFileName(s.now())))
	if err := s.c.TransactionService().Export(r.Context(), w); err != nil {
		// 表头可能已写出，只能记录
		s.log.Error().Err(err).Msg("export transactions failed")
	}
}

// POST /api/stock-name，支持 JSON 或表单
func (s *Server) handleStockName(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "請求格式不正確"})
			return
		}
	} else {
		req.Code = r.FormValue("code")
		req.Market = r.FormValue("market")
	}

	res, err := s.c.NameService().Lookup(r.Context(), req.Code, req.Market)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeData(w, http.StatusOK, res)
}

func (s *Server) writeData(w http.ResponseWriter, status int, data any) {
	s.writeJSON(w, status, envelope{
		Data:     data,
		Metadata: metadata{Timestamp: s.now().Format(time.RFC3339)},
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNameNotFound) && errors.As(err, &ve):
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: ve.Msg})
	case errors.As(err, &ve):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Msg})
	default:
		s.log.Error().Err(err).Msg("request failed")
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "伺服器內部錯誤"})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
