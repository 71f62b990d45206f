package devserver

import (
	"bufio"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/dream1290/dbxui-sub000/internal/errors"
)

const maxUploadMemory = 32 << 20

// flaggedTerms mark a flight data record as worth a finding
var flaggedTerms = []string{"warning", "alert", "exceedance"}

type analysisResult struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	Status    string         `json:"status"`
	RiskScore float64        `json:"risk_score"`
	Findings  []string       `json:"findings"`
	Metrics   map[string]any `json:"metrics"`
}

type batchAnalysisResult struct {
	Results []analysisResult `json:"results"`
	Total   int              `json:"total"`
	Failed  int              `json:"failed"`
}

// analyze scans a flight data file line by line. The risk score is the
// share of records carrying a flagged term.
func analyze(fh *multipart.FileHeader) analysisResult {
	res := analysisResult{
		ID:       uuid.New().String(),
		Filename: fh.Filename,
		Findings: []string{},
	}
	f, err := fh.Open()
	if err != nil {
		res.Status = "failed"
		res.Findings = append(res.Findings, err.Error())
		return res
	}
	defer f.Close()

	var lines, flagged int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		lines++
		text := strings.ToLower(scanner.Text())
		for _, term := range flaggedTerms {
			if strings.Contains(text, term) {
				flagged++
				res.Findings = append(res.Findings, fmt.Sprintf("line %d: %s", lines, term))
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		res.Status = "failed"
		res.Findings = append(res.Findings, err.Error())
		return res
	}

	res.Status = "completed"
	if lines > 0 {
		res.RiskScore = float64(flagged) / float64(lines)
	}
	res.Metrics = map[string]any{
		"size_bytes":    fh.Size,
		"line_count":    lines,
		"flagged_count": flagged,
	}
	return res
}

func (s *Server) AnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeValidation(w, "body", apperrors.FieldError{Field: "file", Message: "Field required"})
			return
		}
		defer r.MultipartForm.RemoveAll()

		files := r.MultipartForm.File["file"]
		if len(files) == 0 {
			writeValidation(w, "body", apperrors.FieldError{Field: "file", Message: "Field required"})
			return
		}
		writeJSON(w, http.StatusOK, analyze(files[0]))
	}
}

func (s *Server) BatchAnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeValidation(w, "body", apperrors.FieldError{Field: "files", Message: "Field required"})
			return
		}
		defer r.MultipartForm.RemoveAll()

		files := r.MultipartForm.File["files"]
		if len(files) == 0 {
			writeValidation(w, "body", apperrors.FieldError{Field: "files", Message: "Field required"})
			return
		}
		out := batchAnalysisResult{Results: make([]analysisResult, 0, len(files)), Total: len(files)}
		for _, fh := range files {
			res := analyze(fh)
			if res.Status != "completed" {
				out.Failed++
			}
			out.Results = append(out.Results, res)
		}
		writeJSON(w, http.StatusOK, out)
	}
}
