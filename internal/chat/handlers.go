package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zombor/receipt-chat/internal/benchmark"
	"github.com/zombor/receipt-chat/internal/receipt"
	"github.com/zombor/receipt-chat/internal/scanning"
)

// maxUploadSize allows high-resolution phone photos
const maxUploadSize = int64(50 << 20)

// maxAskSize bounds the JSON body of a question
const maxAskSize = int64(8 << 10)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

type sessionResponse struct {
	ID        string         `json:"id"`
	Receipt   receipt.Record `json:"receipt"`
	History   []Message      `json:"history"`
	CreatedAt time.Time      `json:"created_at"`
}

type uploadResponse struct {
	ID      string         `json:"id"`
	Receipt receipt.Record `json:"receipt"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// uploadContentType prefers the part's declared type and falls back to the
// filename extension
func uploadContentType(declared, filename string) string {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if ct == "" || ct == "application/octet-stream" {
		return scanning.ContentTypeFromFilename(filename)
	}
	return ct
}

// handleUpload scans an uploaded receipt and opens a session for it
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.logger.Error("Error parsing multipart form", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		s.logger.Error("Error getting file from form", zap.Error(err))
		msg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			msg = "No file was selected. Please choose a file to upload."
		}
		writeError(w, msg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error("Error reading file data", zap.String("filename", header.Filename), zap.Error(err))
		writeError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}
	if len(data) == 0 {
		writeError(w, "The uploaded file is empty.", http.StatusBadRequest)
		return
	}

	contentType := uploadContentType(header.Header.Get("Content-Type"), header.Filename)
	session, err := s.service.ProcessReceipt(header.Filename, data, contentType)
	if err != nil {
		s.logger.Error("Error processing receipt", zap.String("filename", header.Filename), zap.Error(err))
		if errors.Is(err, scanning.ErrUnsupportedImage) {
			writeError(w, ScanErrorMessage(err), http.StatusUnsupportedMediaType)
			return
		}
		if errors.Is(err, ErrScan) {
			writeError(w, ScanErrorMessage(err), http.StatusBadGateway)
			return
		}
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{ID: session.ID, Receipt: session.Receipt})
}

// sessionError maps service errors to responses
func (s *Server) sessionError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, ErrSessionNotFound) {
		writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	s.logger.Error("Session request failed", zap.String("session_id", id), zap.Error(err))
	writeError(w, "Internal server error", http.StatusInternalServerError)
}

// handleGetSession returns the extracted receipt and chat history
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := s.service.GetSession(id)
	if err != nil {
		s.sessionError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:        session.ID,
		Receipt:   session.Receipt,
		History:   session.History,
		CreatedAt: session.CreatedAt,
	})
}

// handleGetSessionFile returns the uploaded image of a session
func (s *Server) handleGetSessionFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, contentType, err := s.service.GetSessionImage(id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeError(w, "Session not found", http.StatusNotFound)
			return
		}
		writeError(w, "File not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteSession ends a session
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.service.DeleteSession(id); err != nil {
		s.sessionError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAsk answers one question about the session's receipt
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	r.Body = http.MaxBytesReader(w, r.Body, maxAskSize)
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "Request body is too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, "Question is required", http.StatusBadRequest)
		return
	}

	answer, err := s.service.Ask(id, req.Question)
	if err != nil {
		s.sessionError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Question: req.Question, Answer: answer})
}

// handleListMessages returns the chat history of a session
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	history, err := s.service.History(id)
	if err != nil {
		s.sessionError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) requireBenchmarks(w http.ResponseWriter) bool {
	if s.benchmarks == nil {
		writeError(w, "Benchmarks are not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// handleRunBenchmark runs the ground-truth benchmark synchronously
func (s *Server) handleRunBenchmark(w http.ResponseWriter, r *http.Request) {
	if !s.requireBenchmarks(w) {
		return
	}
	run, err := s.benchmarks.Run()
	if err != nil {
		s.logger.Error("Benchmark failed", zap.Error(err))
		writeError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

// handleListBenchmarks returns all stored runs
func (s *Server) handleListBenchmarks(w http.ResponseWriter, r *http.Request) {
	if !s.requireBenchmarks(w) {
		return
	}
	runs, err := s.benchmarks.ListRuns()
	if err != nil {
		s.logger.Error("Error listing benchmark runs", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleGetBenchmark returns one stored run
func (s *Server) handleGetBenchmark(w http.ResponseWriter, r *http.Request) {
	if !s.requireBenchmarks(w) {
		return
	}
	run, err := s.benchmarks.GetRun(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, benchmark.ErrRunNotFound) {
			writeError(w, "Benchmark run not found", http.StatusNotFound)
			return
		}
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
