package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/tamesu/internal/embedding"
	"github.com/hyperjump/tamesu/internal/models"
	"github.com/hyperjump/tamesu/internal/storage"
	"github.com/hyperjump/tamesu/internal/vector"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files provided")
		return
	}
	if err := os.MkdirAll(s.config.Ingest.UploadDir, 0o755); err != nil {
		s.logger.Error("failed to create upload dir", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	saved := make([]string, 0, len(files))
	for _, fh := range files {
		path, err := s.saveUpload(fh)
		if err != nil {
			s.logger.Error("failed to save upload", zap.String("name", fh.Filename), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed saving %s: %v", fh.Filename, err))
			return
		}
		saved = append(saved, path)
	}
	s.logger.Debug("documents uploaded", zap.Int("count", len(saved)))
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"saved": saved})
}

// saveUpload writes the part to a temp file and renames it into place, so
// the upload watcher never sees a partially written document.
func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	name := filepath.Base(fh.Filename)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", fh.Filename)
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dir := s.config.Ingest.UploadDir
	tmp := filepath.Join(dir, "."+uuid.NewString()+".tmp")
	dst, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}

	final := filepath.Join(dir, name)
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return final, nil
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 100)
	docs, err := s.storage.ListDocuments(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.indexer.DeleteDocument(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleBuildKB(w http.ResponseWriter, r *http.Request) {
	dir := s.config.Ingest.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("failed to create upload dir", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	n, err := s.indexer.IndexDirectory(r.Context(), dir, s.config.Ingest.Extensions)
	if err != nil {
		s.logger.Error("knowledge base build failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunks, err := s.storage.CountChunks(r.Context())
	if err != nil {
		s.logger.Error("count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"status":          "ok",
		"indexed_files":   n,
		"ingested_chunks": chunks,
	}
	if n == 0 {
		resp["note"] = "no files found in uploads/"
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type kbQueryRequest struct {
	Query    string `json:"query"`
	NResults int    `json:"n_results"`
}

func (s *Server) handleKBQuery(w http.ResponseWriter, r *http.Request) {
	var req kbQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	s.logger.Debug("kb query request", zap.String("query", req.Query), zap.Int("n_results", req.NResults))
	hits, err := s.kb.Query(r.Context(), req.Query, req.NResults)
	if err != nil && errors.Is(err, embedding.ErrEmbeddingUnavailable) {
		s.logger.Warn("similarity retrieval unavailable, using lexical retrieval", zap.Error(err))
		hits, err = s.kb.LexicalQuery(r.Context(), req.Query, req.NResults)
	}
	if err != nil {
		s.logger.Error("kb query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if hits == nil {
		hits = []models.Hit{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"hits": hits})
}

type testCasesRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleGenerateTestCases(w http.ResponseWriter, r *http.Request) {
	var req testCasesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	s.logger.Debug("generate test cases request", zap.String("query", req.Query))
	result, err := s.agent.GenerateTestCases(r.Context(), req.Query)
	if err != nil {
		s.logger.Error("test case generation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

type seleniumRequest struct {
	TestCase *models.TestCase `json:"test_case"`
	HTML     string           `json:"html"`
}

func (s *Server) handleGenerateSelenium(w http.ResponseWriter, r *http.Request) {
	var req seleniumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TestCase == nil {
		s.respondError(w, http.StatusBadRequest, "test_case is required")
		return
	}
	s.logger.Debug("generate selenium request", zap.String("test_id", req.TestCase.TestID))
	script, err := s.agent.GenerateSelenium(r.Context(), *req.TestCase, req.HTML)
	if err != nil {
		s.logger.Error("selenium generation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"script": script})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	chunkCount, err := s.storage.CountChunks(ctx)
	if err != nil {
		s.logger.Error("status: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"documents":         docCount,
		"chunks":            chunkCount,
		"vector_index_size": s.vector.Count(),
	}

	configInfo := map[string]interface{}{
		"embedding_provider": string(s.embedderKind),
		"vector_index_type":  indexTypeName(s.vector),
	}
	if s.config != nil {
		configInfo["chunk_size"] = s.config.Retrieval.ChunkSize
		configInfo["chunk_overlap"] = s.config.Retrieval.ChunkOverlap
		configInfo["top_k"] = s.config.Retrieval.TopK
		configInfo["database_path"] = s.config.Storage.DatabasePath
		configInfo["bleve_index_path"] = s.config.Storage.BleveIndexPath
		configInfo["upload_dir"] = s.config.Ingest.UploadDir

		diskBytes, err := storage.DiskUsageBytes(
			s.config.Storage.DatabasePath,
			s.config.Storage.BleveIndexPath,
			s.config.Storage.SnapshotPath,
		)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func indexTypeName(v vector.VectorIndex) string {
	switch v.(type) {
	case *vector.LocalIndex:
		return "local"
	case *vector.ChromaIndex:
		return "chroma"
	default:
		return "unknown"
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
