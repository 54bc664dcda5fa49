package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/tradejournal/src/config"
	"github.com/username/tradejournal/src/logger"
	"github.com/username/tradejournal/src/models"
	"github.com/username/tradejournal/src/security/validation"
	"github.com/username/tradejournal/src/services"
	"github.com/username/tradejournal/src/utils"
)

type UploadHandler struct {
	service *services.ProcessingService
}

func NewUploadHandler(service *services.ProcessingService) *UploadHandler {
	return &UploadHandler{service: service}
}

// HandleUpload accepts one CSV export as multipart form data under the
// "file" field. All validation happens before anything is persisted.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := config.Cfg.MaxUploadSizeBytes
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", maxBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", maxBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > maxBytes {
		logger.L.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", maxBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", maxBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateUploadFilename(fileHeader.Filename); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateClientContentType(fileHeader.Header.Get("Content-Type")); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		logger.L.Warn("File content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		logger.L.Error("Failed to read uploaded file", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, "Failed to read uploaded file.", http.StatusInternalServerError)
		return
	}

	fm, err := h.service.SaveUpload(fileHeader.Filename, content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateFile):
			utils.SendJSONError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, services.ErrInvalidUpload):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.L.Error("Internal error storing upload", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while storing the file.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "File uploaded successfully",
		"file":    fm,
	}); err != nil {
		logger.L.Error("Error encoding upload response", "error", err)
	}
}

// HandleListFiles lists the stored export files with their metadata.
func (h *UploadHandler) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.ListFiles()
	if err != nil {
		logger.L.Error("Error listing stored files", "error", err)
		utils.SendJSONError(w, "An internal error occurred while listing files.", http.StatusInternalServerError)
		return
	}
	if files == nil {
		files = []models.FileMetadata{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"files":     files,
		"fileCount": len(files),
	}); err != nil {
		logger.L.Error("Error encoding file list response", "error", err)
	}
}

// HandleDeleteFile removes one stored file and its metadata.
func (h *UploadHandler) HandleDeleteFile(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		utils.SendJSONError(w, "Query parameter 'filename' is required.", http.StatusBadRequest)
		return
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		utils.SendJSONError(w, "Invalid filename.", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteFile(filename); err != nil {
		if errors.Is(err, services.ErrFileNotFound) {
			utils.SendJSONError(w, "File not found.", http.StatusNotFound)
			return
		}
		logger.L.Error("Error deleting file", "filename", filename, "error", err)
		utils.SendJSONError(w, "An internal error occurred while deleting the file.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "File deleted successfully"})
}
