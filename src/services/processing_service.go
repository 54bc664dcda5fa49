package services

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/tradejournal/src/database"
	"github.com/username/tradejournal/src/logger"
	"github.com/username/tradejournal/src/models"
	"github.com/username/tradejournal/src/parsers"
	"github.com/username/tradejournal/src/processors"
	"github.com/username/tradejournal/src/storage"
)

const (
	ckProcessingResult = "res_processing_result"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

var (
	ErrInvalidUpload = errors.New("invalid upload")
	ErrDuplicateFile = errors.New("duplicate file content")
	ErrFileNotFound  = storage.ErrFileNotFound
)

// ResultMetadata describes the file set behind a processing result.
type ResultMetadata struct {
	FileCount    int                   `json:"fileCount"`
	Files        []models.FileMetadata `json:"files"`
	TotalRecords int                   `json:"totalRecords"`
}

// ProcessingResult is the full API payload for one processing run.
type ProcessingResult struct {
	Trades   []models.CompletedTrade `json:"trades"`
	Metadata ResultMetadata          `json:"metadata"`
	Stats    models.ProcessingStats  `json:"stats"`
}

// ProcessingService orchestrates the pipeline: file store → parser →
// deduplicator → FIFO matchers → stats. Each run reads every stored file and
// recomputes everything; only the file metadata document and the trade
// snapshot survive between runs.
type ProcessingService struct {
	store       *storage.FileStore
	parser      *parsers.ActivityParser
	reportCache *cache.Cache
}

func NewProcessingService(store *storage.FileStore, parser *parsers.ActivityParser, reportCache *cache.Cache) *ProcessingService {
	return &ProcessingService{
		store:       store,
		parser:      parser,
		reportCache: reportCache,
	}
}

// ProcessAll runs the whole pipeline over every stored file. Per-file
// failures mark that file errored and keep going; only infrastructure
// failures (store unreadable, metadata unwritable) abort the run.
func (s *ProcessingService) ProcessAll() (*ProcessingResult, error) {
	if cached, found := s.reportCache.Get(ckProcessingResult); found {
		logger.L.Debug("Cache hit for processing result")
		return cached.(*ProcessingResult), nil
	}

	startTime := time.Now()
	meta, err := s.store.LoadMetadata()
	if err != nil {
		return nil, err
	}

	// Newest upload first; the deduplicator treats the first file that shows
	// a fingerprint as authoritative.
	ordered := storage.SortedByNewestUpload(meta)

	var fileRecords []processors.FileRecords
	var processingErrors []string
	for _, fm := range ordered {
		content, readErr := s.store.ReadFile(fm.Filename)
		if readErr != nil {
			markFileError(meta, fm.Filename, readErr)
			processingErrors = append(processingErrors, fmt.Sprintf("file %s: %v", fm.Filename, readErr))
			continue
		}

		records, parseErr := s.parser.Parse(bytes.NewReader(content), fm.Filename)
		if parseErr != nil {
			markFileError(meta, fm.Filename, parseErr)
			processingErrors = append(processingErrors, fmt.Sprintf("file %s: %v", fm.Filename, parseErr))
			continue
		}

		fileRange := processors.RangeOfRecords(records)
		entry := meta[fm.Filename]
		entry.RecordCount = len(records)
		entry.DateRange = fileRange
		meta[fm.Filename] = entry

		fileRecords = append(fileRecords, processors.FileRecords{
			Filename: fm.Filename,
			Records:  records,
			Range:    fileRange,
		})
	}

	dedup := processors.NewDeduplicator().Deduplicate(fileRecords)

	optResult := processors.NewOptionsMatcher().Match(dedup.Records)
	eqResult := processors.NewEquitiesMatcher().Match(dedup.Records)

	// Options first, then equities, each already in lot-close order.
	trades := make([]models.CompletedTrade, 0, len(optResult.Trades)+len(eqResult.Trades))
	trades = append(trades, optResult.Trades...)
	trades = append(trades, eqResult.Trades...)

	tradesByFile := make(map[string]int)
	for _, t := range trades {
		tradesByFile[t.SourceFile]++
	}
	now := time.Now().UTC()
	for _, fr := range fileRecords {
		entry := meta[fr.Filename]
		entry.Status = models.FileStatusProcessed
		entry.TradeCount = tradesByFile[fr.Filename]
		entry.LastProcessedAt = now
		entry.ErrorMessage = ""
		meta[fr.Filename] = entry
	}

	if err := s.store.SaveMetadata(meta); err != nil {
		return nil, err
	}

	stats := processors.BuildStats(dedup, optResult, eqResult, trades, processingErrors)

	if err := database.SaveTradeSnapshot(trades); err != nil {
		logger.L.Warn("Failed to persist trade snapshot", "error", err)
		stats.Warnings = append(stats.Warnings, fmt.Sprintf("trade snapshot not persisted: %v", err))
	}

	result := &ProcessingResult{
		Trades: trades,
		Metadata: ResultMetadata{
			FileCount:    len(meta),
			Files:        storage.SortedByNewestUpload(meta),
			TotalRecords: stats.TotalRawRecords,
		},
		Stats: stats,
	}

	s.reportCache.Set(ckProcessingResult, result, DefaultCacheExpiration)
	logger.L.Info("Processing run complete",
		"files", len(meta), "rawRecords", stats.TotalRawRecords,
		"trades", len(trades), "duration", time.Since(startTime))
	return result, nil
}

// Verify runs the pipeline and the structural sanity checks over its output.
func (s *ProcessingService) Verify() (*ProcessingResult, models.ValidationReport, error) {
	result, err := s.ProcessAll()
	if err != nil {
		return nil, models.ValidationReport{}, err
	}
	report := processors.Validate(result.Trades, result.Metadata.Files, result.Stats)
	return result, report, nil
}

// SaveUpload validates and stores one uploaded export, returning its
// metadata. Content is parsed up front so files without usable date data are
// rejected before anything is persisted.
func (s *ProcessingService) SaveUpload(originalName string, content []byte) (models.FileMetadata, error) {
	meta, err := s.store.LoadMetadata()
	if err != nil {
		return models.FileMetadata{}, err
	}

	checksum := storage.Checksum(content)
	if existing, found := storage.FindByChecksum(meta, checksum); found {
		return models.FileMetadata{}, fmt.Errorf("%w: identical to %s", ErrDuplicateFile, existing.Filename)
	}

	storedName := filepath.Base(originalName)
	if err := storage.ValidateFilename(storedName); err != nil {
		return models.FileMetadata{}, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}

	records, parseErr := s.parser.Parse(bytes.NewReader(content), storedName)
	if parseErr != nil {
		return models.FileMetadata{}, fmt.Errorf("%w: %v", ErrInvalidUpload, parseErr)
	}

	// Same name, different content: keep both under distinct stored names.
	if _, taken := meta[storedName]; taken {
		storedName = fmt.Sprintf("%s_%s", uuid.New().String()[:8], storedName)
	}

	if err := s.store.SaveFile(storedName, content); err != nil {
		return models.FileMetadata{}, err
	}

	fm := models.FileMetadata{
		Filename:     storedName,
		OriginalName: originalName,
		UploadedAt:   time.Now().UTC(),
		Checksum:     checksum,
		DateRange:    processors.RangeOfRecords(records),
		Status:       models.FileStatusPending,
		RecordCount:  len(records),
	}
	meta[storedName] = fm

	if err := s.store.SaveMetadata(meta); err != nil {
		return models.FileMetadata{}, err
	}

	s.InvalidateCache()
	logger.L.Info("Upload stored", "filename", storedName, "records", len(records), "checksum", checksum[:12])
	return fm, nil
}

// ListFiles returns the stored file metadata, newest upload first.
func (s *ProcessingService) ListFiles() ([]models.FileMetadata, error) {
	meta, err := s.store.LoadMetadata()
	if err != nil {
		return nil, err
	}
	return storage.SortedByNewestUpload(meta), nil
}

// DeleteFile removes one stored file and its metadata entry.
func (s *ProcessingService) DeleteFile(filename string) error {
	meta, err := s.store.LoadMetadata()
	if err != nil {
		return err
	}
	if _, found := meta[filename]; !found {
		return ErrFileNotFound
	}

	if err := s.store.DeleteFile(filename); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
		return err
	}
	delete(meta, filename)
	if err := s.store.SaveMetadata(meta); err != nil {
		return err
	}

	s.InvalidateCache()
	logger.L.Info("File deleted", "filename", filename)
	return nil
}

// StoredTrades reads the last persisted trade snapshot from the journal
// table.
func (s *ProcessingService) StoredTrades() ([]models.CompletedTrade, error) {
	return database.LoadTradeSnapshot()
}

// InvalidateCache drops the cached processing result, forcing a full rebuild
// on the next request.
func (s *ProcessingService) InvalidateCache() {
	s.reportCache.Delete(ckProcessingResult)
}

func markFileError(meta map[string]models.FileMetadata, filename string, err error) {
	entry := meta[filename]
	entry.Status = models.FileStatusError
	entry.ErrorMessage = err.Error()
	meta[filename] = entry
	logger.L.Warn("File excluded from processing run", "filename", filename, "error", err)
}
