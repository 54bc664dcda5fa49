package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/username/tradejournal/src/logger"
	"github.com/username/tradejournal/src/models"
)

// Threshold above which a file's overlapping-duplicate rate triggers a
// diagnostic warning.
const duplicateRateWarnThreshold = 0.20

// Fingerprint computes the content-only identity of a record: two records
// with equal fingerprints carry identical trade content. Whether they are the
// same underlying transaction is decided by provenance, not by the hash.
func Fingerprint(rec models.ActivityRecord) string {
	parts := []string{
		rec.ActivityDate,
		rec.TransCode,
		rec.Description,
		rec.Instrument,
		formatFloat(rec.Quantity),
		formatFloat(rec.Price),
		formatFloat(rec.Amount),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// FileScopedFingerprint adds file provenance to the content hash. Unlike the
// base fingerprint it is unique per physical row and is used for tracking,
// never for dedup decisions.
func FileScopedFingerprint(rec models.ActivityRecord) string {
	key := Fingerprint(rec) + "|" + rec.SourceFile + "|" + strconv.Itoa(rec.RowIndex)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RangeOfRecords computes the min/max activity date span of a record set.
func RangeOfRecords(records []models.ActivityRecord) models.DateRange {
	var r models.DateRange
	for _, rec := range records {
		if rec.Date.IsZero() {
			continue
		}
		if r.Start.IsZero() || rec.Date.Before(r.Start) {
			r.Start = rec.Date
		}
		if r.End.IsZero() || rec.Date.After(r.End) {
			r.End = rec.Date
		}
	}
	return r
}

// FileRecords pairs one file's parsed records with its provenance. The caller
// orders these newest-upload-first before deduplication.
type FileRecords struct {
	Filename string
	Records  []models.ActivityRecord
	Range    models.DateRange
}

// DedupResult is the outcome of one deduplication pass.
type DedupResult struct {
	Records           []models.ActivityRecord
	FileStats         []models.FileRecordStats
	Details           []models.FingerprintOccurrence
	Warnings          []string
	TotalRawRecords   int
	UniqueRecords     int
	DuplicatesRemoved int
}

// Deduplicator classifies every repeated record occurrence within a single
// processing run. State is never persisted; each run starts empty so
// reprocessing the same files is idempotent.
type Deduplicator struct {
	seen  map[string]*models.FingerprintOccurrence
	order []string
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]*models.FingerprintOccurrence)}
}

// Deduplicate admits or rejects every record according to the provenance
// rules:
//
//   - first sighting of a fingerprint: admit (unique)
//   - repeat within the same file: admit (two identical day-trades are legal)
//   - repeat from a different file whose date range overlaps the first
//     sighting's file: reject, since overlapping export windows re-report the
//     same underlying transaction
//   - repeat from a different file with a disjoint range: admit (coincidental
//     identical trade in another period)
//
// The overlap rule is a heuristic: it can collapse genuinely distinct
// identical-looking trades that fall inside two overlapping export windows.
// It is kept for behavioral compatibility with the journal's import history.
func (d *Deduplicator) Deduplicate(files []FileRecords) DedupResult {
	result := DedupResult{}
	perFileRemoved := make(map[string]int)
	perFileTotal := make(map[string]int)
	perFileAdmitted := make(map[string]int)

	for _, file := range files {
		for _, rec := range file.Records {
			result.TotalRawRecords++
			perFileTotal[file.Filename]++

			fp := Fingerprint(rec)
			occ, exists := d.seen[fp]

			var class models.DuplicateClass
			admit := true
			switch {
			case !exists:
				class = models.ClassUnique
				occ = &models.FingerprintOccurrence{
					Fingerprint: fp,
					Description: rec.Description,
					Instrument:  rec.Instrument,
					FirstFile:   file.Filename,
					FirstRange:  file.Range,
				}
				d.seen[fp] = occ
				d.order = append(d.order, fp)
			case seenInFile(occ, file.Filename):
				class = models.ClassRepeatSameFile
			case occ.FirstRange.Overlaps(file.Range):
				class = models.ClassDuplicateOverlap
				admit = false
			default:
				class = models.ClassSeparateTrade
			}

			// Every occurrence is recorded for reporting, admitted or not.
			occ.Occurrences = append(occ.Occurrences, models.Occurrence{
				RecordID:   FileScopedFingerprint(rec),
				SourceFile: file.Filename,
				DateRange:  file.Range,
				Class:      class,
				Admitted:   admit,
			})

			if admit {
				result.Records = append(result.Records, rec)
				result.UniqueRecords++
				perFileAdmitted[file.Filename]++
			} else {
				result.DuplicatesRemoved++
				perFileRemoved[file.Filename]++
				logger.L.Debug("Rejected overlapping duplicate record",
					"fingerprint", fp[:12], "file", file.Filename, "firstFile", occ.FirstFile)
			}
		}
	}

	for _, file := range files {
		result.FileStats = append(result.FileStats, models.FileRecordStats{
			Filename:          file.Filename,
			TotalRecords:      perFileTotal[file.Filename],
			UniqueRecords:     perFileAdmitted[file.Filename],
			DuplicatesRemoved: perFileRemoved[file.Filename],
		})

		total := perFileTotal[file.Filename]
		removed := perFileRemoved[file.Filename]
		if total > 0 && float64(removed)/float64(total) > duplicateRateWarnThreshold {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"file %s: %d of %d records (%.0f%%) were overlapping duplicates; export windows likely overlap heavily",
				file.Filename, removed, total, 100*float64(removed)/float64(total)))
		}
	}

	// Only fingerprints sighted more than once are worth explaining.
	for _, fp := range d.order {
		if occ := d.seen[fp]; len(occ.Occurrences) > 1 {
			result.Details = append(result.Details, *occ)
		}
	}

	return result
}

func seenInFile(occ *models.FingerprintOccurrence, filename string) bool {
	for _, o := range occ.Occurrences {
		if o.SourceFile == filename {
			return true
		}
	}
	return false
}
