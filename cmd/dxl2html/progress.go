package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/alnah/go-dxl2html/internal/fileutil"
)

// progressRecord is one line of the JSONL checkpoint file. A document
// appears once per attempt; the last record for a UNID wins.
type progressRecord struct {
	Time   time.Time `json:"ts"`
	UNID   string    `json:"unid"`
	Path   string    `json:"path"`
	Status string    `json:"status"` // "ok" or "error"
	Try    int       `json:"try"`
	Error  string    `json:"error,omitempty"`
}

// progressLog tracks which documents a previous run already converted,
// so an interrupted batch resumes where it stopped. A nil progressLog
// is a no-op.
type progressLog struct {
	path string

	mu   sync.Mutex
	last map[string]progressRecord
	file *os.File
	enc  *json.Encoder
}

// openProgressLog loads the checkpoint at path, creating it when
// missing. Unreadable lines are skipped so a truncated final line from
// a crashed run does not poison the file.
func openProgressLog(path string) (*progressLog, error) {
	p := &progressLog{path: path, last: map[string]progressRecord{}}

	if fileutil.FileExists(path) {
		f, err := os.Open(path) // #nosec G304 -- checkpoint path is user-provided
		if err != nil {
			return nil, fmt.Errorf("opening progress file: %w", err)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			var rec progressRecord
			if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
				continue
			}
			if rec.UNID != "" {
				p.last[rec.UNID] = rec
			}
		}
		_ = f.Close()
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading progress file: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, fileutil.FilePermissions) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("opening progress file for append: %w", err)
	}
	p.file = f
	p.enc = json.NewEncoder(f)
	return p, nil
}

// done reports whether a document already converted successfully.
func (p *progressLog) done(unid string) bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.last[unid]
	return ok && rec.Status == "ok"
}

// tries returns how many attempts a document has seen.
func (p *progressLog) tries(unid string) int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last[unid].Try
}

// record appends one attempt outcome and updates the in-memory view.
// Safe for concurrent workers.
func (p *progressLog) record(unid, path string, convErr error) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	rec := progressRecord{
		Time:   time.Now().UTC(),
		UNID:   unid,
		Path:   path,
		Status: "ok",
		Try:    p.last[unid].Try + 1,
	}
	if convErr != nil {
		rec.Status = "error"
		rec.Error = convErr.Error()
	}
	p.last[unid] = rec
	return p.enc.Encode(rec)
}

func (p *progressLog) close() error {
	if p == nil || p.file == nil {
		return nil
	}
	return p.file.Close()
}
