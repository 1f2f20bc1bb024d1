package mapdata

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/biz-in-support/bizmap/internal/dataset"
	"github.com/biz-in-support/bizmap/internal/model"
)

// Source serves records from an enriched file, re-reading it whenever its
// modification time or size changes. Safe for concurrent use.
type Source struct {
	path string
	opts dataset.Options

	mu      sync.Mutex
	modTime time.Time
	size    int64
	records []model.Record
}

// NewSource creates a Source for path. Nothing is read until Records is called.
func NewSource(path string, opts dataset.Options) *Source {
	return &Source{path: path, opts: opts}
}

// Path returns the file the source reads.
func (s *Source) Path() string { return s.path }

// Records returns the current records. The returned slice must not be modified.
func (s *Source) Records(ctx context.Context) ([]model.Record, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "mapdata: stat %s", s.path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.records, nil
	}

	table, err := dataset.Load(ctx, s.path, s.opts)
	if err != nil {
		return nil, err
	}
	s.records = table.Records
	s.modTime = info.ModTime()
	s.size = info.Size()

	zap.L().Info("mapdata: loaded records",
		zap.String("path", s.path),
		zap.Int("records", len(s.records)),
	)
	return s.records, nil
}
