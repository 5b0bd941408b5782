package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"supermercado/domain"
)

// SaleHistory is the append-only JSON file behind domain.SaleLog. Existing
// records are carried through Append byte-for-byte: the file is never
// reordered or rewritten except to append, and id computation re-reads the
// file so out-of-band edits are respected.
type SaleHistory struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

var _ domain.SaleLog = (*SaleHistory)(nil)

// NewSaleHistory opens the history at path. A missing file starts an empty
// history; a malformed one is reset to empty with a warning.
func NewSaleHistory(fs afero.Fs, path string) (*SaleHistory, error) {
	s := &SaleHistory{fs: fs, path: path}
	raw, err := s.loadRaw()
	if err != nil {
		slog.Warn("malformed sales file, resetting history", "path", path, "error", err)
		raw = nil
	}
	if err := s.writeRaw(raw); err != nil {
		slog.Error("could not persist sales file", "path", path, "error", err)
	}
	slog.Info("sales loaded", "count", len(raw))
	return s, nil
}

// loadRaw reads the persisted records without decoding them.
func (s *SaleHistory) loadRaw() ([]json.RawMessage, error) {
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *SaleHistory) writeRaw(raw []json.RawMessage) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if raw == nil {
		raw = []json.RawMessage{}
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, b, 0o644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, s.path)
}

// Append serializes the sale and appends it to the persisted history.
func (s *SaleHistory) Append(ctx context.Context, sale domain.Sale) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.loadRaw()
	if err != nil {
		slog.Warn("malformed sales file, resetting history", "path", s.path, "error", err)
		raw = nil
	}
	b, err := json.Marshal(sale)
	if err != nil {
		return err
	}
	return s.writeRaw(append(raw, b))
}

// All decodes the persisted history. Records that no longer decode (after
// out-of-band edits) are skipped with a warning rather than failing the read.
func (s *SaleHistory) All(ctx context.Context) ([]domain.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.loadRaw()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Sale, 0, len(raw))
	for i, r := range raw {
		var sale domain.Sale
		if err := json.Unmarshal(r, &sale); err != nil {
			slog.Warn("skipping undecodable sale record", "index", i, "error", err)
			continue
		}
		out = append(out, sale)
	}
	return out, nil
}

// NextID scans the persisted history for the highest well-formed positive
// integer id and returns one more, 1 for an empty history. It deliberately
// re-reads the file on every call instead of caching.
func (s *SaleHistory) NextID(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.loadRaw()
	if err != nil {
		return 0, err
	}
	max := 0
	for _, r := range raw {
		var rec struct {
			ID any `json:"id"`
		}
		if err := json.Unmarshal(r, &rec); err != nil {
			continue
		}
		f, ok := rec.ID.(float64)
		if !ok || f != math.Trunc(f) || f <= 0 {
			continue
		}
		if id := int(f); id > max {
			max = id
		}
	}
	return max + 1, nil
}
