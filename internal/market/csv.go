package market

import (
	"os"
	"sort"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// CSVPort is a DataPort backed by a bar file on disk. On load it keeps the
// last 2*bufferSize bars: the older half is treated as already delivered
// (it primes the window via LatestWindow) and the newer half is replayed
// one bar per NextBar call, mimicking a feed that produces one bar per
// minute.
type CSVPort struct {
	mu        sync.Mutex
	delivered []types.Bar
	pending   []types.Bar
}

// NewCSVPort loads bars from the CSV file at path. bufferSize controls the
// primed/replayed split; a non-positive value falls back to
// DefaultWindowCapacity.
func NewCSVPort(path string, bufferSize int) (*CSVPort, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultWindowCapacity
	}

	csvFile, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open bar file %s", path)
	}
	defer csvFile.Close()

	var bars []types.Bar
	if err := gocsv.UnmarshalFile(csvFile, &bars); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataParseError, err, "failed to parse bar file %s", path)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})

	if max := 2 * bufferSize; len(bars) > max {
		bars = bars[len(bars)-max:]
	}

	split := len(bars) / 2
	if len(bars) > bufferSize {
		split = len(bars) - bufferSize
	}

	return &CSVPort{
		mu:        sync.Mutex{},
		delivered: bars[:split],
		pending:   bars[split:],
	}, nil
}

// NextBar implements DataPort.
func (p *CSVPort) NextBar() (types.Bar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.pending) == 0 {
		return types.Bar{}, errors.New(errors.ErrCodeNoNewData, "bar file exhausted")
	}

	bar := p.pending[0]
	p.pending = p.pending[1:]
	p.delivered = append(p.delivered, bar)

	return bar, nil
}

// LatestWindow implements DataPort.
func (p *CSVPort) LatestWindow(n int) ([]types.Bar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n <= 0 || len(p.delivered) == 0 {
		return nil, nil
	}

	if n > len(p.delivered) {
		n = len(p.delivered)
	}

	out := make([]types.Bar, n)
	copy(out, p.delivered[len(p.delivered)-n:])

	return out, nil
}

// Remaining returns the number of bars not yet delivered.
func (p *CSVPort) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.pending)
}
