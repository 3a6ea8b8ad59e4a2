// Package checkpoint persists progressive render state so an interrupted
// render can resume. Each run lives in its own directory holding a JSON
// manifest, a zstd-compressed accumulation snapshot that is replaced after
// every pass, and a snappy-compressed JSON-lines journal of completed passes.
package checkpoint

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// ErrSnapshotMismatch is returned when a stored snapshot does not fit the requested render
var ErrSnapshotMismatch = errors.New("checkpoint snapshot does not match render")

const (
	manifestFile = "manifest.json"
	snapshotFile = "snapshot.bin.zst"
	journalFile  = "journal.jsonl.sz"

	snapshotMagic   = "RTCK"
	snapshotVersion = 1
)

// Run identifies what a checkpointed render produces. Resuming requires an
// identical Run so the stored sums follow a single sampling schedule.
type Run struct {
	Scene   string `json:"scene"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Samples int    `json:"samples"`
	Passes  int    `json:"passes"`
}

// Manifest describes a checkpoint run
type Manifest struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Run
	CreatedAt    string `json:"created_at"`
	SnapshotPath string `json:"snapshot_path"`
	JournalPath  string `json:"journal_path"`
}

// JournalEntry records one completed pass
type JournalEntry struct {
	Pass           int     `json:"pass"`
	MinSamples     int     `json:"min_samples"`
	AverageSamples float64 `json:"average_samples"`
	TotalBounces   int     `json:"total_bounces"`
	ElapsedMs      int64   `json:"elapsed_ms"`
	RecordedAt     string  `json:"recorded_at"`
}

// Store reads and writes the checkpoint files of one run
type Store struct {
	mu       sync.Mutex
	dir      string
	manifest Manifest
	now      func() time.Time
	logger   core.Logger
}

// Open opens the run directory root/runID, creating it and its manifest if
// needed. An empty runID starts a new run with a fresh UUID. Reopening an
// existing run with different settings fails with ErrSnapshotMismatch.
func Open(root, runID string, run Run, logger core.Logger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("checkpoint root must be provided")
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	dir := filepath.Join(root, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	s := &Store{dir: dir, now: time.Now, logger: logger}

	manifestPath := filepath.Join(dir, manifestFile)
	data, err := os.ReadFile(manifestPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &s.manifest); err != nil {
			return nil, fmt.Errorf("failed to parse checkpoint manifest: %w", err)
		}
		if s.manifest.Run != run {
			return nil, fmt.Errorf("%w: run %s is %+v, requested %+v", ErrSnapshotMismatch,
				runID, s.manifest.Run, run)
		}
		logger.Infof("Reopened checkpoint run %s", runID)
	case errors.Is(err, os.ErrNotExist):
		s.manifest = Manifest{
			Version:      snapshotVersion,
			RunID:        runID,
			Run:          run,
			CreatedAt:    s.now().UTC().Format(time.RFC3339Nano),
			SnapshotPath: snapshotFile,
			JournalPath:  journalFile,
		}
		data, err := json.MarshalIndent(s.manifest, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write checkpoint manifest: %w", err)
		}
		logger.Infof("Started checkpoint run %s in %s", runID, dir)
	default:
		return nil, fmt.Errorf("failed to read checkpoint manifest: %w", err)
	}

	return s, nil
}

// RunID returns the run identifier
func (s *Store) RunID() string { return s.manifest.RunID }

// Directory returns the run directory
func (s *Store) Directory() string { return s.dir }

// Manifest returns the run manifest
func (s *Store) Manifest() Manifest { return s.manifest }

// SaveSnapshot atomically replaces the stored accumulation state
func (s *Store) SaveSnapshot(state renderer.AccumulationState) error {
	if state.Width != s.manifest.Width || state.Height != s.manifest.Height {
		return fmt.Errorf("%w: state is %dx%d, run is %dx%d", ErrSnapshotMismatch,
			state.Width, state.Height, s.manifest.Width, s.manifest.Height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, snapshotFile+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder, err := zstd.NewWriter(tmp)
	if err != nil {
		tmp.Close()
		return err
	}
	buffered := bufio.NewWriter(encoder)
	if err := writeState(buffered, state); err != nil {
		encoder.Close()
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		encoder.Close()
		tmp.Close()
		return err
	}
	if err := encoder.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, snapshotFile)); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	s.logger.Debugf("Saved checkpoint snapshot for pass %d", state.Pass)
	return nil
}

// LoadSnapshot reads the stored accumulation state. It returns an error
// wrapping os.ErrNotExist when no pass has been saved yet.
func (s *Store) LoadSnapshot() (renderer.AccumulationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(filepath.Join(s.dir, snapshotFile))
	if err != nil {
		return renderer.AccumulationState{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return renderer.AccumulationState{}, err
	}
	defer decoder.Close()

	return readState(bufio.NewReader(decoder), s.manifest.Width, s.manifest.Height)
}

// AppendJournal adds a pass record to the journal
func (s *Store) AppendJournal(pass renderer.PassResult) error {
	entry := JournalEntry{
		Pass:           pass.PassNumber,
		MinSamples:     pass.Stats.MinSamples,
		AverageSamples: pass.Stats.AverageSamples,
		TotalBounces:   pass.Stats.TotalBounces,
		ElapsedMs:      pass.Elapsed.Milliseconds(),
		RecordedAt:     s.now().UTC().Format(time.RFC3339Nano),
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Each append is its own snappy stream; readers accept concatenated streams
	file, err := os.OpenFile(filepath.Join(s.dir, journalFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	stream := snappy.NewBufferedWriter(file)
	if _, err := stream.Write(append(line, '\n')); err != nil {
		stream.Close()
		file.Close()
		return err
	}
	if err := stream.Close(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadJournal returns every recorded pass in order
func (s *Store) ReadJournal() ([]JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(filepath.Join(s.dir, journalFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(snappy.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	var entries []JournalEntry
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry JournalEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse journal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Record saves the pass snapshot, when present, and journals the pass
func (s *Store) Record(pass renderer.PassResult) error {
	if pass.State != nil {
		if err := s.SaveSnapshot(*pass.State); err != nil {
			return err
		}
	}
	return s.AppendJournal(pass)
}

type snapshotHeader struct {
	Magic   [4]byte
	Version uint32
	Width   uint32
	Height  uint32
	Pass    uint32
	Seed    int64
}

func writeState(w io.Writer, state renderer.AccumulationState) error {
	header := snapshotHeader{
		Version: snapshotVersion,
		Width:   uint32(state.Width),
		Height:  uint32(state.Height),
		Pass:    uint32(state.Pass),
		Seed:    state.Seed,
	}
	copy(header.Magic[:], snapshotMagic)
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}

	record := make([]byte, 6*8)
	for _, ps := range state.Pixels {
		binary.LittleEndian.PutUint64(record[0:8], math.Float64bits(ps.ColorAccum.R))
		binary.LittleEndian.PutUint64(record[8:16], math.Float64bits(ps.ColorAccum.G))
		binary.LittleEndian.PutUint64(record[16:24], math.Float64bits(ps.ColorAccum.B))
		binary.LittleEndian.PutUint64(record[24:32], math.Float64bits(ps.LuminanceAccum))
		binary.LittleEndian.PutUint64(record[32:40], math.Float64bits(ps.LuminanceSqAccum))
		binary.LittleEndian.PutUint64(record[40:48], uint64(ps.SampleCount))
		if _, err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// readState decodes a snapshot. The header must describe a width x height
// image; the pixel buffer is only allocated once that has been checked.
func readState(r io.Reader, width, height int) (renderer.AccumulationState, error) {
	var header snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return renderer.AccumulationState{}, fmt.Errorf("failed to read snapshot header: %w", err)
	}
	if string(header.Magic[:]) != snapshotMagic || header.Version != snapshotVersion {
		return renderer.AccumulationState{}, fmt.Errorf("%w: unrecognised snapshot format", ErrSnapshotMismatch)
	}
	if int64(header.Width) != int64(width) || int64(header.Height) != int64(height) {
		return renderer.AccumulationState{}, fmt.Errorf("%w: snapshot is %dx%d, run is %dx%d", ErrSnapshotMismatch,
			header.Width, header.Height, width, height)
	}

	state := renderer.AccumulationState{
		Width:  int(header.Width),
		Height: int(header.Height),
		Pass:   int(header.Pass),
		Seed:   header.Seed,
		Pixels: make([]renderer.PixelStats, width*height),
	}

	record := make([]byte, 6*8)
	for i := range state.Pixels {
		if _, err := io.ReadFull(r, record); err != nil {
			return renderer.AccumulationState{}, fmt.Errorf("failed to read snapshot pixel %d: %w", i, err)
		}
		state.Pixels[i] = renderer.PixelStats{
			ColorAccum: core.NewColor(
				math.Float64frombits(binary.LittleEndian.Uint64(record[0:8])),
				math.Float64frombits(binary.LittleEndian.Uint64(record[8:16])),
				math.Float64frombits(binary.LittleEndian.Uint64(record[16:24])),
			),
			LuminanceAccum:   math.Float64frombits(binary.LittleEndian.Uint64(record[24:32])),
			LuminanceSqAccum: math.Float64frombits(binary.LittleEndian.Uint64(record[32:40])),
			SampleCount:      int(binary.LittleEndian.Uint64(record[40:48])),
		}
	}
	return state, nil
}
