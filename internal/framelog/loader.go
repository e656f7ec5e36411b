package framelog

import (
	"bufio"
	"io"
	"strings"

	"github.com/banshee-data/radarsim/internal/fsutil"
	"github.com/banshee-data/radarsim/internal/monitoring"
	"github.com/banshee-data/radarsim/internal/radar"
)

// maxLineBytes caps a single record line.
const maxLineBytes = 1 << 20

// Store is the ordered sequence of logged points read back from a frame log.
// Points, Frames and Kinds are parallel slices in file order.
type Store struct {
	Points      []radar.Point
	Frames      []int
	Kinds       []radar.Kind
	TargetCount int
	Skipped     int // malformed lines
}

// Len returns the number of loaded points.
func (s *Store) Len() int { return len(s.Points) }

// FrameCount returns the number of distinct frame indices.
func (s *Store) FrameCount() int {
	seen := make(map[int]struct{})
	for _, f := range s.Frames {
		seen[f] = struct{}{}
	}
	return len(seen)
}

// Add appends one record.
func (s *Store) Add(r Record) {
	s.Points = append(s.Points, r.Point)
	s.Frames = append(s.Frames, r.Frame)
	s.Kinds = append(s.Kinds, r.Kind)
	if r.Kind == radar.KindTarget {
		s.TargetCount++
	}
}

// Load reads records from r. Malformed lines, including lines longer than
// maxLineBytes, are skipped with a diagnostic; a read error stops loading and
// keeps what was read so far.
func Load(r io.Reader) *Store {
	store := &Store{}
	br := bufio.NewReaderSize(r, 64*1024)

	lineNo := 0
	for {
		raw, size, err := readLine(br)
		if size > 0 {
			lineNo++
			store.addLine(lineNo, raw, size)
		}
		if err != nil {
			if err != io.EOF {
				monitoring.Diagf(monitoring.DiagMalformedRecord, "framelog: stopped reading after line %d: %v", lineNo, err)
			}
			return store
		}
	}
}

func (s *Store) addLine(lineNo int, raw []byte, size int) {
	if size > maxLineBytes {
		s.Skipped++
		monitoring.Diagf(monitoring.DiagMalformedRecord, "framelog: line %d skipped: %d bytes exceeds limit of %d", lineNo, size, maxLineBytes)
		return
	}
	line := strings.TrimSpace(string(raw))
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	rec, err := ParseRecord(line)
	if err != nil {
		s.Skipped++
		monitoring.Diagf(monitoring.DiagMalformedRecord, "framelog: line %d skipped: %v: %q", lineNo, err, truncate(line, 80))
		return
	}
	s.Add(rec)
}

// readLine returns the next line including its newline and the line's full
// size. Bytes past maxLineBytes are consumed but not kept.
func readLine(br *bufio.Reader) ([]byte, int, error) {
	var line []byte
	size := 0
	for {
		frag, err := br.ReadSlice('\n')
		size += len(frag)
		if size <= maxLineBytes {
			line = append(line, frag...)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return line, size, err
	}
}

// LoadFile loads the log at path. A missing or unreadable file yields an
// empty store and a diagnostic.
func LoadFile(fsys fsutil.FileSystem, path string) *Store {
	f, err := fsys.Open(path)
	if err != nil {
		monitoring.Diagf(monitoring.DiagMissingSource, "framelog: cannot open %s: %v", path, err)
		return &Store{}
	}
	defer f.Close()
	return Load(f)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
