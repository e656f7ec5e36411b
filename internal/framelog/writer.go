package framelog

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/radarsim/internal/fsutil"
	"github.com/banshee-data/radarsim/internal/radar"
	"github.com/banshee-data/radarsim/internal/sim"
	"github.com/banshee-data/radarsim/internal/timeutil"
)

// Writer appends frames to a log file. It implements sim.Sink.
//
// The file is opened append-only and the writer assumes it is the only
// process writing to it; concurrent writers would interleave records.
type Writer struct {
	path    string
	runID   string
	out     io.WriteCloser
	buf     *bufio.Writer
	records int
}

// NewWriter opens path for appending and writes a run header comment
// stamped with clock. An empty runID is replaced with a random UUID and a nil
// clock uses the real clock.
func NewWriter(fsys fsutil.FileSystem, path, runID string, clock timeutil.Clock) (*Writer, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	out, err := fsys.OpenAppend(path)
	if err != nil {
		return nil, fmt.Errorf("open frame log %s: %w", path, err)
	}
	w := &Writer{
		path:  path,
		runID: runID,
		out:   out,
		buf:   bufio.NewWriter(out),
	}
	fmt.Fprintf(w.buf, "# radarsim run=%s started=%s\n", runID, clock.Now().UTC().Format(time.RFC3339))
	if err := w.buf.Flush(); err != nil {
		out.Close()
		return nil, fmt.Errorf("write frame log header: %w", err)
	}
	return w, nil
}

// RunID identifies the run in the log header.
func (w *Writer) RunID() string { return w.runID }

// Records returns the number of records written so far.
func (w *Writer) Records() int { return w.records }

// WriteFrame appends every point of f: targets with their velocity, then
// noise, then clutter (both logged as Noise). The frame is flushed before
// returning.
func (w *Writer) WriteFrame(f *sim.Frame) error {
	for _, t := range f.Targets {
		w.writeRecord(Record{Frame: f.Index, Kind: radar.KindTarget, Point: t, HasVelocity: true})
	}
	for _, c := range []radar.Cloud{f.Noise, f.Clutter} {
		for i := range c.X {
			w.writeRecord(Record{Frame: f.Index, Kind: radar.KindNoise, Point: radar.Point{X: c.X[i], Y: c.Y[i]}})
		}
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush frame %d to %s: %w", f.Index, w.path, err)
	}
	return nil
}

func (w *Writer) writeRecord(r Record) {
	w.buf.WriteString(FormatRecord(r))
	w.buf.WriteByte('\n')
	w.records++
}

// Close flushes buffered records and closes the file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.out.Close()
		return err
	}
	return w.out.Close()
}

var _ sim.Sink = (*Writer)(nil)
