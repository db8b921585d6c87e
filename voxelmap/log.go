package voxelmap

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/voxelnav/pointcloud"
)

// LogVersion is the observation log layout written by LogWriter.
const LogVersion = 1

// LogHeader is the first record of an observation log.
type LogHeader struct {
	Version   int       `json:"version"`
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// LogWriter records posed frames as a compressed CBOR sequence that ReadFromLog can replay.
type LogWriter struct {
	mu     sync.Mutex
	header LogHeader
	zw     *zstd.Encoder
	enc    *cbor.Encoder
	closer io.Closer
	count  int
}

// NewLogWriter starts a log on w. The caller keeps ownership of w.
func NewLogWriter(w io.Writer) (*LogWriter, error) {
	return newLogWriter(w, nil)
}

// CreateLog creates a log file at path. Closing the writer closes the file.
func CreateLog(path string) (*LogWriter, error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating observation log %q", path)
	}
	lw, err := newLogWriter(f, f)
	if err != nil {
		return nil, multierr.Combine(err, f.Close())
	}
	return lw, nil
}

func newLogWriter(w io.Writer, closer io.Closer) (*LogWriter, error) {
	zw, err := newCompressor(w)
	if err != nil {
		return nil, err
	}
	lw := &LogWriter{
		header: LogHeader{Version: LogVersion, ID: uuid.New(), CreatedAt: time.Now().UTC()},
		zw:     zw,
		enc:    newEncoder(zw),
		closer: closer,
	}
	if err := lw.enc.Encode(&lw.header); err != nil {
		return nil, multierr.Combine(errors.Wrap(err, "writing log header"), zw.Close())
	}
	return lw, nil
}

// Header returns the log header.
func (lw *LogWriter) Header() LogHeader {
	return lw.header
}

// Append records one frame.
func (lw *LogWriter) Append(frame *pointcloud.Frame) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.enc == nil {
		return errors.New("observation log is closed")
	}
	if err := lw.enc.Encode(frame); err != nil {
		return errors.Wrapf(err, "writing frame %d", lw.count)
	}
	lw.count++
	return nil
}

// Len returns the number of frames recorded so far.
func (lw *LogWriter) Len() int {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.count
}

// Close flushes the log and closes the underlying file if the writer owns one.
func (lw *LogWriter) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.enc == nil {
		return nil
	}
	lw.enc = nil
	err := lw.zw.Close()
	if lw.closer != nil {
		err = multierr.Combine(err, lw.closer.Close())
	}
	return err
}

// LogReader iterates over the frames of an observation log.
type LogReader struct {
	header LogHeader
	zr     *zstd.Decoder
	dec    *cbor.Decoder
	closer io.Closer
}

// NewLogReader reads a log from r. The caller keeps ownership of r.
func NewLogReader(r io.Reader) (*LogReader, error) {
	return newLogReader(r, nil)
}

// OpenLog opens a log file. Closing the reader closes the file.
func OpenLog(path string) (*LogReader, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening observation log %q", path)
	}
	lr, err := newLogReader(f, f)
	if err != nil {
		return nil, multierr.Combine(err, f.Close())
	}
	return lr, nil
}

func newLogReader(r io.Reader, closer io.Closer) (*LogReader, error) {
	zr, err := newDecompressor(r)
	if err != nil {
		return nil, err
	}
	lr := &LogReader{zr: zr, dec: newDecoder(zr), closer: closer}
	if err := lr.dec.Decode(&lr.header); err != nil {
		zr.Close()
		return nil, errors.Wrap(err, "reading log header")
	}
	if lr.header.Version != LogVersion {
		zr.Close()
		return nil, errors.Wrapf(ErrSnapshotVersion, "observation log version %d", lr.header.Version)
	}
	return lr, nil
}

// Header returns the log header.
func (lr *LogReader) Header() LogHeader {
	return lr.header
}

// Next returns the next frame, or io.EOF at the end of the log.
func (lr *LogReader) Next() (*pointcloud.Frame, error) {
	var frame pointcloud.Frame
	if err := lr.dec.Decode(&frame); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Wrap(err, "reading frame")
	}
	return &frame, nil
}

// Close releases the decompressor and the underlying file if the reader owns one.
func (lr *LogReader) Close() error {
	lr.zr.Close()
	if lr.closer != nil {
		return lr.closer.Close()
	}
	return nil
}

// ReadFromLog replays up to numFrames recorded frames (all of them when numFrames is negative)
// through AddObservation and returns how many were read. Malformed frames are skipped, and a
// truncated tail ends the replay with a warning.
func (m *Map) ReadFromLog(path string, numFrames int) (int, error) {
	lr, err := OpenLog(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := lr.Close(); err != nil {
			m.logger.Warnw("closing observation log", "path", path, "error", err)
		}
	}()

	read := 0
	for numFrames < 0 || read < numFrames {
		frame, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			m.logger.Warnw("observation log ended early", "path", path, "frame", read, "error", err)
			break
		}
		read++
		if err := m.AddObservation(frame); err != nil {
			if errors.Is(err, ErrMalformedObservation) {
				continue
			}
			return read, err
		}
	}
	m.logger.Infow("replayed observation log", "path", path, "log_id", lr.Header().ID, "frames", read)
	return read, nil
}
