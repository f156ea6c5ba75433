package monitor

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// defaultQuiescence is the minimum gap between forced re-reads when
// the file has not grown. The polling backstop runs with force=true
// every cycle; without this window it would reopen the file on every
// tick even while the fsnotify path is keeping up.
const defaultQuiescence = 10 * time.Second

// TailReader tracks a byte offset into a live-appended log file and
// returns only the text appended since the previous read. It detects
// truncation and rotation (file shrank below the stored offset) and
// restarts from the beginning of the file when that happens.
//
// Every filesystem error is contained: logged and reported as "no new
// content". A transient lock or permission glitch must never stop the
// monitor.
type TailReader struct {
	offset     int64
	lastRead   time.Time
	quiescence time.Duration
	logger     *slog.Logger
}

// NewTailReader creates a reader with the default quiescence window.
func NewTailReader(logger *slog.Logger) *TailReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &TailReader{
		quiescence: defaultQuiescence,
		logger:     logger,
	}
}

// Initialize seeds the offset with the file's current size so that
// historical content is never replayed. A missing file leaves the
// offset at zero; content will be picked up from the start once the
// file appears.
func (r *TailReader) Initialize(path string) {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("could not stat log file, starting from offset 0", "path", path, "error", err)
		}
		r.offset = 0
		return
	}
	r.offset = info.Size()
}

// Offset returns the last consumed byte offset.
func (r *TailReader) Offset() int64 {
	return r.offset
}

// ReadNew returns the text appended since the last read, or "" when
// there is nothing new. With force set, an unchanged file is re-read
// anyway, but only once per quiescence window, to catch writes the
// size check missed.
func (r *TailReader) ReadNew(path string, force bool) string {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Debug("log file not found", "path", path)
		} else {
			r.logger.Warn("could not stat log file", "path", path, "error", err)
		}
		return ""
	}

	size := info.Size()
	if size < r.offset {
		// Truncated or rotated out from under us.
		r.logger.Info("log file truncated, rereading from start", "path", path, "size", size, "offset", r.offset)
		r.offset = 0
	}

	if size <= r.offset {
		if !force {
			return ""
		}
		if time.Since(r.lastRead) < r.quiescence {
			return ""
		}
	}

	file, err := os.Open(path)
	if err != nil {
		r.logger.Warn("could not open log file", "path", path, "error", err)
		return ""
	}
	defer file.Close()

	if _, err := file.Seek(r.offset, io.SeekStart); err != nil {
		r.logger.Warn("could not seek log file", "path", path, "offset", r.offset, "error", err)
		return ""
	}

	data, err := io.ReadAll(file)
	if err != nil {
		r.logger.Warn("could not read log file", "path", path, "error", err)
		return ""
	}

	r.offset += int64(len(data))
	r.lastRead = time.Now()

	// The client occasionally writes malformed byte sequences; decoding
	// is lenient so one bad byte cannot poison a whole read.
	return strings.ToValidUTF8(string(data), "�")
}
