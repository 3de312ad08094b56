package log

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// RawLogger receives the verbatim output streams of external tools
// (the schema compiler and the differ).
type RawLogger interface {
	Log(tool, stream string, data []byte)
}

type rawLogger struct {
	w     io.Writer
	color bool
	mu    sync.Mutex
}

// NewRaw creates a RawLogger. A nil writer yields a no-op logger.
// Stream prefixes are coloured when w is a terminal.
func NewRaw(w io.Writer) RawLogger {
	color := false
	if f, ok := w.(*os.File); ok && f != nil {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &rawLogger{w: w, color: color}
}

// Log writes one timestamped line per line of data, prefixed with the tool
// and stream name ("protoc stderr | ...").
func (r *rawLogger) Log(tool, stream string, data []byte) {
	if len(data) == 0 || r.w == nil {
		return
	}

	prefix := tool + " " + stream
	if r.color {
		code := "36"
		if stream == "stderr" {
			code = "33"
		}
		prefix = "\x1b[" + code + "m" + prefix + "\x1b[0m"
	}

	var buf bytes.Buffer
	ts := time.Now().Format("2006/01/02 15:04:05")
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for sc.Scan() {
		fmt.Fprintf(&buf, "%s %s | %s\n", ts, prefix, sc.Text())
	}

	r.mu.Lock()
	_, _ = r.w.Write(buf.Bytes())
	r.mu.Unlock()
}
