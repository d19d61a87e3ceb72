package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"folio/internal/application/port"
)

// Sink 终端输出；日志走 stderr，这里只写 stdout
type Sink struct {
	w io.Writer
}

func NewSink() port.Sink { return &Sink{w: os.Stdout} }

// NewWriterSink 输出到任意 Writer
func NewWriterSink(w io.Writer) *Sink { return &Sink{w: w} }

func (s *Sink) WriteLive(line string) error {
	_, err := fmt.Fprint(s.w, line) // no newline
	return err
}

// 快照块前换行收尾当前 live 行，块后留一个空行，等下一次变化再重画 live
func (s *Sink) WriteSnapshot(ts time.Time, block string) error {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(ts.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString(strings.TrimRight(block, "\n"))
	sb.WriteString("\n\n")
	_, err := io.WriteString(s.w, sb.String())
	return err
}

func (s *Sink) NewLine() error {
	_, err := fmt.Fprint(s.w, "\n")
	return err
}
