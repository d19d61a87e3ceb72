package port

import "time"

// Sink 终端输出
type Sink interface {
	// WriteLive 覆盖当前行（不换行）
	WriteLive(line string) error
	// WriteSnapshot 追加一段带时间戳的快照，并留出一行给后续实时刷新
	WriteSnapshot(ts time.Time, block string) error
	NewLine() error
}
