// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"
)

// operationLogger writes one line per Put/Get in the
// `<type> <value> <start> <lin_time> <end>` format analyzer.Parse reads.
// lin_time is always written as 0 (substituted with end by Parse): this
// driver has no linearization-point oracle, only the invocation/response
// interval the original's --log_operations flag also records.
type operationLogger struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

func newOperationLogger(path string) (*operationLogger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &operationLogger{f: f, w: bufio.NewWriter(f)}, nil
}

func (l *operationLogger) logInsert(value int64, start, end time.Time) {
	l.write(0, value, start, end)
}

func (l *operationLogger) logRemove(value int64, start, end time.Time) {
	l.write(1, value, start, end)
}

func (l *operationLogger) write(opType int, value int64, start, end time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%d %d %d %d %d\n", opType, value, uint64(start.UnixNano()), 0, uint64(end.UnixNano()))
}

func (l *operationLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.f.Close()
}
