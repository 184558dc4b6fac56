package logger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// AsyncFileWriter buffers log lines and writes them from a single goroutine.
// Lines are dropped when the queue is full.
type AsyncFileWriter struct {
	writer  *bufio.Writer
	file    *os.File
	logChan chan []byte
	done    chan struct{}
	stopped sync.WaitGroup
	once    sync.Once
	dropped atomic.Int64
}

func NewAsyncFileWriter(logFile string, bufferSize int) (*AsyncFileWriter, error) {
	file, err := os.OpenFile(filepath.Clean(logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}
	aw := &AsyncFileWriter{
		writer:  bufio.NewWriterSize(file, bufferSize),
		file:    file,
		logChan: make(chan []byte, 1000),
		done:    make(chan struct{}),
	}
	aw.stopped.Add(1)
	go aw.processLogs()
	return aw, nil
}

func (aw *AsyncFileWriter) Write(p []byte) (int, error) {
	select {
	case aw.logChan <- append([]byte(nil), p...):
	default:
		aw.dropped.Add(1)
	}
	return len(p), nil
}

// Dropped is the number of lines lost to a full queue.
func (aw *AsyncFileWriter) Dropped() int64 {
	return aw.dropped.Load()
}

func (aw *AsyncFileWriter) processLogs() {
	defer aw.stopped.Done()
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case line := <-aw.logChan:
			aw.write(line)
		case <-ticker.C:
			_ = aw.writer.Flush()
		case <-aw.done:
			for {
				select {
				case line := <-aw.logChan:
					aw.write(line)
				default:
					_ = aw.writer.Flush()
					return
				}
			}
		}
	}
}

func (aw *AsyncFileWriter) write(line []byte) {
	if _, err := aw.writer.Write(line); err != nil {
		fmt.Fprintln(os.Stderr, "error writing log data to file", err)
	}
}

func (aw *AsyncFileWriter) Close() {
	aw.once.Do(func() {
		close(aw.done)
		aw.stopped.Wait()
		_ = aw.file.Close()
	})
}
