package main

import (
	"io"
	"os"
	"time"

	rotatelogs "github.com/iproj/file-rotatelogs"
)

const (
	logRotationTime = 24 * time.Hour
	logMaxAge       = 7 * 24 * time.Hour
)

// openLogWriter returns stderr, teed into a daily rotated file when path
// is set. The closer is nil without a file.
func openLogWriter(path string) (io.Writer, io.Closer, error) {
	if path == "" {
		return os.Stderr, nil, nil
	}
	rl, err := rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(logRotationTime),
		rotatelogs.WithMaxAge(logMaxAge),
	)
	if err != nil {
		return nil, nil, err
	}
	return io.MultiWriter(os.Stderr, rl), rl, nil
}
