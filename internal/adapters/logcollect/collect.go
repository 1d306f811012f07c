// Package logcollect copies collaborator logs into a per-case debug
// directory when a case fails. Collection is strictly best-effort: it logs
// its own failures and never propagates them, so it cannot turn a passing
// comparison into a failure.
package logcollect

import (
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

type Collector struct {
	destRoot string
	sources  map[string]string // name -> log path
	logger   *zerolog.Logger
}

func New(destRoot string, sources map[string]string, logger *zerolog.Logger) *Collector {
	return &Collector{destRoot: destRoot, sources: sources, logger: logger}
}

// Collect gzips every registered collaborator log into
// <destRoot>/<suite>/<case>/<name>.gz.
func (c *Collector) Collect(suite, caseName string) {
	dir := filepath.Join(c.destRoot, suite, caseName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.logger.Warn().Err(err).Str("dir", dir).Msg("debug log dir not created")
		return
	}
	for name, src := range c.sources {
		if err := gzipCopy(src, filepath.Join(dir, name+".gz")); err != nil {
			c.logger.Warn().Err(err).Str("log", name).Msg("debug log not collected")
		}
	}
}

func gzipCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}
