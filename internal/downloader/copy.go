package downloader

import "io"

// countingWriter reports the running byte count after every write.
type countingWriter struct {
	w        io.Writer
	n        int64
	progress func(done int64)
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if n > 0 {
		c.n += int64(n)
		if c.progress != nil {
			c.progress(c.n)
		}
	}

	return n, err
}

func copyWithProgress(dst io.Writer, src io.Reader, progress func(done int64)) (int64, error) {
	cw := &countingWriter{w: dst, progress: progress}
	_, err := io.CopyBuffer(cw, src, make([]byte, 32*1024))

	return cw.n, err
}
