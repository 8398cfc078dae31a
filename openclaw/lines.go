package openclaw

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// eachLine calls fn for every non-blank line of r, without its line ending.
// Lines longer than limit bytes are drained and skipped; the count of skipped
// lines is returned. The slice passed to fn is only valid during the call.
func eachLine(r io.Reader, limit int, fn func(line []byte)) (skipped int, err error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var buf []byte
	oversize := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !oversize {
			if len(buf)+len(bytes.TrimRight(chunk, "\r\n")) > limit {
				oversize = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && err != io.EOF {
			return skipped, err
		}
		if oversize {
			skipped++
		} else if line := bytes.TrimRight(buf, "\r\n"); len(bytes.TrimSpace(line)) > 0 {
			fn(line)
		}
		buf = buf[:0]
		oversize = false
		if err == io.EOF {
			return skipped, nil
		}
	}
}
