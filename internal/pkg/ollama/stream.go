package ollama

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

const maxLineSize = 1 << 20

// Stream 按行读取 NDJSON 响应
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Stream{body: body, scanner: scanner}
}

// Recv 返回下一个非空行解析出的分片，读完返回 io.EOF
func (s *Stream) Recv() (*GenerateResponse, error) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk GenerateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return nil, fmt.Errorf("decode stream chunk: %w", err)
		}
		return &chunk, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return nil, io.EOF
}

// Close 释放后端连接
func (s *Stream) Close() error {
	return s.body.Close()
}
