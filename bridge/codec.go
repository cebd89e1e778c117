package bridge

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

// lineCodec frames JSON-RPC messages as newline-delimited JSON.
// Lines that are not JSON objects (startup banners, package manager output) are skipped.
type lineCodec struct{}

func (lineCodec) WriteObject(stream io.Writer, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	_, err = stream.Write(append(data, '\n'))
	return err
}

func (lineCodec) ReadObject(stream *bufio.Reader, v interface{}) error {
	for {
		line, err := stream.ReadBytes('\n')
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
			return json.Unmarshal(trimmed, v)
		}
		if err != nil {
			return err
		}
	}
}

// streamReadWriteCloser joins a process's stdin and stdout into one stream
type streamReadWriteCloser struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (s *streamReadWriteCloser) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *streamReadWriteCloser) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

func (s *streamReadWriteCloser) Close() error {
	if err := s.stdin.Close(); err != nil {
		return err
	}
	return s.stdout.Close()
}
