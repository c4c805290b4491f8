package service

import (
	"context"
	"io"

	"github.com/rs/zerolog/log"

	"chatbot/internal/pkg/ollama"
)

// Event 流式输出事件
// Done 为 true 时表示后端已声明完成，此后不会再有事件
type Event struct {
	Text string
	Done bool
}

// EventStream 流式对话的事件序列，不可重放
type EventStream interface {
	// Next 返回下一个事件；后端流结束且未声明完成时返回 io.EOF
	Next() (*Event, error)
	// Close 释放后端连接
	Close() error
}

type chatStream struct {
	ctx      context.Context
	stream   *ollama.Stream
	finished bool
	// 同一分片同时带有 response 和 done 时，先输出文本再输出完成事件
	pendingDone bool
}

func (s *chatStream) Next() (*Event, error) {
	if s.pendingDone {
		s.pendingDone = false
		s.finished = true
		return &Event{Done: true}, nil
	}
	if s.finished {
		return nil, io.EOF
	}

	for {
		chunk, err := s.stream.Recv()
		if err != nil {
			s.finished = true
			return nil, err
		}

		if chunk.Error != "" {
			log.Ctx(s.ctx).Warn().Str("backend_error", chunk.Error).Msg("ollama reported an error in stream")
		}

		switch {
		case chunk.Response != nil:
			s.pendingDone = chunk.Done
			return &Event{Text: *chunk.Response}, nil
		case chunk.Done:
			s.finished = true
			return &Event{Done: true}, nil
		}
	}
}

func (s *chatStream) Close() error {
	return s.stream.Close()
}
