package handler

import (
	"bytes"
	"encoding/json"
	"io"
)

var (
	textPrefix = []byte(`data: {"text": `)
	eventEnd   = []byte("}\n\n")
	doneEvent  = []byte("data: [DONE]\n\n")
)

// encodeText 编码一个文本事件: data: {"text": "<chunk>"}\n\n
func encodeText(text string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(textPrefix)

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(text); err != nil {
		return nil, err
	}
	// Encode 末尾带换行
	buf.Truncate(buf.Len() - 1)

	buf.Write(eventEnd)
	return buf.Bytes(), nil
}

func writeText(w io.Writer, text string) error {
	data, err := encodeText(text)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func writeDone(w io.Writer) error {
	_, err := w.Write(doneEvent)
	return err
}
