package service

import (
	"strings"

	"chatbot/internal/model"
)

const (
	roleUser       = "user"
	labelUser      = "User: "
	labelAssistant = "Assistant: "
)

// BuildPrompt 将对话按顺序展开为单个 prompt
// 每条消息一行 "<Label>: <content>\n"，最后追加不带换行的 "Assistant: " 作为续写提示。
// content 中的换行原样保留。
func BuildPrompt(messages []model.Message) string {
	var b strings.Builder
	for i := range messages {
		msg := &messages[i]
		if msg.GetRole() == roleUser {
			b.WriteString(labelUser)
		} else {
			b.WriteString(labelAssistant)
		}
		b.WriteString(msg.GetContent())
		b.WriteByte('\n')
	}
	b.WriteString(labelAssistant)
	return b.String()
}
