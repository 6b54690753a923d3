package analyzer

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// strategy 一种从模型回复中提取 JSON 文本的方式，ok 为 false 表示不适用
type strategy struct {
	source  Source
	extract func(reply string) (string, bool)
}

// ladder 按顺序尝试，第一个解码成功的策略生效
var ladder = []strategy{
	{source: SourceEmbedded, extract: embeddedObject},
	{source: SourceWhole, extract: wholeReply},
}

// embeddedObject 取第一个 { 到最后一个 } 之间的子串
func embeddedObject(reply string) (string, bool) {
	start := strings.Index(reply, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(reply, "}")
	if end < start {
		return "", false
	}
	return reply[start : end+1], true
}

// wholeReply 只有在回复中不存在花括号包围的子串时才尝试整体解析
func wholeReply(reply string) (string, bool) {
	if _, ok := embeddedObject(reply); ok {
		return "", false
	}
	return reply, true
}

func parseReply(log *logrus.Logger, reply string) Analysis {
	for _, s := range ladder {
		text, ok := s.extract(reply)
		if !ok {
			continue
		}
		c, err := decodeCandidate(text)
		if err != nil {
			log.WithError(err).Errorf("Failed to parse AI response: %s", reply)
			continue
		}

		res, repaired := repair(c)
		if repaired {
			log.Errorf("Invalid AI response structure: %s", text)
		}
		return Analysis{Result: res, Source: s.source, Repaired: repaired}
	}

	return Analysis{Result: Fallback(), Source: SourceFallback}
}
