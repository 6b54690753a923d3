package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultScore 缺失或无效评分时使用的默认值
const DefaultScore = 50

// Result 压力分析结果，即接口返回的固定结构
type Result struct {
	StressScore   int      `json:"stressScore"`
	StressFactors []string `json:"stressFactors"`
	WellnessTips  []string `json:"wellnessTips"`
}

// Source 标识结果来自哪一种解析策略
type Source string

const (
	SourceEmbedded Source = "embedded"
	SourceWhole    Source = "whole"
	SourceFallback Source = "fallback"
)

// Analysis 分析结果及其解析过程信息
type Analysis struct {
	Result   Result
	Source   Source
	Repaired bool
}

// Fallback 回复完全无法解析时返回的固定结果
func Fallback() Result {
	return Result{
		StressScore:   DefaultScore,
		StressFactors: []string{"Unable to analyze at this time"},
		WellnessTips: []string{
			"Please try rephrasing your thoughts",
			"Take a deep breath",
			"Remember, it's okay to ask for help",
		},
	}
}

func defaultFactors() []string {
	return []string{"General stress detected"}
}

func defaultTips() []string {
	return []string{"Take breaks", "Stay hydrated", "Talk to someone you trust"}
}

// candidate 模型回复解码后的中间表示，每个字段都可能缺失或类型不符
type candidate struct {
	StressScore   json.RawMessage `json:"stressScore"`
	StressFactors json.RawMessage `json:"stressFactors"`
	WellnessTips  json.RawMessage `json:"wellnessTips"`
}

var errNullReply = errors.New("reply decoded to null")

// decodeCandidate 任何合法 JSON 都算解码成功；非对象的值得到一个全空的 candidate
func decodeCandidate(s string) (*candidate, error) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil, errNullReply
	}

	var c candidate
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// repair 逐字段替换缺失或无效的值，有效字段保持不变
func repair(c *candidate) (Result, bool) {
	var res Result
	repaired := false

	if score, ok := truthyScore(c.StressScore); ok {
		res.StressScore = score
	} else {
		res.StressScore = DefaultScore
		repaired = true
	}

	if list, ok := stringArray(c.StressFactors); ok {
		res.StressFactors = list
	} else {
		res.StressFactors = defaultFactors()
		repaired = true
	}

	if list, ok := stringArray(c.WellnessTips); ok {
		res.WellnessTips = list
	} else {
		res.WellnessTips = defaultTips()
		repaired = true
	}

	return res, repaired
}

// truthyScore 取整后为 0 与缺失一样视为无效，会被替换为默认值
func truthyScore(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}

	var f float64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		f = v
	default:
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0, false
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// 先取整再判零，超出 int32 的值同样无效
	r := math.Round(f)
	if r == 0 || r > math.MaxInt32 || r < math.MinInt32 {
		return 0, false
	}
	return int(r), true
}

// stringArray 只接受 JSON 数组；非字符串元素保留其 JSON 文本，null 元素被跳过
func stringArray(raw json.RawMessage) ([]string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if bytes.Equal(item, []byte("null")) {
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(item))
	}
	return out, true
}
