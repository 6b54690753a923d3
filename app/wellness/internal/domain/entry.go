package domain

import "time"

// HistoryLimit 历史记录与趋势图最多使用的条目数
const HistoryLimit = 30

// StressEntry 一次已保存的压力分析
type StressEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Text          string    `json:"text"`
	StressScore   int       `json:"stress_score"`
	StressFactors []string  `json:"stress_factors"`
	WellnessTips  []string  `json:"wellness_tips"`
	CreatedAt     time.Time `json:"created_at"`
}

// Level 压力等级
type Level string

const (
	LevelLow      Level = "Low"
	LevelModerate Level = "Moderate"
	LevelHigh     Level = "High"
	LevelVeryHigh Level = "Very High"
)

// StressLevel 将评分映射为等级
func StressLevel(score int) Level {
	switch {
	case score < 30:
		return LevelLow
	case score < 60:
		return LevelModerate
	case score < 80:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

// HistoryItem 带压力等级的历史记录
type HistoryItem struct {
	*StressEntry
	StressLevel Level `json:"stress_level"`
}

// NewHistory 为每条记录附加压力等级
func NewHistory(entries []*StressEntry) []HistoryItem {
	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryItem{StressEntry: e, StressLevel: StressLevel(e.StressScore)})
	}
	return items
}

// TrendPoint 趋势图中的一个点
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Score int       `json:"score"`
}

// Trend 压力趋势，Delta 为最近 7 条的均值减去之前 7 条的均值
type Trend struct {
	Points    []TrendPoint `json:"points"`
	Delta     *float64     `json:"delta"`
	Direction string       `json:"direction,omitempty"`
}

// Export 用户数据导出
type Export struct {
	StressEntries []*StressEntry `json:"stress_entries"`
	ExportedAt    time.Time      `json:"exported_at"`
}

// NewTrend 由按时间倒序排列的记录计算趋势
func NewTrend(entries []*StressEntry) *Trend {
	n := len(entries)
	if n > HistoryLimit {
		n = HistoryLimit
	}

	points := make([]TrendPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		points = append(points, TrendPoint{Date: entries[i].CreatedAt, Score: entries[i].StressScore})
	}

	t := &Trend{Points: points}
	if len(points) < 2 {
		return t
	}
	recent := points[max(len(points)-7, 0):]
	older := points[max(len(points)-14, 0):max(len(points)-7, 0)]
	if len(older) == 0 {
		return t
	}

	delta := average(recent) - average(older)
	t.Delta = &delta
	switch {
	case delta > 0:
		t.Direction = "up"
	case delta < 0:
		t.Direction = "down"
	default:
		t.Direction = "flat"
	}
	return t
}

func average(points []TrendPoint) float64 {
	var sum int
	for _, p := range points {
		sum += p.Score
	}
	return float64(sum) / float64(len(points))
}
