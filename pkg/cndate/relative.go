// Package cndate 将中文相对日期词替换为绝对日期，
// 用于在发起网络搜索前消解“今天”“昨天”这类查询词的歧义。
package cndate

import (
	"strings"
	"time"
)

// relativeDays 按替换优先级排列：长词在前，避免“大前天”被“前天”先匹配。
var relativeDays = []struct {
	word   string
	offset int
}{
	{"大前天", -3},
	{"大后天", +3},
	{"前天", -2},
	{"后天", +2},
	{"昨天", -1},
	{"明天", +1},
	{"今天", 0},
	{"今日", 0},
}

const dateLayout = "2006年1月2日"

// Expand 把文本中的相对日期词替换为 now 所在时区的绝对日期。
// 不含相对日期词的文本原样返回。
func Expand(text string, now time.Time) string {
	if text == "" {
		return text
	}
	out := text
	for _, rd := range relativeDays {
		if !strings.Contains(out, rd.word) {
			continue
		}
		abs := now.AddDate(0, 0, rd.offset).Format(dateLayout)
		out = strings.ReplaceAll(out, rd.word, abs)
	}
	return out
}
