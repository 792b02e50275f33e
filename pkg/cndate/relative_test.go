package cndate

import (
	"testing"
	"time"
)

func TestExpand(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.Local)

	cases := []struct {
		in   string
		want string
	}{
		{"今天黄金价格", "2025年3月15日黄金价格"},
		{"今日天气", "2025年3月15日天气"},
		{"昨天的新闻", "2025年3月14日的新闻"},
		{"明天北京天气", "2025年3月16日北京天气"},
		{"前天发生了什么", "2025年3月13日发生了什么"},
		{"后天的比赛", "2025年3月17日的比赛"},
		{"大前天的股价", "2025年3月12日的股价"},
		{"大后天放假吗", "2025年3月18日放假吗"},
		{"黄金价格", "黄金价格"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Expand(c.in, now); got != c.want {
			t.Errorf("Expand(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// “大前天”这类长词必须整体替换，不能被“前天”抢先匹配。
func TestExpandLongestWordFirst(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.Local)
	got := Expand("大前天和前天", now)
	want := "2025年3月12日和2025年3月13日"
	if got != want {
		t.Errorf("Expand = %q, want %q", got, want)
	}
}

// 月份跨界：3 月 1 日的“昨天”是 2 月 28 日。
func TestExpandMonthBoundary(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	got := Expand("昨天", now)
	if got != "2025年2月28日" {
		t.Errorf("Expand = %q, want 2025年2月28日", got)
	}
}
