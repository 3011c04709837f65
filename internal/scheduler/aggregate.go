package scheduler

import (
	"sort"
	"time"
)

// AggregateWeekly 把任意粒度的能量记录归并到自然周（周一开始），每周取平均值。
// 检测器只接受周粒度的序列，同一次评估里不混用日粒度和周粒度
func AggregateWeekly(entries []EnergyEntry) []EnergyEntry {
	if len(entries) == 0 {
		return nil
	}

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[time.Time]*bucket)
	for _, e := range entries {
		key := WeekStartOf(e.LoggedAt)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.sum += clamp(e.Level, 0, 100)
		b.count++
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]EnergyEntry, len(keys))
	for i, k := range keys {
		b := buckets[k]
		out[i] = EnergyEntry{Level: round(b.sum/float64(b.count), 2), LoggedAt: k}
	}
	return out
}

// WeekStartOf 返回 t 所在周的周一（UTC 日期）
func WeekStartOf(t time.Time) time.Time {
	d := dateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// RecentWeekly 按周归并 asOf 当天及之前的记录，只保留截至当前周、中间没有空周的最后一段。
// 当前周还没有记录时，上一周可以作为结尾；更早就断档的历史视为没有近期数据，返回 nil。
// asOf 为零值时以最新一周为结尾
func RecentWeekly(entries []EnergyEntry, asOf time.Time) []EnergyEntry {
	if !asOf.IsZero() {
		cutoff := dateOnly(asOf)
		kept := make([]EnergyEntry, 0, len(entries))
		for _, e := range entries {
			if !dateOnly(e.LoggedAt).After(cutoff) {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	weekly := AggregateWeekly(entries)
	if len(weekly) == 0 {
		return nil
	}
	last := len(weekly) - 1
	if !asOf.IsZero() && weekly[last].LoggedAt.Before(WeekStartOf(asOf).AddDate(0, 0, -7)) {
		return nil
	}

	first := last
	for first > 0 && weekly[first-1].LoggedAt.Equal(weekly[first].LoggedAt.AddDate(0, 0, -7)) {
		first--
	}
	return weekly[first:]
}
