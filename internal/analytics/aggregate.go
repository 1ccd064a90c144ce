// Package analytics turns raw click histories into reporting views.
// Everything here is a pure function over snapshots: no storage access,
// no mutation of the links passed in.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/linklite/linklite/internal/domain"
)

// BucketCount is one time bucket of a series. The bucket key format
// depends on the grouping: "2006-01-02" for days, "15:04" for minutes,
// weekday names for week-shape rollups.
type BucketCount struct {
	Bucket string `json:"bucket"`
	Clicks int64  `json:"clicks"`
}

// KeyCount is one entry of a group-count breakdown.
type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// LinkReport is the per-link analytics view.
type LinkReport struct {
	Code        string        `json:"code"`
	TargetURL   string        `json:"target_url"`
	TotalClicks int64         `json:"total_clicks"`
	ByDay       []BucketCount `json:"clicks_by_date"`
	Referrers   []KeyCount    `json:"referrers"`
	Devices     []KeyCount    `json:"devices"`
	Browsers    []KeyCount    `json:"browsers"`
	OS          []KeyCount    `json:"os"`
}

// OverviewReport is the multi-link dashboard view: a week-shape series
// plus ranked breakdowns. IsSample marks the placeholder dataset served
// when the caller opted in and no real clicks exist.
type OverviewReport struct {
	TotalClicks int64         `json:"total_clicks"`
	ByWeekday   []BucketCount `json:"clicks_by_date"`
	Referrers   []KeyCount    `json:"referrers"`
	Devices     []KeyCount    `json:"devices"`
	IsSample    bool          `json:"is_sample,omitempty"`
}

// ActiveLink ranks one link inside the realtime window.
type ActiveLink struct {
	Code           string `json:"code"`
	TargetURL      string `json:"target_url"`
	RealtimeClicks int64  `json:"realtime_clicks"`
}

// RealtimeReport covers the trailing hour, bucketed by minute.
type RealtimeReport struct {
	TotalClicks int64         `json:"total_clicks"`
	PerMinute   []BucketCount `json:"clicks_per_minute"`
	TopLinks    []ActiveLink  `json:"top_links"`
}

// TimeframeReport is a parameterized time series across all links.
type TimeframeReport struct {
	Period      Period        `json:"period"`
	TotalClicks int64         `json:"total_clicks"`
	Series      []BucketCount `json:"data"`
}

// GeoReport rolls clicks up by recorded location.
type GeoReport struct {
	Countries []KeyCount `json:"countries"`
	Cities    []KeyCount `json:"cities"`
}

type Period string

const (
	PeriodHour  Period = "hour"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

var weekdayOrder = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

const topCitiesLimit = 20

// ForLink builds the per-link report. Series are ascending by date;
// breakdowns are ranked by count descending, ties broken by key for
// deterministic output.
func ForLink(link *domain.Link) *LinkReport {
	return &LinkReport{
		Code:        link.Code,
		TargetURL:   link.TargetURL,
		TotalClicks: link.ClickCount,
		ByDay:       ClicksByDay(link.ClickHistory),
		Referrers:   CountBy(link.ClickHistory, referrerOf),
		Devices:     CountBy(link.ClickHistory, func(c domain.Click) string { return orUnknown(c.DeviceType) }),
		Browsers:    CountBy(link.ClickHistory, func(c domain.Click) string { return orUnknown(c.Browser) }),
		OS:          CountBy(link.ClickHistory, func(c domain.Click) string { return orUnknown(c.OS) }),
	}
}

// Overview builds the dashboard rollup across a set of links. With zero
// clicks and allowSample set, it returns a labeled sample dataset so
// empty dashboards still render; the IsSample flag keeps consumers from
// mistaking it for real data.
func Overview(links []*domain.Link, allowSample bool) *OverviewReport {
	var total int64
	var clicks []domain.Click
	for _, link := range links {
		total += link.ClickCount
		clicks = append(clicks, link.ClickHistory...)
	}

	if total == 0 && allowSample {
		return sampleOverview()
	}

	// Breakdowns come from the histories alone; empty fields are counted
	// as Direct/Unknown, never invented. The sample dataset above is the
	// only synthetic path and it is always labeled.
	return &OverviewReport{
		TotalClicks: total,
		ByWeekday:   ClicksByWeekday(clicks),
		Referrers:   CountBy(clicks, referrerOf),
		Devices:     CountBy(clicks, func(c domain.Click) string { return orUnknown(c.DeviceType) }),
	}
}

// ClicksByDay buckets clicks by UTC calendar day, ascending.
func ClicksByDay(clicks []domain.Click) []BucketCount {
	buckets := make(map[string]int64)
	for _, click := range clicks {
		buckets[click.Timestamp.UTC().Format("2006-01-02")]++
	}
	return sortedBuckets(buckets)
}

// ClicksByWeekday buckets clicks by weekday name in Mon..Sun order.
// Every weekday appears even when empty, so the week shape is stable.
func ClicksByWeekday(clicks []domain.Click) []BucketCount {
	counts := make(map[string]int64, len(weekdayOrder))
	for _, click := range clicks {
		counts[click.Timestamp.UTC().Weekday().String()[:3]]++
	}

	series := make([]BucketCount, 0, len(weekdayOrder))
	for _, day := range weekdayOrder {
		series = append(series, BucketCount{Bucket: day, Clicks: counts[day]})
	}
	return series
}

// CountBy groups clicks by the key function and ranks the result by
// count descending, key ascending.
func CountBy(clicks []domain.Click, key func(domain.Click) string) []KeyCount {
	counts := make(map[string]int64)
	for _, click := range clicks {
		counts[key(click)]++
	}
	return rankedCounts(counts, 0)
}

// Realtime filters the trailing hour, buckets by minute and ranks the
// busiest links. Zero traffic yields empty slices, not an error.
func Realtime(links []*domain.Link, now time.Time) *RealtimeReport {
	windowStart := now.Add(-time.Hour)

	report := &RealtimeReport{}
	perMinute := make(map[string]int64)

	for _, link := range links {
		var linkClicks int64
		for _, click := range link.ClickHistory {
			if click.Timestamp.Before(windowStart) {
				continue
			}
			perMinute[click.Timestamp.UTC().Format("15:04")]++
			report.TotalClicks++
			linkClicks++
		}
		if linkClicks > 0 {
			report.TopLinks = append(report.TopLinks, ActiveLink{
				Code:           link.Code,
				TargetURL:      link.TargetURL,
				RealtimeClicks: linkClicks,
			})
		}
	}

	report.PerMinute = sortedBuckets(perMinute)

	sort.Slice(report.TopLinks, func(i, j int) bool {
		if report.TopLinks[i].RealtimeClicks != report.TopLinks[j].RealtimeClicks {
			return report.TopLinks[i].RealtimeClicks > report.TopLinks[j].RealtimeClicks
		}
		return report.TopLinks[i].Code < report.TopLinks[j].Code
	})
	if len(report.TopLinks) > 10 {
		report.TopLinks = report.TopLinks[:10]
	}

	return report
}

// Timeframe buckets clicks from the window [now - count*period, now]
// with a period-specific key format, ascending, plus the window total.
func Timeframe(links []*domain.Link, period Period, count int, now time.Time) *TimeframeReport {
	if count <= 0 {
		count = 7
	}

	startDate := windowStart(period, count, now)

	report := &TimeframeReport{Period: period}
	buckets := make(map[string]int64)

	for _, link := range links {
		for _, click := range link.ClickHistory {
			if click.Timestamp.Before(startDate) || click.Timestamp.After(now) {
				continue
			}
			buckets[bucketKey(period, click.Timestamp.UTC())]++
			report.TotalClicks++
		}
	}

	report.Series = sortedBuckets(buckets)
	return report
}

// Geo rolls clicks up by country and city, ranked descending. Cities
// are capped at the top 20.
func Geo(links []*domain.Link) *GeoReport {
	countries := make(map[string]int64)
	cities := make(map[string]int64)

	for _, link := range links {
		for _, click := range link.ClickHistory {
			countries[orUnknown(click.Country)]++
			cities[orUnknown(click.City)]++
		}
	}

	return &GeoReport{
		Countries: rankedCounts(countries, 0),
		Cities:    rankedCounts(cities, topCitiesLimit),
	}
}

func windowStart(period Period, count int, now time.Time) time.Time {
	switch period {
	case PeriodHour:
		return now.Add(-time.Duration(count) * time.Hour)
	case PeriodWeek:
		return now.AddDate(0, 0, -7*count)
	case PeriodMonth:
		return now.AddDate(0, -count, 0)
	case PeriodYear:
		return now.AddDate(-count, 0, 0)
	default:
		return now.AddDate(0, 0, -count)
	}
}

func bucketKey(period Period, t time.Time) string {
	switch period {
	case PeriodHour:
		return t.Format("2006-01-02T15:00")
	case PeriodWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case PeriodMonth:
		return t.Format("2006-01")
	case PeriodYear:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}

func sortedBuckets(counts map[string]int64) []BucketCount {
	series := make([]BucketCount, 0, len(counts))
	for bucket, clicks := range counts {
		series = append(series, BucketCount{Bucket: bucket, Clicks: clicks})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Bucket < series[j].Bucket
	})
	return series
}

func rankedCounts(counts map[string]int64, limit int) []KeyCount {
	ranked := make([]KeyCount, 0, len(counts))
	for key, count := range counts {
		ranked = append(ranked, KeyCount{Key: key, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Key < ranked[j].Key
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func referrerOf(c domain.Click) string {
	if c.Referrer == "" {
		return "Direct"
	}
	return c.Referrer
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// sampleOverview is the demo dataset served only on request for an
// empty registry; IsSample distinguishes it from real traffic.
func sampleOverview() *OverviewReport {
	return &OverviewReport{
		TotalClicks: 145,
		ByWeekday: []BucketCount{
			{Bucket: "Mon", Clicks: 12},
			{Bucket: "Tue", Clicks: 19},
			{Bucket: "Wed", Clicks: 25},
			{Bucket: "Thu", Clicks: 31},
			{Bucket: "Fri", Clicks: 24},
			{Bucket: "Sat", Clicks: 18},
			{Bucket: "Sun", Clicks: 16},
		},
		Referrers: []KeyCount{
			{Key: "Direct", Count: 68},
			{Key: "Twitter", Count: 42},
			{Key: "Facebook", Count: 21},
			{Key: "LinkedIn", Count: 14},
		},
		Devices: []KeyCount{
			{Key: "Mobile", Count: 87},
			{Key: "Desktop", Count: 52},
			{Key: "Tablet", Count: 6},
		},
		IsSample: true,
	}
}
