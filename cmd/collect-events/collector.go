package main

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

const (
	requestEventName   = "http.request.metrics"
	requestEventDomain = "taskhub.api"

	attrRoute         = "http.route"
	attrMethod        = "http.method"
	attrStatusCode    = "http.status_code"
	attrTotalMillis   = "taskhub.total_ms"
	attrTasksReturned = "taskhub.tasks_returned"
	attrErrorStage    = "taskhub.error_stage"
)

type logRecord struct {
	EventName      string         `json:"event.name"`
	EventDomain    string         `json:"event.domain"`
	SeverityText   string         `json:"severity_text"`
	SeverityNumber int            `json:"severity_number"`
	Attributes     map[string]any `json:"attributes"`
}

type collector struct {
	eventName   string
	eventDomain string
	stats       metricsSummary
	skipped     int
}

type metricsSummary struct {
	Count          int
	SeverityCounts map[string]int
	StatusCounts   map[int]int
	Routes         map[string]*numericStats
	Total          *numericStats
	Tasks          *numericStats
	ErrorStages    map[string]int
}

type numericStats struct {
	Count int
	Sum   float64
	Min   float64
	Max   float64
}

type numericSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

type summaryOutput struct {
	EventName      string                    `json:"event_name"`
	EventDomain    string                    `json:"event_domain"`
	TotalEvents    int                       `json:"total_events"`
	SeverityCounts map[string]int            `json:"severity_counts"`
	StatusCounts   map[string]int            `json:"status_counts"`
	TotalMs        numericSummary            `json:"total_ms"`
	RouteMs        map[string]numericSummary `json:"route_ms"`
	TasksReturned  numericSummary            `json:"tasks_returned"`
	ErrorStages    map[string]int            `json:"error_stages,omitempty"`
	SkippedLines   int                       `json:"skipped_lines"`
}

func newCollector(eventName, eventDomain string) *collector {
	return &collector{
		eventName:   eventName,
		eventDomain: eventDomain,
		stats: metricsSummary{
			SeverityCounts: make(map[string]int),
			StatusCounts:   make(map[int]int),
			Routes:         make(map[string]*numericStats),
			ErrorStages:    make(map[string]int),
		},
	}
}

// ingest accepts one log line. Lines prefixed by a container name and "|"
// are accepted as well.
func (c *collector) ingest(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if pipe := strings.Index(trimmed, "|"); pipe >= 0 && !strings.HasPrefix(trimmed, "{") {
		trimmed = strings.TrimSpace(trimmed[pipe+1:])
	}

	var rec logRecord
	dec := sonic.ConfigStd.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&rec); err != nil {
		c.skipped++
		return
	}
	if rec.EventName != c.eventName {
		return
	}
	if c.eventDomain != "" && rec.EventDomain != c.eventDomain {
		return
	}
	c.addRecord(rec)
}

func (c *collector) addRecord(rec logRecord) {
	c.stats.Count++

	severity := strings.ToUpper(strings.TrimSpace(rec.SeverityText))
	if severity == "" {
		severity = "UNSPECIFIED"
	}
	c.stats.SeverityCounts[severity]++

	if rec.Attributes == nil {
		return
	}
	if status, ok := asInt(rec.Attributes[attrStatusCode]); ok {
		c.stats.StatusCounts[status]++
	}
	if v, ok := asFloat(rec.Attributes[attrTotalMillis]); ok {
		if c.stats.Total == nil {
			c.stats.Total = newNumericStats()
		}
		c.stats.Total.add(v)

		route, _ := rec.Attributes[attrRoute].(string)
		method, _ := rec.Attributes[attrMethod].(string)
		if route != "" {
			key := strings.TrimSpace(method + " " + route)
			stat, ok := c.stats.Routes[key]
			if !ok {
				stat = newNumericStats()
				c.stats.Routes[key] = stat
			}
			stat.add(v)
		}
	}
	if v, ok := asFloat(rec.Attributes[attrTasksReturned]); ok {
		if c.stats.Tasks == nil {
			c.stats.Tasks = newNumericStats()
		}
		c.stats.Tasks.add(v)
	}
	if stage, ok := rec.Attributes[attrErrorStage].(string); ok && stage != "" {
		c.stats.ErrorStages[stage]++
	}
}

func newNumericStats() *numericStats {
	return &numericStats{Min: math.MaxFloat64}
}

func (n *numericStats) add(value float64) {
	n.Count++
	n.Sum += value
	if value < n.Min {
		n.Min = value
	}
	if value > n.Max {
		n.Max = value
	}
}

func (n *numericStats) summary() numericSummary {
	if n == nil || n.Count == 0 {
		return numericSummary{}
	}
	return numericSummary{
		Count: n.Count,
		Min:   n.Min,
		Max:   n.Max,
		Avg:   n.Sum / float64(n.Count),
	}
}

func (c *collector) summary() summaryOutput {
	statusCounts := make(map[string]int, len(c.stats.StatusCounts))
	for status, count := range c.stats.StatusCounts {
		statusCounts[strconv.Itoa(status)] = count
	}
	routes := make(map[string]numericSummary, len(c.stats.Routes))
	for key, stat := range c.stats.Routes {
		routes[key] = stat.summary()
	}
	var stages map[string]int
	if len(c.stats.ErrorStages) > 0 {
		stages = c.stats.ErrorStages
	}

	return summaryOutput{
		EventName:      c.eventName,
		EventDomain:    c.eventDomain,
		TotalEvents:    c.stats.Count,
		SeverityCounts: c.stats.SeverityCounts,
		StatusCounts:   statusCounts,
		TotalMs:        c.stats.Total.summary(),
		RouteMs:        routes,
		TasksReturned:  c.stats.Tasks.summary(),
		ErrorStages:    stages,
		SkippedLines:   c.skipped,
	}
}

func (s summaryOutput) ShortString() string {
	routes := make([]string, 0, len(s.RouteMs))
	for key := range s.RouteMs {
		routes = append(routes, key)
	}
	sort.Strings(routes)

	parts := []string{
		"event=" + s.EventName,
		"total=" + strconv.Itoa(s.TotalEvents),
		"info=" + strconv.Itoa(s.SeverityCounts["INFO"]),
		"warn=" + strconv.Itoa(s.SeverityCounts["WARN"]),
		"error=" + strconv.Itoa(s.SeverityCounts["ERROR"]),
		"avg_total_ms=" + formatFloat(s.TotalMs.Avg),
		"max_total_ms=" + formatFloat(s.TotalMs.Max),
		"routes=" + strconv.Itoa(len(routes)),
	}
	return strings.Join(parts, " ")
}

func formatFloat(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
