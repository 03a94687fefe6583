package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"agent-blueprint/internal/storage"
)

// DailyStats aggregates the turns of one calendar day.
type DailyStats struct {
	Date            string               `json:"date"`
	TotalMessages   int                  `json:"total_messages"`
	UniqueUsers     int                  `json:"unique_users"`
	ToolCallsTotal  int                  `json:"tool_calls_total"`
	ToolCallsByName map[string]int       `json:"tool_calls_by_name"`
	UserStats       map[string]UserStats `json:"user_stats"`
}

type UserStats struct {
	UserID          string         `json:"user_id"`
	Messages        int            `json:"messages"`
	ToolCalls       int            `json:"tool_calls"`
	ToolCallsByName map[string]int `json:"tool_calls_by_name"`
}

// AnalyzeDailyLogs counts the events of the day containing targetDate, in
// targetDate's location. Events without a user message are ignored.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:            startOfDay.Format("2006-01-02"),
		ToolCallsByName: make(map[string]int),
		UserStats:       make(map[string]UserStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		if event.UserMessage == "" {
			continue
		}
		stats.TotalMessages++

		userStat, exists := stats.UserStats[event.UserID]
		if !exists {
			userStat = UserStats{UserID: event.UserID, ToolCallsByName: make(map[string]int)}
		}
		userStat.Messages++
		for _, name := range event.ToolCalls {
			stats.ToolCallsTotal++
			stats.ToolCallsByName[name]++
			userStat.ToolCalls++
			userStat.ToolCallsByName[name]++
		}
		stats.UserStats[event.UserID] = userStat
	}

	stats.UniqueUsers = len(stats.UserStats)
	return stats
}

// GenerateReportSummary renders a plain text report. Tools and users are
// listed in name order.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Agent usage for %s:\n\n", ds.Date)
	fmt.Fprintf(&b, "- Messages: %d\n- Unique users: %d\n- Tool calls: %d\n\n", ds.TotalMessages, ds.UniqueUsers, ds.ToolCallsTotal)

	if len(ds.ToolCallsByName) > 0 {
		b.WriteString("Tool usage:\n")
		for _, name := range sortedKeys(ds.ToolCallsByName) {
			fmt.Fprintf(&b, "- %s: %d\n", name, ds.ToolCallsByName[name])
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User activity (%d users):\n", len(ds.UserStats))
	for _, id := range sortedKeys(ds.UserStats) {
		u := ds.UserStats[id]
		fmt.Fprintf(&b, "- %s: %d messages", id, u.Messages)
		if u.ToolCalls > 0 {
			fmt.Fprintf(&b, ", %d tool calls", u.ToolCalls)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
