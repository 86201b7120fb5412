package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quietgrove/intently/internal/models"
)

const (
	systemRankByMood = "You are a helpful AI that recommends tasks based on mood and energy. Respond with JSON only."

	systemReschedule = "You are a productivity assistant that helps reschedule commitments based on user mood and energy levels. Provide concise, actionable suggestions."

	systemBulkReschedule = "You are a productivity assistant. Analyze commitments and provide scheduling recommendations. Always respond with valid JSON only, no markdown formatting or code blocks."

	systemAutoReschedule = "You are an AI scheduling assistant. Respond with JSON only."

	systemPriority = "You are an AI assistant that analyzes task priority. Respond with JSON only."
)

// moodSnapshot is the compact mood history representation embedded in prompts
type moodSnapshot struct {
	Mood   models.Mood `json:"mood"`
	Energy int         `json:"energy"`
}

func moodHistoryJSON(logs []*models.MoodLog) string {
	snaps := make([]moodSnapshot, 0, len(logs))
	for _, l := range logs {
		snaps = append(snaps, moodSnapshot{Mood: l.Mood, Energy: l.EnergyLevel})
	}
	data, err := json.Marshal(snaps)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func buildRankByMoodPrompt(mood models.Mood, energyLevel int, today []*models.Commitment) string {
	var b strings.Builder
	b.WriteString("Based on the user's current mood and energy, recommend which commitments to tackle now.\n\n")
	fmt.Fprintf(&b, "User State:\n- Mood: %s\n- Energy Level: %d/%d\n\n", mood, energyLevel, models.MaxEnergyLevel)
	b.WriteString("Available Commitments:\n")
	for i, c := range today {
		fmt.Fprintf(&b, "%d. %q (due at %s)\n", i+1, c.Title, c.DueTime)
	}
	b.WriteString("\nProvide recommendations with reasoning. Consider:\n")
	b.WriteString("- High energy/happy: Complex or challenging tasks\n")
	b.WriteString("- Low energy/tired: Simple, routine tasks\n")
	b.WriteString("- Stressed: Quick wins or calming activities\n")
	b.WriteString("- Match task complexity to energy levels")
	return b.String()
}

func buildReschedulePrompt(c *models.Commitment, mood models.Mood, energyLevel int, recentMoods []*models.MoodLog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current mood: %s, Energy level: %d.\n", mood, energyLevel)
	fmt.Fprintf(&b, "Commitment: %q scheduled for %s at %s.\n", c.Title, c.DueDate, c.DueTime)
	fmt.Fprintf(&b, "Recent mood patterns: %s.\n\n", moodHistoryJSON(recentMoods))
	b.WriteString("Should this task be rescheduled? If yes, suggest the best time based on the user's energy patterns. ")
	b.WriteString(`Respond with JSON: {"shouldReschedule": boolean, "suggestion": "your suggestion", "recommendedTime": "HH:MM" or null}`)
	return b.String()
}

func buildBulkReschedulePrompt(pending []*models.Commitment, mood models.Mood, energyLevel int, recentMoods []*models.MoodLog) string {
	type entry struct {
		ID      string `json:"commitmentId"`
		Title   string `json:"title"`
		DueDate string `json:"dueDate"`
		DueTime string `json:"dueTime"`
	}
	entries := make([]entry, 0, len(pending))
	for _, c := range pending {
		entries = append(entries, entry{ID: c.ID.String(), Title: c.Title, DueDate: c.DueDate, DueTime: c.DueTime})
	}
	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		entriesJSON = []byte("[]")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current mood: %s, Energy level: %d.\n", mood, energyLevel)
	fmt.Fprintf(&b, "Recent mood patterns: %s.\n\n", moodHistoryJSON(recentMoods))
	fmt.Fprintf(&b, "Commitments to analyze: %s\n\n", entriesJSON)
	b.WriteString("Analyze each commitment and determine:\n")
	b.WriteString("1. If it should be rescheduled based on current mood/energy\n")
	b.WriteString("2. Best time considering task type, priority, and the user's energy patterns\n")
	b.WriteString("3. Provide actionable reasoning\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- High energy: Schedule demanding tasks (work, exercise, learning)\n")
	b.WriteString("- Low energy: Schedule light tasks (admin, planning, rest)\n")
	b.WriteString("- Stressed: Avoid social events, prioritize stress-relief activities\n")
	b.WriteString("- Happy: Good time for creative or social tasks\n")
	b.WriteString("- Consider task priority and deadlines\n\n")
	b.WriteString("Respond with ONLY this JSON array format (no markdown, no code blocks):\n")
	b.WriteString(`[{"commitmentId": "id", "commitmentTitle": "title", "currentSchedule": "YYYY-MM-DD HH:MM", "shouldReschedule": true/false, "suggestedDate": "YYYY-MM-DD" or null, "suggestedTime": "HH:MM" or null, "reason": "specific explanation matching their mood and energy"}]`)
	return b.String()
}

func buildAutoReschedulePrompt(c *models.Commitment, pattern *models.BehaviorPattern, busySlots []string) string {
	var b strings.Builder
	b.WriteString("Suggest a new time for this skipped commitment.\n\n")
	fmt.Fprintf(&b, "Commitment: %q\n", c.Title)
	fmt.Fprintf(&b, "Original: %s at %s\n\n", c.DueDate, c.DueTime)

	b.WriteString("User Patterns:\n")
	if pattern != nil {
		fmt.Fprintf(&b, "- Typical completion hour: %d\n", pattern.TypicalCompletionHour)
		fmt.Fprintf(&b, "- Completion rate: %.0f%%\n", pattern.AvgCompletionRate*100)
	} else {
		b.WriteString("- Typical completion hour: Unknown\n")
		b.WriteString("- Completion rate: Unknown\n")
	}

	slots := "None"
	if len(busySlots) > 0 {
		slots = strings.Join(busySlots, ", ")
	}
	fmt.Fprintf(&b, "\nBusy slots in next 7 days: %s\n\n", slots)

	b.WriteString("Suggest:\n")
	b.WriteString("1. New date (YYYY-MM-DD format, within next 7 days)\n")
	b.WriteString("2. New time (HH:MM format, prefer user's typical hour)\n")
	b.WriteString("3. Reasoning (max 100 words)\n\n")
	b.WriteString("Avoid busy slots and consider the user's patterns.")
	return b.String()
}

func buildPriorityPrompt(c *models.Commitment, history []*models.Commitment) string {
	completionRate := 0
	if len(history) > 0 {
		done := 0
		for _, h := range history {
			if h.Completed {
				done++
			}
		}
		completionRate = done * 100 / len(history)
	}

	recent := "None"
	if len(history) > 0 {
		titles := make([]string, 0, 5)
		for _, h := range history {
			titles = append(titles, h.Title)
			if len(titles) == 5 {
				break
			}
		}
		recent = strings.Join(titles, ", ")
	}

	var b strings.Builder
	b.WriteString("Analyze this commitment and assign a priority score and urgency level.\n\n")
	b.WriteString("Commitment Details:\n")
	fmt.Fprintf(&b, "- Title: %q\n", c.Title)
	fmt.Fprintf(&b, "- Due Date: %s\n", c.DueDate)
	fmt.Fprintf(&b, "- Due Time: %s\n\n", c.DueTime)
	b.WriteString("User Context:\n")
	fmt.Fprintf(&b, "- Recent completion rate: %d%%\n", completionRate)
	fmt.Fprintf(&b, "- Recent commitments: %s\n\n", recent)
	b.WriteString("Provide:\n")
	b.WriteString("1. Priority score (0.0-1.0, where 1.0 is highest priority)\n")
	b.WriteString("2. Urgency level (low/medium/high/critical)\n")
	b.WriteString("3. Brief reasoning (max 50 words)\n\n")
	b.WriteString("Consider: deadline proximity, task complexity indicated by title, the user's completion patterns.")
	return b.String()
}

// Tool schemas forced on the model for the structured variants.

func rankByMoodTool() *ToolSchema {
	return &ToolSchema{
		Name:        "recommend_tasks",
		Description: "Recommend tasks based on mood",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"recommended_order": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Task titles in recommended order",
				},
				"reasoning": map[string]any{"type": "string", "maxLength": 200},
			},
			"required":             []string{"recommended_order", "reasoning"},
			"additionalProperties": false,
		},
	}
}

func autoRescheduleTool() *ToolSchema {
	return &ToolSchema{
		Name:        "suggest_reschedule",
		Description: "Suggest a new time for the commitment",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"suggested_date": map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
				"suggested_time": map[string]any{"type": "string", "pattern": `^\d{2}:\d{2}$`},
				"reasoning":      map[string]any{"type": "string", "maxLength": 200},
			},
			"required":             []string{"suggested_date", "suggested_time", "reasoning"},
			"additionalProperties": false,
		},
	}
}

func priorityTool() *ToolSchema {
	return &ToolSchema{
		Name:        "set_priority",
		Description: "Set priority information for a commitment",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"priority_score": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"urgency_level":  map[string]any{"type": "string", "enum": []string{"low", "medium", "high", "critical"}},
				"reasoning":      map[string]any{"type": "string", "maxLength": 150},
			},
			"required":             []string{"priority_score", "urgency_level", "reasoning"},
			"additionalProperties": false,
		},
	}
}
