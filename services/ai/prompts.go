package ai

import (
	"fmt"
	"strings"

	"github.com/briefstack/maildigest/internal/config"
	"github.com/briefstack/maildigest/internal/enum"
	"github.com/briefstack/maildigest/internal/models"
)

// Temperatures per operation: classification wants determinism, the angle
// sentences can afford a little variety.
const (
	TemperatureSummary  = 0.2
	TemperatureCategory = 0.1
	TemperatureTags     = 0.2
	TemperatureAngles   = 0.25
)

func categoryNames() string {
	names := make([]string, len(enum.Categories))
	for i, c := range enum.Categories {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}

func itemHeader(item *models.ContentItem) string {
	return fmt.Sprintf("Subject: %s\nFrom: %s\nDate: %s\n", item.Subject, item.Sender, item.Date)
}

func BuildSummaryPrompt(item *models.ContentItem, bodyText string) string {
	return "Summarize the email in 2-4 sentences as markdown. " +
		"Focus on key facts and implications.\n\n" +
		itemHeader(item) +
		"Body:\n" + bodyText + "\n"
}

func BuildCategoryPrompt(item *models.ContentItem, bodyText string) string {
	return "Classify the email into ONE category from this list:\n" +
		categoryNames() +
		"\nReturn JSON: {\"category\": \"...\"}.\n\n" +
		itemHeader(item) +
		"Body:\n" + bodyText + "\n"
}

func BuildTopicTagsPrompt(item *models.ContentItem, bodyText string) string {
	return "Extract 3-6 concise topic tags as a JSON array of strings. " +
		"Include a domain tag from this list if relevant: " +
		strings.Join(enum.DomainTags, ", ") + ".\n\n" +
		itemHeader(item) +
		"Body:\n" + bodyText + "\n"
}

func BuildRoleAnglesPrompt(item *models.ContentItem, summaryMD string, category string, topicTags []string, role *config.Role) string {
	objectives := "Provide actionable insights."
	if len(role.Objectives) > 0 {
		objectives = strings.Join(role.Objectives, "; ")
	}
	tags := "None"
	if len(topicTags) > 0 {
		tags = strings.Join(topicTags, ", ")
	}

	return "You are generating concise insights for a role-based digest.\n" +
		fmt.Sprintf("Role: %s\n", role.Name) +
		fmt.Sprintf("Role objectives: %s\n", objectives) +
		fmt.Sprintf("Category: %s\n", category) +
		fmt.Sprintf("Topic tags: %s\n", tags) +
		"Write TWO concise sentences as JSON with keys:\n" +
		"\"startup_angle\" and \"role_angle\". Keep each to one sentence.\n\n" +
		fmt.Sprintf("Subject: %s\n", item.Subject) +
		"Summary:\n" + summaryMD + "\n"
}
