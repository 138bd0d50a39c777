package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/briefstack/maildigest/internal/enum"
)

// Providers are asked for JSON but routinely wrap it in prose or code
// fences. jsonFragment finds the outermost object or array so the payload
// survives the chatter.
var jsonFragment = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)

// DecodeLooseJSON unmarshals provider output into v, first as-is, then from
// the first JSON fragment found in the text.
func DecodeLooseJSON(content string, v interface{}) error {
	content = strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(content), v); err == nil {
		return nil
	}
	match := jsonFragment.FindString(content)
	if match == "" {
		return errors.New("no json payload found")
	}
	return json.Unmarshal([]byte(match), v)
}

// ParseCategory extracts a category from provider output and coerces it into
// the closed vocabulary. Expected shape is {"category": "..."}; a bare
// string or the first line of prose are accepted as fallbacks.
func ParseCategory(content string) enum.Category {
	var payload struct {
		Category string `json:"category"`
	}
	if err := DecodeLooseJSON(content, &payload); err == nil && payload.Category != "" {
		return enum.DecodeCategory(payload.Category)
	}

	var bare string
	if err := DecodeLooseJSON(content, &bare); err == nil && bare != "" {
		return enum.DecodeCategory(bare)
	}

	if lines := strings.Split(strings.TrimSpace(content), "\n"); len(lines) > 0 {
		return enum.DecodeCategory(lines[0])
	}
	return enum.CategoryOther
}

// ParseTopicTags extracts a tag list from provider output. Accepts a JSON
// array, {"tags": [...]}, {"topic_tags": [...]}, or a comma-separated
// string. Unparseable responses coerce to an empty list, never an error.
func ParseTopicTags(content string) []string {
	var asList []string
	if err := DecodeLooseJSON(content, &asList); err == nil {
		return cleanTags(asList)
	}

	var asObject struct {
		Tags      []string `json:"tags"`
		TopicTags []string `json:"topic_tags"`
	}
	if err := DecodeLooseJSON(content, &asObject); err == nil {
		if len(asObject.Tags) > 0 {
			return cleanTags(asObject.Tags)
		}
		if len(asObject.TopicTags) > 0 {
			return cleanTags(asObject.TopicTags)
		}
	}

	if strings.Contains(content, ",") && !strings.ContainsAny(content, "{}[]") {
		return cleanTags(strings.Split(content, ","))
	}
	return []string{}
}

func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

// ParseRoleAngles extracts the two angle sentences. JSON first, then a
// line scan for "startup angle:"/"role angle:" labels, then templated
// defaults so the caller always gets two usable sentences.
func ParseRoleAngles(content, roleName string) (string, string) {
	var payload struct {
		StartupAngle string `json:"startup_angle"`
		RoleAngle    string `json:"role_angle"`
	}
	_ = DecodeLooseJSON(content, &payload)
	startup := strings.TrimSpace(payload.StartupAngle)
	roleAngle := strings.TrimSpace(payload.RoleAngle)

	if startup == "" || roleAngle == "" {
		for _, line := range strings.Split(content, "\n") {
			lowered := strings.ToLower(line)
			if startup == "" && strings.Contains(lowered, "startup angle") {
				startup = valueAfterColon(line)
			}
			if roleAngle == "" && (strings.Contains(lowered, "role angle") ||
				strings.Contains(lowered, strings.ToLower(roleName)+" angle")) {
				roleAngle = valueAfterColon(line)
			}
		}
	}

	if startup == "" {
		startup = "Monitor for implications that inform startup strategy."
	}
	if roleAngle == "" {
		roleAngle = "Assess impact on " + roleName + " priorities and execution."
	}
	return startup, roleAngle
}

func valueAfterColon(line string) string {
	if idx := strings.LastIndex(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[idx+1:])
	}
	return strings.TrimSpace(line)
}
