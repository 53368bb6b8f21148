package llm

import (
	"fmt"
	"strings"

	"github.com/tableflow/llm-backend/internal/models"
)

func classifySystemPrompt() string {
	labels := make([]string, 0, len(models.Intents()))
	for _, in := range models.Intents() {
		labels = append(labels, string(in))
	}
	return strings.Join([]string{
		"You are an intent classification system. Classify the user's request into one of these categories:",
		strings.Join(labels, ", "),
		"",
		"Return only the category name, nothing else.",
	}, "\n")
}

func processSystemPrompt(intent models.Intent) string {
	switch intent {
	case models.IntentFiltering:
		return strings.Join([]string{
			"You are a data filtering assistant. Based on the user's request, filter the provided table data.",
			"Keep only the rows that match the request; do not invent rows or fields.",
			"",
			outputContract("FILTERED_DATA", "brief explanation of the filtering applied"),
		}, "\n")
	case models.IntentAnalysis:
		return strings.Join([]string{
			"You are a data analysis assistant. Based on the user's request, analyze the provided table data.",
			"Return the original rows with any additional analysis fields, and provide insights.",
			"",
			outputContract("ANALYZED_DATA", "brief explanation of the analysis performed"),
		}, "\n")
	default:
		return strings.Join([]string{
			"You are a data transformation assistant. Based on the user's request, modify the provided table data.",
			"Fulfil the request by adding or changing key-value pairs on each row object.",
			"Every transformed row must include a \"reasoning\" field explaining the change.",
			"",
			outputContract("TRANSFORMED_DATA", "brief explanation of the transformations applied"),
		}, "\n")
	}
}

func outputContract(dataKey, explanation string) string {
	return strings.Join([]string{
		"Respond with a single JSON object and nothing else:",
		"{",
		fmt.Sprintf("  %q: [the resulting JSON array of row objects],", dataKey),
		fmt.Sprintf("  \"EXPLANATION\": %q", explanation),
		"}",
		"Do not add text before or after the JSON object.",
	}, "\n")
}

func processUserPrompt(userPrompt, tableJSON string) string {
	return fmt.Sprintf("User request: %s\n\nTable data: %s", userPrompt, tableJSON)
}
