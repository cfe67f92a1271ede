package gateway

import (
	"fmt"
	"strings"
)

func zipOrDefault(zipCode, fallback string) string {
	if zipCode == "" {
		return fallback
	}
	return zipCode
}

func suggestionsPrompt(zipCode string) string {
	zip := zipOrDefault(zipCode, "Unknown (assume national average)")
	return fmt.Sprintf(`You are a high-end real estate appraiser and interior designer.
Analyze the attached image of a home located in Zip Code: %s.

Identify 3-5 specific renovation projects.
CRITICAL: Do NOT use generic data. You must ESTIMATE the cost and ROI based on:
1. The specific condition seen in the photo (e.g., if it's already nice, ROI is lower).
2. The location (Zip Code: %s). Expensive areas have higher labor costs but potentially higher ROI for luxury finishes.
3. Current market trends.

For each suggestion, provide:
- name: A short title (e.g. "Modernize Vanity").
- description: Specific advice including colors/materials (e.g. "Replace with a floating teak vanity...").
- avgCost: Your best estimated cost in USD for this specific zip code.
- roi: The estimated Return on Investment percentage (e.g. 120 for 20%% profit).
- category: One of 'Curb Appeal', 'Kitchen', 'Bathroom', 'Interior', 'Outdoor', 'General'.
- rationale: A one sentence explanation of WHY this ROI is accurate for this specific home/location.

Return JSON.`, zip, zip)
}

func summaryPrompt(zipCode string) string {
	zip := zipOrDefault(zipCode, "N/A")
	return fmt.Sprintf("Analyze this image of a home in Zip Code %s. Provide a concise, 2-3 sentence strategic summary. Mention the architectural style and the single most profitable move they could make given the location context.", zip)
}

func productsPrompt(query, zipCode string) string {
	zip := zipOrDefault(zipCode, "US National")
	return fmt.Sprintf(`Find 3 specific, purchasable product recommendations for this renovation task: %q.
Context: User is in Zip Code: %s.

CRITICAL OUTPUT FORMAT:
Provide a list. For each item, use EXACTLY this pattern (do not use markdown tables, just text lines):

Product: [Product Name]
Price: [Price with currency symbol]
Store: [Retailer Name]

Example:
Product: Kohler Highline Toilet
Price: $250
Store: Home Depot

Be concise. No intro text.`, query, zip)
}

func planPrompt(projectNames []string) string {
	return fmt.Sprintf(`You are a master construction project manager.
I have a list of renovation projects: [%s].

Create a logical step-by-step execution plan.
Rules:
1. Group them into logical phases (e.g. "Prep Work", "Exterior", "Finishing").
2. Order them correctly (e.g. Flooring comes after Painting usually, but Demo comes first).
3. Estimate duration.

Return JSON.`, strings.Join(projectNames, ", "))
}

const documentPrompt = `Analyze this receipt or contractor bid.
1. Extract the TOTAL cost.
2. Summarize what was purchased/quoted in 1 short sentence.
3. Suggest a generic category name for this work (e.g., "Plumbing", "Paint").

Return JSON.`

const stylePrompt = `Analyze the interior design style in this video frame. Extract the "Vibe". Return a comma-separated string of 5 keywords describing colors, materials, and atmosphere.`

func feedPrompt(styleHint string) string {
	contextPrompt := ""
	if styleHint != "" {
		contextPrompt = fmt.Sprintf("Also, incorporate this specific style direction from a user uploaded video: %q. ", styleHint)
	}
	return fmt.Sprintf("Analyze these images. %sGenerate a JSON object with themes, styleSummary, and initialFeed (8 items, mix of image/video prompts).", contextPrompt)
}

func editPrompt(prompt string) string {
	return "Photorealistic edit. Maintain exact lighting and camera angle. " + prompt
}
