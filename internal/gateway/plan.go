package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kalambet/renovo/internal/gemini"
)

// PlanPhase is one ordered phase of a renovation plan. Tasks reference
// project names; cross-references are not verified here.
type PlanPhase struct {
	PhaseName   string   `json:"phaseName"`
	Tasks       []string `json:"tasks"`
	Duration    string   `json:"duration"`
	Description string   `json:"description"`
}

// Plan is an ordered execution plan over the saved projects.
type Plan struct {
	Phases        []PlanPhase `json:"phases"`
	TotalDuration string      `json:"totalDuration"`
	Advice        string      `json:"advice"`
}

// ProjectRef is the slice of a saved project the planner needs.
type ProjectRef struct {
	Name     string
	Category string
}

// PlanProjects sequences the given projects into phases.
func (g *Gateway) PlanProjects(ctx context.Context, projects []ProjectRef) (Plan, error) {
	if len(projects) == 0 {
		return Plan{}, fmt.Errorf("%w: no projects to plan", ErrModelOutput)
	}

	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = fmt.Sprintf("%s (%s)", p.Name, p.Category)
	}

	result, err := g.provider.GenerateContent(ctx, gemini.GenerateRequest{
		Model:          reasoningModel,
		Parts:          []gemini.Part{gemini.TextPart(planPrompt(names))},
		ResponseSchema: planSchema(),
	})
	if err != nil {
		return Plan{}, fmt.Errorf("requesting plan: %w", err)
	}

	var plan Plan
	if err := json.Unmarshal([]byte(result.Text), &plan); err != nil {
		return Plan{}, fmt.Errorf("%w: %v", ErrModelOutput, err)
	}
	if len(plan.Phases) == 0 {
		return Plan{}, fmt.Errorf("%w: plan has no phases", ErrModelOutput)
	}
	return plan, nil
}

func planSchema() *gemini.Schema {
	return &gemini.Schema{
		Type: "object",
		Properties: map[string]*gemini.Schema{
			"phases": {
				Type: "array",
				Items: &gemini.Schema{
					Type: "object",
					Properties: map[string]*gemini.Schema{
						"phaseName":   {Type: "string"},
						"tasks":       {Type: "array", Items: &gemini.Schema{Type: "string"}},
						"duration":    {Type: "string"},
						"description": {Type: "string"},
					},
					Required: []string{"phaseName", "tasks", "duration", "description"},
				},
			},
			"totalDuration": {Type: "string"},
			"advice":        {Type: "string"},
		},
		Required: []string{"phases", "totalDuration", "advice"},
	}
}
