package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"

	"farm-manager/internal/core"
)

// TaskProposal is the structured plan the assistant produces from a
// free-form work description. It is only a proposal: the caller reviews it
// and creates the task through TaskService, which re-validates everything.
type TaskProposal struct {
	PlotName    string  `json:"plot_name" jsonschema_description:"Name of the plot the work targets, exactly as listed"`
	Category    string  `json:"category" jsonschema_description:"Task category identifier from the provided catalog"`
	TaskType    string  `json:"task_type" jsonschema_description:"Task type identifier valid for the chosen category"`
	PlanDate    string  `json:"plan_date" jsonschema_description:"Planned date in YYYY-MM-DD format"`
	Description string  `json:"description" jsonschema_description:"Short description of the work"`
	Confidence  float64 `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
	Reasoning   string  `json:"reasoning" jsonschema_description:"Why this category and type were chosen"`
}

// Validate checks the proposal against the closed task catalog.
func (p *TaskProposal) Validate() error {
	if p.PlotName == "" {
		return fmt.Errorf("proposal names no plot")
	}
	category := core.TaskCategory(p.Category)
	if !core.ValidTaskType(category, p.TaskType) {
		return fmt.Errorf("proposal task type %q is not valid for category %q", p.TaskType, p.Category)
	}
	if p.PlanDate == "" {
		return fmt.Errorf("proposal has no plan date")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range", p.Confidence)
	}
	return nil
}

type AgentService interface {
	ProposeTask(ctx context.Context, naturalLanguage string, plotNames []string) (*TaskProposal, error)
}

type Agent struct {
	client *openai.Client
}

func NewAgent(apiKey string) *Agent {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Agent{client: &client}
}

// ProposeTask interprets a work description ("need to spray the north field
// against weeds next Tuesday") into a structured field-task proposal.
func (a *Agent) ProposeTask(ctx context.Context, naturalLanguage string, plotNames []string) (*TaskProposal, error) {
	prompt := fmt.Sprintf(`You are an experienced farm operations planner.
Your goal is to interpret a piece of field work described in natural language and propose a structured field task.
Rules:
1. plot_name MUST be one of the listed plots, verbatim.
2. category and task_type MUST come from the catalog below; task_type must belong to the chosen category.
3. plan_date is YYYY-MM-DD; resolve relative dates against today.
4. Provide a confidence score (0.0-1.0).
5. Explain your reasoning.

Plots:
%s

Task catalog:
%s

Work description: %s`, formatPlots(plotNames), formatCatalog(), naturalLanguage)

	// Dynamically generate the JSON schema from the Go struct
	schemaStruct := generateSchema()
	schemaJSON, err := json.Marshal(schemaStruct)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(shared.ChatModelGPT4o),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "field_task_proposal",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A proposal for a planned field task"),
				},
			},
		},
	}

	resp, err := a.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var proposal TaskProposal
	if err := json.Unmarshal([]byte(content), &proposal); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}

	if err := proposal.Validate(); err != nil {
		return nil, fmt.Errorf("proposal validation failed: %w", err)
	}
	return &proposal, nil
}

func formatPlots(names []string) string {
	out := ""
	for _, n := range names {
		out += "- " + n + "\n"
	}
	if out == "" {
		out = "(none)\n"
	}
	return out
}

func formatCatalog() string {
	out := ""
	for _, category := range core.Categories() {
		out += fmt.Sprintf("- %s: ", category)
		for i, t := range core.TaskTypes(category) {
			if i > 0 {
				out += ", "
			}
			out += t
		}
		out += "\n"
	}
	return out
}

func generateSchema() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v TaskProposal
	return reflector.Reflect(v)
}
