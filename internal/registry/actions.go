package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/alexjbarnes/basecamp-mcp/internal/basecamp"
)

// Default returns the curated action set. It covers the task workflow end
// to end: find projects and people, read boards and cards, create and move
// tasks, comment, and tick steps. Everything else goes through the generic
// api_request surface instead of growing this list.
func Default() *Registry {
	return New([]*Action{
		projectsList(),
		cardTablesGet(),
		cardTablesGetCard(),
		cardTablesGetEnriched(),
		cardTablesCreateTask(),
		cardTablesUpdateCard(),
		cardTablesMoveCard(),
		peopleList(),
		commentsCreate(),
		stepsComplete(),
	})
}

func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func numberSchema() *jsonschema.Schema { return &jsonschema.Schema{Type: "number"} }
func stringSchema() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} }
func boolSchema() *jsonschema.Schema   { return &jsonschema.Schema{Type: "boolean"} }

func decodeArgs[T any](args json.RawMessage) (T, error) {
	var v T
	if len(args) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(args, &v); err != nil {
		return v, fmt.Errorf("decoding arguments: %w", err)
	}

	return v, nil
}

func projectsList() *Action {
	return &Action{
		Name:        "projects.list",
		Description: "List projects (optional status=archived|trashed, page)",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"status": stringSchema(),
			"page":   numberSchema(),
		}),
		Handler: func(ctx context.Context, client *basecamp.Client, args json.RawMessage) (any, error) {
			in, err := decodeArgs[struct {
				Status string `json:"status"`
				Page   int    `json:"page"`
			}](args)
			if err != nil {
				return nil, err
			}

			return client.Projects().List(ctx, basecamp.ListProjectsParams{Status: in.Status, Page: in.Page})
		},
	}
}

func cardTablesGet() *Action {
	return &Action{
		Name:        "card_tables.get",
		Description: "Get a card table (kanban board) by ID with all columns and cards",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"projectId": numberSchema(),
			"tableId":   numberSchema(),
		}, "projectId", "tableId"),
		Handler: func(ctx context.Context, client *basecamp.Client, args json.RawMessage) (any, error) {
			in, err := decodeArgs[struct {
				ProjectID int64 `json:"projectId"`
				TableID   int64 `json:"tableId"`
			}](args)
			if err != nil {
				return nil, err
			}

			return client.CardTables().Get(ctx, in.ProjectID, in.TableID)
		},
	}
}

func cardTablesGetCard() *Action {
	return &Action{
		Name:        "card_tables.get_card",
		Description: "Get a card by ID with basic info",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"projectId": numberSchema(),
			"cardId":    numberSchema(),
		}, "projectId", "cardId"),
		Handler: func(ctx context.Context, client *basecamp.Client, args json.RawMessage) (any, error) {
			in, err := decodeArgs[struct {
				ProjectID int64 `json:"projectId"`
				CardID    int64 `json:"cardId"`
			}](args)
			if err != nil {
				return nil, err
			}

			return client.CardTables().GetCard(ctx, in.ProjectID, in.CardID)
		},
	}
}

func cardTablesGetEnriched() *Action {
	formatSchema := stringSchema()
	formatSchema.Enum = []any{"json", "text"}
	formatSchema.Description = "Output format: json or text (default: json)"

	return &Action{
		Name:        "card_tables.get_enriched",
		Description: "Get an enriched card with comments, creator info, and visual attachments. Best for understanding full context of a task.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"projectId": numberSchema(),
			"cardId":    numberSchema(),
			"format":    formatSchema,
		}, "projectId", "cardId"),
		Handler: func(ctx context.Context, client *basecamp.Client, args json.RawMessage) (any, error) {
			in, err := decodeArgs[struct {
				ProjectID int64  `json:"projectId"`
				CardID    int64  `json:"cardId"`
				Format    string `json:"format"`
			}](args)
			if err != nil {
				return nil, err
			}

			enriched, err := client.GetEnrichedCard(ctx, in.ProjectID, in.CardID, basecamp.EnrichOptions{})
			if err != nil {
				return nil, err
			}
			if in.Format == "text" {
				return basecamp.FormatEnrichedCardAsText(enriched), nil
			}

			return enriched, nil
		},
	}
}

func cardTablesCreateTask() *Action {
	stepItem := objectSchema(map[string]*jsonschema.Schema{
		"title":     stringSchema(),
		"due_on":    stringSchema(),
		"assignees": stringSchema(),
	}, "title")

	return &Action{
		Name:        "card_tables.create_task",
		Description: "Create a complete task (card with description and steps) in one operation. Recommended way to create tasks.",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"projectId":    numberSchema(),
			"columnId":     numberSchema(),
			"title":        stringSchema(),
			"content":      stringSchema(),
			"due_on":       stringSchema(),
			"assignee_ids": {Type: "array", Items: numberSchema()},
			"notify":       boolSchema(),
			"steps":        {Type: "array", Items: stepItem},
		}, "projectId", "columnId", "title", "content"),
		Handler: func(ctx context.Context, client *basecamp.Client, args json.RawMessage) (any, error) {
			in, err := decodeArgs[struct {
				ProjectID   int64               `json:"projectId"`
				ColumnID    int64               `json:"columnId"`
				Title       string              `json:"title"`
				Content     string              `json:"content"`
				DueOn       *string             `json:"due_on"`
				AssigneeIDs []int64             `json:"assignee_ids"`
				Notify      bool                `json:"notify"`
				Steps       []basecamp.StepSpec `json:"steps"`
			}](args)
			if err != nil {
				return nil, err
			}

			body := basecamp.CardBody{
				Title:       in.Title,
				Content:     in.Content,
				DueOn:       in.DueOn,
				AssigneeIDs: in.AssigneeIDs,
				Notify:      in.Notify,
			}

			return client.CardTables().CreateCardWithSteps(ctx, in.ProjectID, in.ColumnID, body, in.Steps)
		},
	}
}

func cardTablesUpdateCard() *Action {
	return &Action{
		Name:        "card_tables.update_card",
		Description: "Update a card (title, content, due_on, assignees)",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"projectId":    numberSchema(),
			"cardId":       numberSchema(),
			"title":        stringSchema(),
			"content":      stringSchema(),
			"due_on":       stringSchema(),
			"assignee_ids": {Type: "array", Items: numberSchema()},
		}, "projectId", "cardId"),
		Handler: func(ctx context.Context, client *basecamp.Client, args json.RawMessage) (any, error) {
			in, err := decodeArgs[struct {
				ProjectID   int64   `json:"projectId"`
				CardID      int64   `json:"cardId"`
				Title       string  `json:"title"`
				Content     string  `json:"content"`
				DueOn       *string `json:"due_on"`
				AssigneeIDs []int64 `json:"assignee_ids"`
			}](args)
			if err != nil {
				return nil, err
			}

			body := basecamp.CardBody{
				Title:       in.Title,
				Content:     in.Content,
				DueOn:       in.DueOn,
				AssigneeIDs: in.AssigneeIDs,
			}

			return client.CardTables().UpdateCard(ctx, in.ProjectID, in.CardID, body)
		},
	}
}

func cardTablesMoveCard() *Action {
	return &Action{
		Name:        "card_tables.move_card",
		Description: `Move a card to another column (e.g., from "To Do" to "Done")`,
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"projectId": numberSchema(),
			"cardId":    numberSchema(),
			"columnId":  numberSchema(),
		}, "projectId", "cardId", "columnId"),
		Handler: func(ctx context.Context, client *basecamp.Client, args json.RawMessage) (any, error) {
			in, err := decodeArgs[struct {
				ProjectID int64 `json:"projectId"`
				CardID    int64 `json:"cardId"`
				ColumnID  int64 `json:"columnId"`
			}](args)
			if err != nil {
				return nil, err
			}

			if err := client.CardTables().MoveCard(ctx, in.ProjectID, in.CardID, in.ColumnID); err != nil {
				return nil, err
			}

			return map[string]any{"moved": true, "cardId": in.CardID, "columnId": in.ColumnID}, nil
		},
	}
}

func peopleList() *Action {
	return &Action{
		Name:        "people.list",
		Description: "List all people in the Basecamp account (for assigning tasks)",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{}),
		Handler: func(ctx context.Context, client *basecamp.Client, _ json.RawMessage) (any, error) {
			return client.People().List(ctx)
		},
	}
}

func commentsCreate() *Action {
	return &Action{
		Name:        "comments.create",
		Description: "Add a comment to a card or other recording",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"projectId":   numberSchema(),
			"recordingId": numberSchema(),
			"content":     stringSchema(),
		}, "projectId", "recordingId", "content"),
		Handler: func(ctx context.Context, client *basecamp.Client, args json.RawMessage) (any, error) {
			in, err := decodeArgs[struct {
				ProjectID   int64  `json:"projectId"`
				RecordingID int64  `json:"recordingId"`
				Content     string `json:"content"`
			}](args)
			if err != nil {
				return nil, err
			}

			return client.Comments().Create(ctx, in.ProjectID, in.RecordingID, in.Content)
		},
	}
}

func stepsComplete() *Action {
	completionSchema := stringSchema()
	completionSchema.Enum = []any{"on", "off"}

	return &Action{
		Name:        "steps.complete",
		Description: "Mark a step as completed or uncompleted",
		InputSchema: objectSchema(map[string]*jsonschema.Schema{
			"projectId":  numberSchema(),
			"stepId":     numberSchema(),
			"completion": completionSchema,
		}, "projectId", "stepId", "completion"),
		Handler: func(ctx context.Context, client *basecamp.Client, args json.RawMessage) (any, error) {
			in, err := decodeArgs[struct {
				ProjectID  int64  `json:"projectId"`
				StepID     int64  `json:"stepId"`
				Completion string `json:"completion"`
			}](args)
			if err != nil {
				return nil, err
			}

			return client.Steps().Complete(ctx, in.ProjectID, in.StepID, in.Completion)
		},
	}
}
