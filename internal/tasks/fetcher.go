// Package tasks exports open Basecamp cards as a task plan on disk. The
// CLI fetch command drives it: look a project up by name, walk its kanban
// board, and write tasks.json plus a markdown checklist.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/alexjbarnes/basecamp-mcp/internal/basecamp"
)

const defaultOutputDir = ".basecamp"

// FetchOptions narrow what the fetcher collects and where it writes.
type FetchOptions struct {
	// TableName selects a specific kanban board by title. Empty picks the
	// first enabled board.
	TableName string

	// ColumnName restricts collection to one column by title.
	ColumnName string

	// OutputPath overrides the tasks.json location.
	OutputPath string

	// OpenBrowser permits interactive OAuth if no usable token exists.
	OpenBrowser bool
}

// PlanStep is one open item in the exported plan.
type PlanStep struct {
	Step   string `json:"step"`
	Status string `json:"status"`
}

// Result describes what a fetch wrote.
type Result struct {
	ProjectName  string
	Steps        []PlanStep
	JSONPath     string
	MarkdownPath string
}

// Fetcher collects cards and writes plan files.
type Fetcher struct {
	client *basecamp.Client
	logger *slog.Logger
	outDir string
}

// NewFetcher builds a fetcher writing under outDir, or .basecamp when empty.
func NewFetcher(client *basecamp.Client, logger *slog.Logger, outDir string) *Fetcher {
	if outDir == "" {
		outDir = defaultOutputDir
	}

	return &Fetcher{client: client, logger: logger, outDir: outDir}
}

// Fetch finds the named project, collects its open cards, and writes the
// plan files. The project is matched case-insensitively against active
// projects first, then archived ones.
func (f *Fetcher) Fetch(ctx context.Context, projectName string, opts FetchOptions) (*Result, error) {
	if opts.OpenBrowser {
		if _, err := f.client.Flow().GetAccessToken(ctx, true); err != nil {
			return nil, err
		}
	}

	f.logger.Info("looking up project", slog.String("name", projectName))
	project, err := f.findProjectByName(ctx, projectName)
	if err != nil {
		return nil, err
	}
	f.logger.Info("found project",
		slog.Int64("id", project.ID),
		slog.String("name", project.Name))

	var plan []PlanStep

	board := selectKanbanBoard(project.Dock, opts.TableName)
	if opts.TableName != "" && board == nil {
		return nil, fmt.Errorf("kanban board not found: %s", opts.TableName)
	}

	if board != nil {
		cards, err := f.collectCards(ctx, project.ID, board.ID, opts.ColumnName)
		if err != nil {
			return nil, err
		}
		plan = append(plan, cards...)
	}

	f.logger.Info("collected open items", slog.Int("count", len(plan)))

	result, err := f.write(project.Name, plan, opts.OutputPath)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (f *Fetcher) findProjectByName(ctx context.Context, name string) (*basecamp.Project, error) {
	projects, err := f.client.Projects().List(ctx, basecamp.ListProjectsParams{})
	if err != nil {
		return nil, err
	}
	if p := matchProject(projects, name); p != nil {
		return p, nil
	}

	archived, err := f.client.Projects().List(ctx, basecamp.ListProjectsParams{Status: "archived"})
	if err != nil {
		return nil, err
	}
	if p := matchProject(archived, name); p != nil {
		return p, nil
	}

	return nil, fmt.Errorf("project not found: %s", name)
}

func matchProject(projects []basecamp.Project, name string) *basecamp.Project {
	for i := range projects {
		if strings.EqualFold(projects[i].Name, name) {
			return &projects[i]
		}
	}

	return nil
}

// selectKanbanBoard picks the enabled kanban_board dock entry, by title
// when tableName is given, otherwise the first one.
func selectKanbanBoard(dock []basecamp.DockEntry, tableName string) *basecamp.DockEntry {
	for i := range dock {
		d := &dock[i]
		if d.Name != "kanban_board" || !d.Enabled {
			continue
		}
		if tableName == "" || strings.EqualFold(d.Title, tableName) {
			return d
		}
	}

	return nil
}

// collectCards walks the board's columns and gathers open card titles. A
// single column failing to list is logged and skipped so the rest of the
// board still exports.
func (f *Fetcher) collectCards(ctx context.Context, projectID, tableID int64, columnName string) ([]PlanStep, error) {
	table, err := f.client.CardTables().Get(ctx, projectID, tableID)
	if err != nil {
		f.logger.Warn("card table unavailable",
			slog.Int64("table_id", tableID),
			slog.Any("error", err))
		return nil, nil
	}

	columns := table.Lists
	if columnName != "" {
		columns = nil
		for _, col := range table.Lists {
			if strings.EqualFold(col.Title, columnName) {
				columns = append(columns, col)
			}
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("column not found: %s", columnName)
		}
	}

	var plan []PlanStep
	for _, col := range columns {
		if col.CardsURL == "" {
			continue
		}

		raw, err := f.client.Raw(ctx, http.MethodGet, col.CardsURL, &basecamp.RequestOptions{Absolute: true})
		if err != nil {
			f.logger.Warn("skipping column",
				slog.String("column", col.Title),
				slog.Any("error", err))
			continue
		}

		plan = append(plan, openCards(raw)...)
	}

	return plan, nil
}

// openCards extracts pending steps from a raw card listing. Responses
// carry the card text under either "title" or "name" depending on the
// endpoint, so fields are probed rather than typed.
func openCards(raw json.RawMessage) []PlanStep {
	var plan []PlanStep
	gjson.ParseBytes(raw).ForEach(func(_, card gjson.Result) bool {
		if card.Get("archived").Bool() || card.Get("status").String() == "archived" {
			return true
		}

		title := card.Get("title").String()
		if title == "" {
			title = card.Get("name").String()
		}
		if title = strings.TrimSpace(title); title != "" {
			plan = append(plan, PlanStep{Step: title, Status: "pending"})
		}

		return true
	})

	return plan
}

func (f *Fetcher) write(projectName string, plan []PlanStep, outputPath string) (*Result, error) {
	if err := os.MkdirAll(f.outDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	jsonPath := filepath.Join(f.outDir, "tasks.json")
	if outputPath != "" {
		abs, err := filepath.Abs(outputPath)
		if err != nil {
			return nil, fmt.Errorf("resolving output path: %w", err)
		}
		jsonPath = abs
	}
	mdPath := filepath.Join(f.outDir, "tasks.md")

	if plan == nil {
		plan = []PlanStep{}
	}

	data, err := json.MarshalIndent(map[string][]PlanStep{"plan": plan}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing %s: %w", jsonPath, err)
	}

	var md strings.Builder
	fmt.Fprintf(&md, "# Tasks from Basecamp: %s\n\n", projectName)
	for _, p := range plan {
		fmt.Fprintf(&md, "- [ ] %s\n", p.Step)
	}
	md.WriteString("\n")
	if err := os.WriteFile(mdPath, []byte(md.String()), 0o600); err != nil {
		return nil, fmt.Errorf("writing %s: %w", mdPath, err)
	}

	return &Result{
		ProjectName:  projectName,
		Steps:        plan,
		JSONPath:     jsonPath,
		MarkdownPath: mdPath,
	}, nil
}
