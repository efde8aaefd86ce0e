package basecamp

import (
	"fmt"
	"regexp"
	"strings"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes markup from rich-text content, leaving plain text.
func StripHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

// FormatEnrichedCardAsText renders an enriched card as a markdown document
// suitable for direct display. Sections with nothing to say are omitted
// entirely rather than rendered with empty bodies.
func FormatEnrichedCardAsText(ec *EnrichedCard) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Card: %s\n\n", ec.Card.Title)
	fmt.Fprintf(&b, "**Project:** %s\n", ec.Card.Project.Name)
	fmt.Fprintf(&b, "**Column:** %s\n", ec.Card.Column.Name)
	fmt.Fprintf(&b, "**Status:** %s\n", ec.Card.Status)
	fmt.Fprintf(&b, "**Created:** %s\n", ec.Card.CreatedAt)
	if ec.Card.Creator != nil {
		fmt.Fprintf(&b, "**Creator:** %s (%s)\n", ec.Card.Creator.Name, ec.Card.Creator.EmailAddress)
	}
	b.WriteString("\n")

	if ec.Card.Description != "" {
		fmt.Fprintf(&b, "## Description\n\n%s\n\n", ec.Card.Description)
	}

	if len(ec.Card.Steps) > 0 {
		fmt.Fprintf(&b, "## Steps (%d)\n\n", len(ec.Card.Steps))
		for i, step := range ec.Card.Steps {
			mark := "⬜"
			if step.Completed {
				mark = "✅"
			}
			fmt.Fprintf(&b, "%d. %s %s\n", i+1, mark, step.Title)
			if len(step.Assignees) > 0 {
				fmt.Fprintf(&b, "   Assigned to: %s\n", joinNames(step.Assignees))
			}
			if step.DueOn != "" {
				fmt.Fprintf(&b, "   Due: %s\n", step.DueOn)
			}
		}
		b.WriteString("\n")
	}

	if len(ec.Comments) > 0 {
		fmt.Fprintf(&b, "## Comments (%d)\n\n", len(ec.Comments))
		for i, comment := range ec.Comments {
			creator := ""
			if comment.Creator != nil {
				creator = comment.Creator.Name
			}
			fmt.Fprintf(&b, "### Comment %d - %s\n", i+1, creator)
			fmt.Fprintf(&b, "**Posted:** %s\n\n", comment.CreatedAt)

			if text := StripHTML(comment.Content); text != "" {
				fmt.Fprintf(&b, "%s\n\n", text)
			}

			if len(comment.Attachments) > 0 {
				fmt.Fprintf(&b, "**Attachments (%d):**\n", len(comment.Attachments))
				for _, att := range comment.Attachments {
					fmt.Fprintf(&b, "- %s (%s, %.1fKB)\n", att.Filename, att.ContentType, float64(att.Filesize)/1024)
					if att.Width > 0 && att.Height > 0 {
						fmt.Fprintf(&b, "  Size: %dx%dpx\n", att.Width, att.Height)
					}
					fmt.Fprintf(&b, "  Preview: %s\n", att.URL)
					fmt.Fprintf(&b, "  Download: %s\n", att.DownloadURL)
				}
				b.WriteString("\n")
			}
		}
	}

	if len(ec.Images) > 0 {
		b.WriteString("## Image Attachments Summary\n\n")
		fmt.Fprintf(&b, "Total images: %d\n\n", len(ec.Images))
		for i, img := range ec.Images {
			fmt.Fprintf(&b, "%d. **%s**\n", i+1, img.Metadata.Filename)
			fmt.Fprintf(&b, "   From: %s by %s\n", img.Source, img.Creator)
			if img.Metadata.Dimensions != nil {
				fmt.Fprintf(&b, "   Size: %dx%dpx\n", img.Metadata.Dimensions.Width, img.Metadata.Dimensions.Height)
			}
			fmt.Fprintf(&b, "   URL: %s\n\n", img.URL)
		}
	}

	return b.String()
}

func joinNames(people []Person) string {
	names := make([]string, 0, len(people))
	for _, p := range people {
		names = append(names, p.Name)
	}

	return strings.Join(names, ", ")
}
