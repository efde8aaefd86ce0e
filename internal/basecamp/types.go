// Package basecamp implements the authenticated HTTP core for the Basecamp
// 3 API plus typed resource wrappers over it: URL construction, JSON body
// negotiation, RFC 5988 Link-header pagination, and authenticated binary
// download with content-host rewriting.
package basecamp

// Person is a Basecamp user. Only the fields the SDK consumes are typed.
type Person struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	EmailAddress string `json:"email_address,omitempty"`
	Admin        bool   `json:"admin,omitempty"`
	Owner        bool   `json:"owner,omitempty"`
	Client       bool   `json:"client,omitempty"`
	TimeZone     string `json:"time_zone,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
}

// BucketRef identifies the project a recording belongs to.
type BucketRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// ParentRef identifies a recording's container, e.g. a card's column.
type ParentRef struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
	URL   string `json:"url,omitempty"`
}

// DockEntry is one tool surface on a project (message_board, todoset,
// kanban_board, ...).
type DockEntry struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	URL     string `json:"url,omitempty"`
	AppURL  string `json:"app_url,omitempty"`
}

// Project is a Basecamp project.
type Project struct {
	ID          int64       `json:"id"`
	Status      string      `json:"status,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	CreatedAt   string      `json:"created_at,omitempty"`
	UpdatedAt   string      `json:"updated_at,omitempty"`
	Dock        []DockEntry `json:"dock,omitempty"`
}

// Todo is a to-do item.
type Todo struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title,omitempty"`
	Content       string     `json:"content"`
	Description   string     `json:"description,omitempty"`
	Completed     bool       `json:"completed,omitempty"`
	DueOn         string     `json:"due_on,omitempty"`
	StartsOn      string     `json:"starts_on,omitempty"`
	CommentsCount int        `json:"comments_count,omitempty"`
	Parent        *ParentRef `json:"parent,omitempty"`
	Bucket        *BucketRef `json:"bucket,omitempty"`
	Assignees     []Person   `json:"assignees,omitempty"`
}

// Column is a card table lane (Kanban::Column or Kanban::Triage).
type Column struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Type       string `json:"type,omitempty"`
	Color      string `json:"color,omitempty"`
	CardsCount int    `json:"cards_count,omitempty"`
	CardsURL   string `json:"cards_url,omitempty"`
}

// CardTable is a kanban board with its columns.
type CardTable struct {
	ID     int64      `json:"id"`
	Title  string     `json:"title"`
	Type   string     `json:"type,omitempty"`
	Lists  []Column   `json:"lists,omitempty"`
	Bucket *BucketRef `json:"bucket,omitempty"`
}

// Step is a sub-task on a card.
type Step struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Completed bool     `json:"completed,omitempty"`
	DueOn     string   `json:"due_on,omitempty"`
	Position  int      `json:"position,omitempty"`
	Assignees []Person `json:"assignees,omitempty"`
}

// Card is a kanban card. Some API responses carry the text under "title",
// others under "name"; listings tolerate both.
type Card struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title,omitempty"`
	Name         string     `json:"name,omitempty"`
	Status       string     `json:"status,omitempty"`
	Content      string     `json:"content,omitempty"`
	Description  string     `json:"description,omitempty"`
	DueOn        string     `json:"due_on,omitempty"`
	CreatedAt    string     `json:"created_at,omitempty"`
	UpdatedAt    string     `json:"updated_at,omitempty"`
	Archived     bool       `json:"archived,omitempty"`
	CommentCount int        `json:"comment_count,omitempty"`
	Creator      *Person    `json:"creator,omitempty"`
	Steps        []Step     `json:"steps,omitempty"`
	Assignees    []Person   `json:"assignees,omitempty"`
	Bucket       *BucketRef `json:"bucket,omitempty"`
	Parent       *ParentRef `json:"parent,omitempty"`
}

// DisplayTitle returns the card's human title regardless of which field the
// API populated.
func (c *Card) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}

	return c.Name
}

// Message is a message-board post.
type Message struct {
	ID      int64      `json:"id"`
	Subject string     `json:"subject,omitempty"`
	Title   string     `json:"title,omitempty"`
	Content string     `json:"content,omitempty"`
	Bucket  *BucketRef `json:"bucket,omitempty"`
}

// Comment is a comment on any commentable recording.
type Comment struct {
	ID        int64   `json:"id"`
	Content   string  `json:"content"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
	Creator   *Person `json:"creator,omitempty"`
}

// Attachment is an image or file parsed out of rich-text HTML markup.
type Attachment struct {
	SGID         string `json:"sgid"`
	ContentType  string `json:"contentType"`
	URL          string `json:"url"`
	DownloadURL  string `json:"downloadUrl"`
	Filename     string `json:"filename"`
	Filesize     int64  `json:"filesize"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Previewable  bool   `json:"previewable"`
	Presentation string `json:"presentation,omitempty"`
}
