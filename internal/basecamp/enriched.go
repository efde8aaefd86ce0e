package basecamp

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ImageQuality selects which URL an image payload is fetched from.
type ImageQuality string

const (
	// QualityFull fetches the original upload.
	QualityFull ImageQuality = "full"
	// QualityPreview fetches the provider-generated preview (default).
	QualityPreview ImageQuality = "preview"
	// QualityThumbnail fetches the small card preview derived from the
	// download URL.
	QualityThumbnail ImageQuality = "thumbnail"
)

// maxConcurrentDownloads bounds the parallel image fetches during
// enrichment.
const maxConcurrentDownloads = 4

// NameRef is a minimal id+name reference.
type NameRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EnrichedComment is a comment with its parsed attachments.
type EnrichedComment struct {
	ID          int64        `json:"id"`
	Creator     *Person      `json:"creator,omitempty"`
	CreatedAt   string       `json:"created_at,omitempty"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
}

// Dimensions are pixel dimensions of an image attachment.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageMetadata describes an image without its payload.
type ImageMetadata struct {
	Filename   string      `json:"filename"`
	Size       int64       `json:"size"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// Image is one entry in the unified image list, tagged by origin.
type Image struct {
	URL         string        `json:"url"`
	Source      string        `json:"source"` // "card" or "comment"
	SourceID    int64         `json:"sourceId"`
	Creator     string        `json:"creator"`
	Metadata    ImageMetadata `json:"metadata"`
	MimeType    string        `json:"mimeType"`
	DownloadURL string        `json:"downloadUrl"`
	Base64      string        `json:"base64,omitempty"`
}

// EnrichedCardInfo is the card itself within an enriched context.
type EnrichedCardInfo struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
	Creator     *Person  `json:"creator,omitempty"`
	Steps       []Step   `json:"steps"`
	Assignees   []Person `json:"assignees"`
	DueOn       string   `json:"due_on,omitempty"`
	Project     NameRef  `json:"project"`
	Column      NameRef  `json:"column"`
}

// EnrichedCard is a card consolidated with its full comment thread and the
// image attachments discovered in the card description and every comment.
// Built fresh per request, never cached.
type EnrichedCard struct {
	Card     EnrichedCardInfo  `json:"card"`
	Comments []EnrichedComment `json:"comments"`
	Images   []Image           `json:"images"`
}

// EnrichOptions control image materialization during enrichment.
type EnrichOptions struct {
	DownloadImages bool
	ImageQuality   ImageQuality
}

// GetEnrichedCard fetches a card and all of its comments (full pagination
// walk), parses attachment markup out of the description and every comment
// body, and builds the unified image list. When DownloadImages is set, the
// payloads are fetched concurrently; a single image's failure is logged and
// that image is kept without a payload.
func (c *Client) GetEnrichedCard(ctx context.Context, projectID, cardID int64, opts EnrichOptions) (*EnrichedCard, error) {
	card, err := c.CardTables().GetCard(ctx, projectID, cardID)
	if err != nil {
		return nil, err
	}

	comments, err := c.Comments().ListAllForRecording(ctx, projectID, cardID)
	if err != nil {
		return nil, err
	}

	description := card.Description
	if description == "" {
		description = card.Content
	}

	creatorName := ""
	if card.Creator != nil {
		creatorName = card.Creator.Name
	}

	var images []Image

	for _, att := range ParseAttachments(description) {
		if !strings.HasPrefix(att.ContentType, "image/") {
			continue
		}

		images = append(images, newImage(att, "card", card.ID, creatorName))
	}

	enrichedComments := make([]EnrichedComment, 0, len(comments))

	for _, comment := range comments {
		attachments := ParseAttachments(comment.Content)

		enrichedComments = append(enrichedComments, EnrichedComment{
			ID:          comment.ID,
			Creator:     comment.Creator,
			CreatedAt:   comment.CreatedAt,
			Content:     comment.Content,
			Attachments: attachments,
		})

		commenterName := ""
		if comment.Creator != nil {
			commenterName = comment.Creator.Name
		}

		for _, att := range attachments {
			if !strings.HasPrefix(att.ContentType, "image/") {
				continue
			}

			images = append(images, newImage(att, "comment", comment.ID, commenterName))
		}
	}

	if opts.DownloadImages {
		c.downloadImages(ctx, images, opts.ImageQuality)
	}

	enriched := &EnrichedCard{
		Card: EnrichedCardInfo{
			ID:          card.ID,
			Title:       card.DisplayTitle(),
			Description: description,
			Status:      card.Status,
			CreatedAt:   card.CreatedAt,
			UpdatedAt:   card.UpdatedAt,
			Creator:     card.Creator,
			Steps:       card.Steps,
			Assignees:   card.Assignees,
			DueOn:       card.DueOn,
		},
		Comments: enrichedComments,
		Images:   images,
	}

	if card.Bucket != nil {
		enriched.Card.Project = NameRef{ID: card.Bucket.ID, Name: card.Bucket.Name}
	}

	if card.Parent != nil {
		enriched.Card.Column = NameRef{ID: card.Parent.ID, Name: card.Parent.Title}
	}

	return enriched, nil
}

func newImage(att Attachment, source string, sourceID int64, creator string) Image {
	img := Image{
		URL:         att.URL,
		Source:      source,
		SourceID:    sourceID,
		Creator:     creator,
		MimeType:    att.ContentType,
		DownloadURL: att.DownloadURL,
		Metadata: ImageMetadata{
			Filename: att.Filename,
			Size:     att.Filesize,
		},
	}

	if att.Width > 0 && att.Height > 0 {
		img.Metadata.Dimensions = &Dimensions{Width: att.Width, Height: att.Height}
	}

	return img
}

// downloadImages fetches payloads concurrently, one goroutine per image.
// Failures degrade to metadata-only entries; the aggregation never aborts.
func (c *Client) downloadImages(ctx context.Context, images []Image, quality ImageQuality) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)

	for i := range images {
		g.Go(func() error {
			img := &images[i]

			url := imageURL(img, quality)

			data, err := c.DownloadBinary(gctx, url)
			if err != nil {
				c.logger.Warn("image download failed",
					slog.String("filename", img.Metadata.Filename),
					slog.Any("error", err))

				return nil
			}

			img.Base64 = data

			return nil
		})
	}

	// Workers never return errors; failures are per-image and logged.
	_ = g.Wait()
}

var downloadSuffixRe = regexp.MustCompile(`/download/[^/]+$`)

// imageURL resolves the fetch URL for the requested quality tier. The
// thumbnail tier rewrites .../blobs/{key}/download/{filename} to
// .../blobs/{key}/previews/card, falling back to the preview URL when the
// download URL does not match that shape.
func imageURL(img *Image, quality ImageQuality) string {
	switch quality {
	case QualityFull:
		return img.DownloadURL
	case QualityThumbnail:
		if downloadSuffixRe.MatchString(img.DownloadURL) {
			return downloadSuffixRe.ReplaceAllString(img.DownloadURL, "/previews/card")
		}

		return img.URL
	default:
		return img.URL
	}
}

// DownloadedAttachment is the result of a standalone attachment download.
type DownloadedAttachment struct {
	Filename  string `json:"filename"`
	MimeType  string `json:"mimeType"`
	Size      int64  `json:"size"`
	Base64    string `json:"base64,omitempty"`
	SavedPath string `json:"savedPath,omitempty"`
}

// estimateSize approximates the decoded byte count of a base64 payload.
func estimateSize(base64Len int) int64 {
	return int64((base64Len*3 + 3) / 4)
}

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename replaces path-hostile characters so a remote filename is
// safe to write locally.
func SanitizeFilename(name string) string {
	if name == "" {
		name = "attachment"
	}

	return unsafeFilenameRe.ReplaceAllString(name, "_")
}

// DownloadAttachment downloads a file by URL, saves a copy under
// .basecamp/images/, and returns its base64 payload with size and sanitized
// filename. MIME type defaults to application/octet-stream.
func (c *Client) DownloadAttachment(ctx context.Context, url, filename, mimeType string) (*DownloadedAttachment, error) {
	data, err := c.DownloadBinary(ctx, url)
	if err != nil {
		return nil, err
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	safeName := SanitizeFilename(filename)

	savedPath, err := saveAttachment(safeName, data)
	if err != nil {
		return nil, err
	}

	return &DownloadedAttachment{
		Filename:  safeName,
		MimeType:  mimeType,
		Size:      estimateSize(len(data)),
		Base64:    data,
		SavedPath: savedPath,
	}, nil
}

// saveAttachment writes the decoded payload under .basecamp/images/ and
// returns the absolute path.
func saveAttachment(filename, b64 string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("decoding attachment payload: %w", err)
	}

	dir := filepath.Join(".basecamp", "images")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating attachment directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, decoded, 0o600); err != nil {
		return "", fmt.Errorf("saving attachment: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}

	return abs, nil
}
