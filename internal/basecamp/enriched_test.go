package basecamp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	enrichedProjectID = int64(12)
	enrichedCardID    = int64(100)
)

func attachmentMarkup(sgid, contentType, url, href, filename string) string {
	return fmt.Sprintf(
		`<bc-attachment sgid=%q content-type=%q url=%q href=%q filename=%q filesize="64">`,
		sgid, contentType, url, href, filename)
}

// enrichedHandler serves a card, one page of comments, and two binary blobs.
// Attachment URLs are filled in lazily because the server URL is not known
// until after construction.
func enrichedHandler(t *testing.T, baseURL *string) http.Handler {
	t.Helper()

	mux := http.NewServeMux()

	cardPath := fmt.Sprintf("/%s/buckets/%d/card_tables/cards/%d.json",
		testAccountID, enrichedProjectID, enrichedCardID)
	mux.HandleFunc(cardPath, func(w http.ResponseWriter, r *http.Request) {
		card := Card{
			ID:      enrichedCardID,
			Title:   "Ship it",
			Content: "intro " + attachmentMarkup("sg-card", "image/png", *baseURL+"/blobs/card.png", *baseURL+"/dl/card.png", "card.png"),
			Status:  "active",
			Creator: &Person{ID: 5, Name: "Ana"},
			Bucket:  &BucketRef{ID: enrichedProjectID, Name: "HQ"},
			Parent:  &ParentRef{ID: 31, Title: "In Progress"},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(card))
	})

	commentsPath := fmt.Sprintf("/%s/buckets/%d/recordings/%d/comments.json",
		testAccountID, enrichedProjectID, enrichedCardID)
	mux.HandleFunc(commentsPath, func(w http.ResponseWriter, r *http.Request) {
		comments := []Comment{
			{
				ID:      201,
				Creator: &Person{ID: 6, Name: "Ben"},
				Content: "see " + attachmentMarkup("sg-comment", "image/jpeg", *baseURL+"/blobs/shot.jpg", *baseURL+"/dl/shot.jpg", "shot.jpg") +
					attachmentMarkup("sg-doc", "application/pdf", *baseURL+"/blobs/doc.pdf", *baseURL+"/dl/doc.pdf", "doc.pdf"),
			},
			{ID: 202, Content: "no attachments here"},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(comments))
	})

	mux.HandleFunc("/blobs/card.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "png-bytes")
	})
	mux.HandleFunc("/blobs/shot.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	return mux
}

func TestGetEnrichedCard_AggregatesCardAndComments(t *testing.T) {
	var baseURL string
	client, srv := newTestClient(t, enrichedHandler(t, &baseURL))
	baseURL = srv.URL

	card, err := client.GetEnrichedCard(context.Background(), enrichedProjectID, enrichedCardID, EnrichOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Ship it", card.Card.Title)
	assert.Contains(t, card.Card.Description, "intro")
	assert.Equal(t, NameRef{ID: enrichedProjectID, Name: "HQ"}, card.Card.Project)
	assert.Equal(t, NameRef{ID: 31, Name: "In Progress"}, card.Card.Column)

	require.Len(t, card.Comments, 2)
	assert.Len(t, card.Comments[0].Attachments, 2)
	assert.Empty(t, card.Comments[1].Attachments)

	// Card images first, comment images after; non-images excluded.
	require.Len(t, card.Images, 2)
	assert.Equal(t, "card", card.Images[0].Source)
	assert.Equal(t, enrichedCardID, card.Images[0].SourceID)
	assert.Equal(t, "Ana", card.Images[0].Creator)
	assert.Equal(t, "card.png", card.Images[0].Metadata.Filename)
	assert.Equal(t, "comment", card.Images[1].Source)
	assert.Equal(t, int64(201), card.Images[1].SourceID)
	assert.Equal(t, "Ben", card.Images[1].Creator)

	// No download requested, so payloads stay empty.
	assert.Empty(t, card.Images[0].Base64)
	assert.Empty(t, card.Images[1].Base64)
}

func TestGetEnrichedCard_DownloadFailureKeepsMetadata(t *testing.T) {
	var baseURL string
	client, srv := newTestClient(t, enrichedHandler(t, &baseURL))
	baseURL = srv.URL

	card, err := client.GetEnrichedCard(context.Background(), enrichedProjectID, enrichedCardID,
		EnrichOptions{DownloadImages: true, ImageQuality: QualityPreview})
	require.NoError(t, err)

	require.Len(t, card.Images, 2)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), card.Images[0].Base64)
	assert.Empty(t, card.Images[1].Base64, "a failed download keeps the image as metadata only")
	assert.Equal(t, "shot.jpg", card.Images[1].Metadata.Filename)
}

func TestImageURL_QualityTiers(t *testing.T) {
	img := &Image{
		URL:         "https://api.example.com/blobs/k/previews/full.png",
		DownloadURL: "https://api.example.com/blobs/k/download/full.png",
	}

	assert.Equal(t, img.DownloadURL, imageURL(img, QualityFull))
	assert.Equal(t, img.URL, imageURL(img, QualityPreview))
	assert.Equal(t, "https://api.example.com/blobs/k/previews/card", imageURL(img, QualityThumbnail))

	noShape := &Image{URL: "https://u", DownloadURL: "https://d/other"}
	assert.Equal(t, "https://u", imageURL(noShape, QualityThumbnail))
}

func TestDownloadAttachment_SavesCopy(t *testing.T) {
	t.Chdir(t.TempDir())

	mux := http.NewServeMux()
	mux.HandleFunc("/files/pic.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("image-bytes!"))
	})

	client, srv := newTestClient(t, mux)

	got, err := client.DownloadAttachment(context.Background(), srv.URL+"/files/pic.png", "my pic.png", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "my_pic.png", got.Filename)
	assert.Equal(t, "image/png", got.MimeType)
	assert.Equal(t, int64(len("image-bytes!")), got.Size)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("image-bytes!")), got.Base64)

	require.NotEmpty(t, got.SavedPath)
	assert.Equal(t, filepath.Join(".basecamp", "images", "my_pic.png"), mustRel(t, got.SavedPath))

	data, err := os.ReadFile(got.SavedPath)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes!", string(data))
}

func mustRel(t *testing.T, path string) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)

	rel, err := filepath.Rel(wd, path)
	require.NoError(t, err)

	return rel
}

