package basecamp

import (
	"regexp"
	"strconv"
)

// Rich text from the API embeds uploads as <bc-attachment> custom elements
// carrying everything needed to describe and fetch the file. A structural
// scan of the markup is sufficient; the elements are machine-generated and
// always carry double-quoted attributes.
var (
	attachmentElementRe = regexp.MustCompile(`<bc-attachment\s+([^>]+)>`)
	attributeRe         = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9-]*)="([^"]*)"`)
)

// ParseAttachments extracts attachments from HTML content. An element
// missing any required attribute (sgid, content-type, url, href, filename,
// filesize) is skipped, not defaulted. Width and height are only recorded
// when both are present.
func ParseAttachments(htmlContent string) []Attachment {
	var attachments []Attachment

	for _, m := range attachmentElementRe.FindAllStringSubmatch(htmlContent, -1) {
		attrs := map[string]string{}
		for _, kv := range attributeRe.FindAllStringSubmatch(m[1], -1) {
			attrs[kv[1]] = kv[2]
		}

		filesize, err := strconv.ParseInt(attrs["filesize"], 10, 64)
		if err != nil {
			continue
		}

		if attrs["sgid"] == "" || attrs["content-type"] == "" || attrs["url"] == "" ||
			attrs["href"] == "" || attrs["filename"] == "" {
			continue
		}

		att := Attachment{
			SGID:         attrs["sgid"],
			ContentType:  attrs["content-type"],
			URL:          attrs["url"],
			DownloadURL:  attrs["href"],
			Filename:     attrs["filename"],
			Filesize:     filesize,
			Previewable:  attrs["previewable"] == "true",
			Presentation: attrs["presentation"],
		}

		width, werr := strconv.Atoi(attrs["width"])
		height, herr := strconv.Atoi(attrs["height"])
		if werr == nil && herr == nil {
			att.Width = width
			att.Height = height
		}

		attachments = append(attachments, att)
	}

	return attachments
}
