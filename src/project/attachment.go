package project

import (
	"encoding/base64"
	"net/http"
	"path/filepath"
	"strings"
)

type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentText  AttachmentKind = "text"
)

// Attachment is a user-supplied image or text blob sent alongside a prompt.
// Data is base64 for images and raw text otherwise.
type Attachment struct {
	Kind     AttachmentKind `json:"type"`
	MIMEType string         `json:"mimeType"`
	Data     string         `json:"data"`
	Name     string         `json:"name"`
}

// AttachmentFromFile classifies raw file bytes as an image or text attachment.
func AttachmentFromFile(name string, raw []byte) Attachment {
	mime := http.DetectContentType(raw)
	if ext := strings.ToLower(filepath.Ext(name)); ext == ".svg" {
		mime = "image/svg+xml"
	}
	if strings.HasPrefix(mime, "image/") {
		return Attachment{
			Kind:     AttachmentImage,
			MIMEType: mime,
			Data:     base64.StdEncoding.EncodeToString(raw),
			Name:     filepath.Base(name),
		}
	}
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	return Attachment{
		Kind:     AttachmentText,
		MIMEType: mime,
		Data:     string(raw),
		Name:     filepath.Base(name),
	}
}

// Bytes decodes the payload. Text attachments are returned as-is.
func (a Attachment) Bytes() ([]byte, error) {
	if a.Kind == AttachmentImage {
		return base64.StdEncoding.DecodeString(a.Data)
	}
	return []byte(a.Data), nil
}
