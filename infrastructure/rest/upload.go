package rest

import (
	"bytes"
	"chat-sync/errors"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"
)

const (
	imageUploadPath = "/api/image/create"
	audioUploadPath = "/api/audio/upload"

	imagesField = "images"
	audioField  = "audio"
)

// referenceKeys are the object fields an upload response may carry its
// references in, checked in order.
var referenceKeys = []string{"images", "audio", "ids", "codes", "id", "code"}

// Attachment is a local file about to be uploaded.
type Attachment struct {
	Name string
	Data []byte
}

// Upload is the backend's answer to an upload. References are the codes to
// put in a create command; Raw keeps the response as received.
type Upload struct {
	References []string
	Raw        json.RawMessage
}

// UploadImages posts every attachment in a single multipart request.
func (m MediaClient) UploadImages(ctx context.Context, token string, images []Attachment) (Upload, error) {
	if len(images) == 0 {
		return Upload{}, fmt.Errorf("%w: no image to upload", errors.ErrUpload)
	}
	return m.upload(ctx, token, imageUploadPath, imagesField, images)
}

func (m MediaClient) UploadAudio(ctx context.Context, token string, audio Attachment) (Upload, error) {
	return m.upload(ctx, token, audioUploadPath, audioField, []Attachment{audio})
}

func (m MediaClient) upload(ctx context.Context, token, path, field string, attachments []Attachment) (Upload, error) {
	body, contentType, err := multipartBody(field, attachments)
	if err != nil {
		return Upload{}, fmt.Errorf("%w: %w", errors.ErrUpload, err)
	}
	data, err := m.client.post(ctx, token, path, contentType, body, errors.ErrUpload)
	if err != nil {
		return Upload{}, err
	}
	if !json.Valid(data) {
		return Upload{}, fmt.Errorf("%w: %s answered with invalid JSON", errors.ErrUpload, path)
	}
	upload := Upload{References: references(data), Raw: data}
	m.client.log.Debug("Media uploaded", "path", path, "files", len(attachments), "references", len(upload.References))
	return upload, nil
}

func multipartBody(field string, attachments []Attachment) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, a := range attachments {
		if a.Name == "" || len(a.Data) == 0 {
			return nil, "", fmt.Errorf("attachment %q is empty", a.Name)
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, a.Name))
		header.Set("Content-Type", mimetype.Detect(a.Data).String())
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(a.Data); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

// references extracts codes from a response that is a string, a list of
// strings, or an object holding either under one of referenceKeys.
func references(data []byte) []string {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		return lo.Compact([]string{one})
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		return lo.Compact(many)
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return nil
	}
	for _, key := range referenceKeys {
		raw, ok := object[key]
		if !ok {
			continue
		}
		if refs := references(raw); len(refs) > 0 {
			return refs
		}
	}
	return nil
}
