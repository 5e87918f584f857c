package domain

const imagePath = "/api/image"

// ImageURL builds the list-view locator for an image reference. The reference
// is appended as is, the backend issues ids that are safe in a query string.
// No auth is baked in; the token is applied when the URL is fetched.
func ImageURL(base, ref string) string {
	return base + imagePath + "?id=" + ref
}

// Blob is a locally held copy of a protected asset.
type Blob struct {
	Handle   string
	ImageID  string
	MimeType string
	Size     int
}
