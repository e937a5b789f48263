package api

import (
	"strings"
)

// DefaultPlaceholderCover is shown for books without a cover
const DefaultPlaceholderCover = "https://images.unsplash.com/photo-1543002588-bfa74002ed7e?w=300&h=450&fit=crop"

// ImageResolver turns the backend's cover references into absolute URLs
type ImageResolver struct {
	Host        string // scheme://host of the backend
	UploadsPath string // directory for bare filenames
	Placeholder string
}

// Resolve returns an absolute URL for ref:
// absolute URLs pass through, rooted paths are joined to Host, bare
// filenames are joined to Host+UploadsPath and empty refs get Placeholder.
func (r ImageResolver) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	host := strings.TrimRight(r.Host, "/")

	switch {
	case ref == "":
		if r.Placeholder == "" {
			return DefaultPlaceholderCover
		}
		return r.Placeholder
	case strings.HasPrefix(ref, "http"):
		return ref
	case strings.HasPrefix(ref, "/"):
		return host + ref
	}

	uploads := "/" + strings.Trim(r.UploadsPath, "/") + "/"
	if uploads == "//" {
		uploads = "/"
	}
	return host + uploads + ref
}

// Images returns a resolver for this client's backend
func (c *Client) Images(uploadsPath, placeholder string) ImageResolver {
	return ImageResolver{Host: c.Host(), UploadsPath: uploadsPath, Placeholder: placeholder}
}
