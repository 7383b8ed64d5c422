package client

import (
	"fmt"
	"net/url"
	"strings"

	"kiosk/catalog/internal/domain"
)

// contentsURL maps (owner, repo, brand, category) onto
// {base}/repos/{owner}/{repo}/contents/{brand}/{category}.
func contentsURL(baseURL, owner, repo string, brand domain.Brand, category domain.Category) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrInvalidURL, baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("%w: %s has no scheme or host", domain.ErrInvalidURL, baseURL)
	}

	brandSegment := brand.Segment()
	categorySegment := category.Segment()
	if brandSegment == "" || categorySegment == "" {
		return "", fmt.Errorf("%w: no path segment for %q/%q", domain.ErrInvalidURL, brand, category)
	}
	if owner == "" || repo == "" {
		return "", fmt.Errorf("%w: owner and repo are required", domain.ErrInvalidURL)
	}

	segments := []string{"repos", owner, repo, "contents", brandSegment, categorySegment}

	u := url.URL{
		Scheme: base.Scheme,
		Host:   base.Host,
		Path:   strings.TrimRight(base.Path, "/") + "/" + strings.Join(segments, "/"),
	}
	return u.String(), nil
}
