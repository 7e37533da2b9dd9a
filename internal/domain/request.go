package domain

import (
	"net"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var allowedImageExt = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
}

// ImageUpload is one uploaded image as received from the reviewer.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// CompareRequest asks the analysis engine to compare Image1 against either a
// second image or a region captured from TemplateURL.
type CompareRequest struct {
	Title       string
	Image1      *ImageUpload
	Image2      *ImageUpload
	TemplateURL string
	ProjectID   *string
}

func (r CompareRequest) Method() ComparisonMethod {
	if r.Image2 == nil && r.TemplateURL != "" {
		return MethodTemplateMatching
	}
	return MethodUpload
}

// Validate rejects incomplete requests before they reach a collaborator.
func (r CompareRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title", Reason: "a comparison title is required"}
	}
	if r.Image1 == nil || len(r.Image1.Data) == 0 {
		return &ValidationError{Field: "image1", Reason: "the first image is required"}
	}
	if err := validateImage("image1", r.Image1); err != nil {
		return err
	}
	hasURL := strings.TrimSpace(r.TemplateURL) != ""
	switch {
	case r.Image2 == nil && !hasURL:
		return &ValidationError{Field: "image2", Reason: "a second image or a URL is required"}
	case r.Image2 != nil && hasURL:
		return &ValidationError{Field: "image2", Reason: "choose either a second image or a URL, not both"}
	case r.Image2 != nil:
		if len(r.Image2.Data) == 0 {
			return &ValidationError{Field: "image2", Reason: "the second image is empty"}
		}
		return validateImage("image2", r.Image2)
	}
	return validateTemplateURL(r.TemplateURL)
}

func validateImage(field string, img *ImageUpload) error {
	ext := strings.ToLower(path.Ext(img.Filename))
	if !allowedImageExt[ext] {
		return &ValidationError{Field: field, Reason: "unsupported image type " + ext}
	}
	return nil
}

// validateTemplateURL accepts http(s) URLs whose host is an IP, localhost, or
// has a registrable domain under the public suffix list.
func validateTemplateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return &ValidationError{Field: "compare_url", Reason: "malformed URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "compare_url", Reason: "URL must use http or https"}
	}
	host := u.Hostname()
	if host == "" {
		return &ValidationError{Field: "compare_url", Reason: "URL has no host"}
	}
	if host == "localhost" || net.ParseIP(host) != nil {
		return nil
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(host); err != nil {
		return &ValidationError{Field: "compare_url", Reason: "URL host is not a registrable domain"}
	}
	return nil
}
