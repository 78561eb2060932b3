// Package streamurl derives adaptive streaming URLs from media host asset URLs.
package streamurl

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const (
	deliveryHost = "res.cloudinary.com"
	// streamingProfile is the adaptive bitrate profile applied to every manifest.
	streamingProfile = "sp_auto"
)

var (
	versionSegment = regexp.MustCompile(`^v\d+$`)
	extension      = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)
)

// ResourceType is the media host's asset class.
type ResourceType string

const (
	ResourceTypeVideo ResourceType = "video"
	ResourceTypeImage ResourceType = "image"
	ResourceTypeRaw   ResourceType = "raw"
)

// Asset identifies a hosted file.
type Asset struct {
	CloudName    string
	ResourceType ResourceType
	PublicID     string
	Version      string
	Format       string
}

// Parse extracts the asset identity from a direct delivery URL of the form
// ".../<cloud>/<resource type>/upload/[<transformations>/][v<version>/]<public id>[.<ext>]".
// Transformations are only recognized in front of a version segment.
func Parse(directURL string) (Asset, bool) {
	u, err := url.Parse(strings.TrimSpace(directURL))
	if err != nil || u.Host == "" {
		return Asset{}, false
	}

	prefix, rest, found := strings.Cut(u.Path, "/upload/")
	if !found {
		return Asset{}, false
	}
	segments := strings.Split(strings.Trim(rest, "/"), "/")

	var asset Asset
	for i, seg := range segments[:len(segments)-1] {
		if versionSegment.MatchString(seg) {
			asset.Version = seg[1:]
			segments = segments[i+1:]
			break
		}
	}

	last := segments[len(segments)-1]
	if ext := path.Ext(last); extension.MatchString(ext) && len(ext) < len(last) {
		asset.Format = ext[1:]
		segments[len(segments)-1] = strings.TrimSuffix(last, ext)
	}
	asset.PublicID = strings.Join(segments, "/")
	if asset.PublicID == "" {
		return Asset{}, false
	}

	// the path before /upload/ is "/<cloud>/<resource type>" on the delivery host
	parts := strings.Split(strings.Trim(prefix, "/"), "/")
	if len(parts) >= 1 {
		asset.CloudName = parts[0]
	}
	if len(parts) >= 2 {
		asset.ResourceType = ResourceType(parts[len(parts)-1])
	}

	return asset, true
}

// parseDelivered parses a URL served by the delivery host.
func parseDelivered(directURL string) (Asset, bool) {
	u, err := url.Parse(strings.TrimSpace(directURL))
	if err != nil || !strings.EqualFold(u.Host, deliveryHost) {
		return Asset{}, false
	}
	return Parse(directURL)
}

// Deriver builds HLS manifest URLs for one media host account.
type Deriver struct {
	cloudName string
}

// New returns a Deriver for the given cloud name. An empty name makes every derivation indeterminate.
func New(cloudName string) Deriver {
	return Deriver{cloudName: strings.TrimSpace(cloudName)}
}

// Derive returns the manifest URL for an asset. An explicit asset id takes precedence over
// parsing directURL, which must be served by the delivery host. ok is false when no asset
// id can be resolved.
func (d Deriver) Derive(directURL, assetID, version string) (manifest string, ok bool) {
	if d.cloudName == "" {
		return "", false
	}

	if assetID == "" {
		asset, found := parseDelivered(directURL)
		if !found {
			return "", false
		}
		assetID, version = asset.PublicID, asset.Version
	}

	if version != "" {
		return fmt.Sprintf("https://%s/%s/video/upload/%s/v%s/%s.m3u8", deliveryHost, d.cloudName, streamingProfile, version, assetID), true
	}
	return fmt.Sprintf("https://%s/%s/video/upload/%s/%s.m3u8", deliveryHost, d.cloudName, streamingProfile, assetID), true
}

// ForURL derives the manifest for a nullable direct URL, returning nil when indeterminate.
func (d Deriver) ForURL(directURL *string) *string {
	if directURL == nil || *directURL == "" {
		return nil
	}
	manifest, ok := d.Derive(*directURL, "", "")
	if !ok {
		return nil
	}
	return &manifest
}

// Owns reports whether the URL points at an asset in this account.
func (d Deriver) Owns(directURL string) (Asset, bool) {
	if d.cloudName == "" {
		return Asset{}, false
	}
	asset, ok := parseDelivered(directURL)
	if !ok || asset.CloudName != d.cloudName {
		return Asset{}, false
	}
	return asset, true
}
