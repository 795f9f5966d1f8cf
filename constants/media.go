package constants

import "strings"

// MediaType is the declared format of an uploaded document.
type MediaType string

const (
	PDF  MediaType = "pdf"
	JPEG MediaType = "jpeg"
	PNG  MediaType = "png"
	TIFF MediaType = "tiff"
)

// AllowedExtensions holds the default allowed file extensions for uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToMediaType maps a file extension to a MediaType.
// Returns "" for unsupported extensions.
func MapExtToMediaType(ext string) MediaType {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg":
		return JPEG
	case "png":
		return PNG
	case "tif", "tiff":
		return TIFF
	default:
		return ""
	}
}

// IsImage reports whether the media type is a raster image.
func (m MediaType) IsImage() bool {
	switch m {
	case JPEG, PNG, TIFF:
		return true
	}
	return false
}
