package contenttype

import "strings"

// UnknownType is the raw type reported for content that could not be identified.
const UnknownType = "content/unknown"

// ImageExtensions maps file extensions to whether they are recognized image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".svg":  true,
	".ico":  true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// VideoExtensions maps file extensions to whether they are recognized video formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// MimeTypes maps file extensions to their raw content types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",

	// Videos
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",

	// Playlists
	".wpl": "application/vnd.ms-wpl",

	// Source and markup
	".java":       "text/x-java",
	".js":         "text/javascript",
	".mjs":        "text/javascript",
	".html":       "text/html",
	".htm":        "text/html",
	".xml":        "text/xml",
	".xsd":        "text/xml-schema",
	".txt":        "text/plain",
	".md":         "text/x-markdown",
	".css":        "text/css",
	".csv":        "text/csv",
	".go":         "text/x-go",
	".py":         "text/x-python",
	".sh":         "text/x-sh",
	".c":          "text/x-c",
	".h":          "text/x-c",
	".properties": "text/x-properties",
	".json":       "application/json",
	".yaml":       "application/x-yaml",
	".yml":        "application/x-yaml",
	".toml":       "application/toml",
	".pdf":        "application/pdf",
	".zip":        "application/zip",
	".jar":        "application/x-java-archive",
	".gz":         "application/gzip",
}

// GetMimeType returns the raw content type for a file extension.
// The extension may be given in any case and must include the leading dot
// (e.g., ".jpg"). The second result reports whether the extension is known.
func GetMimeType(ext string) (string, bool) {
	mime, ok := MimeTypes[strings.ToLower(ext)]
	return mime, ok
}
