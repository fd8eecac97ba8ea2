package constants

import "strings"

// AllowedExtensions holds the file extensions picked up by directory scans and the inbox watcher.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without the dot) is in AllowedExtensions.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// ErrorReplyPrefix is prepended to the error message when a document fails.
const ErrorReplyPrefix = "Error processing PDF: "
