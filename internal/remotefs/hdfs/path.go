package hdfs

import "strings"

// SchemePrefix marks a fully qualified HDFS URI.
const SchemePrefix = "hdfs://"

// AbsolutePath normalizes p for the CLI. Scheme-qualified and slash-rooted
// paths pass through untouched; anything else is rooted at "/". The same
// form is used for arguments and for matching tool output.
func AbsolutePath(p string) string {
	if strings.HasPrefix(p, SchemePrefix) || strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
