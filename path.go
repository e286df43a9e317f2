package ftpsync

import (
	"path"
	"strings"
)

// JoinPath joins a remote base directory and an entry name using "/".
// The result does not depend on the local operating system, so it can be
// sent to the server and used to derive local file names alike.
// An empty base returns name unchanged. Otherwise the result is cleaned, so
// JoinPath("pub", "..") is "."; listings drop "." and ".." before joining.
func JoinPath(base, name string) string {
	if base == "" {
		return name
	}
	if name == "" {
		return base
	}
	return path.Join(base, name)
}

// BaseName returns the last segment of a remote path.
// Both "/" and "\" are accepted as separators and trailing separators are
// ignored, so "pub/data/" yields "data". A bare name is returned as-is.
func BaseName(p string) string {
	p = strings.TrimRight(p, `/\`)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
