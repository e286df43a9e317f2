package ftpsync

// Entry represents a file or directory record from a remote listing.
//
// Entry is a plain value: two entries are the same download when all three
// fields are equal, so a remote file whose size or date changed is treated
// as a different entry.
type Entry struct {
	// Name is the remote path, composed with the directory it was listed from.
	Name string `json:"name"`

	// Size is the size in bytes reported by the listing.
	Size int64 `json:"size"`

	// ModifiedDate is the server-supplied date text (e.g. "Mar 01 2018").
	// It is opaque: server formats vary too much to parse reliably.
	ModifiedDate string `json:"modified_date"`
}

// WithPath returns a copy of e whose name is prefixed with base.
// An empty base returns e unchanged.
func (e Entry) WithPath(base string) Entry {
	return Entry{
		Name:         JoinPath(base, e.Name),
		Size:         e.Size,
		ModifiedDate: e.ModifiedDate,
	}
}

// Kind is the result of classifying an entry.
type Kind int

const (
	// KindFile is a plain, downloadable file.
	KindFile Kind = iota

	// KindDirectory is a directory (or anything that is not a plain file).
	KindDirectory
)

// String returns "file" or "dir".
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "dir"
	default:
		return "unknown"
	}
}
