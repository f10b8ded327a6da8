package domain

// Document is the intermediate build-time unit, one per tracked file.
// The path is always indexed; content is embedded in Body only when the
// file passes the extension allow-list, the size ceiling, and the
// binary probe.
type Document struct {
	// Title is the file basename.
	Title string `json:"title"`

	// Category is the file extension, reused as a coarse grouping key.
	Category string `json:"category"`

	// Href is the browse URL for the file, when one can be derived.
	Href string `json:"href"`

	// Path is the POSIX-normalized path within the repository.
	Path string `json:"path"`

	// Branch is the branch this document was extracted from.
	Branch string `json:"branch"`

	// Extension is the lower-cased extension without the leading dot.
	Extension string `json:"extension"`

	// Body is either just the path, or path + "\n" + content when
	// content indexing applies. A document is never dropped outright;
	// extraction failure degrades to a path-only body.
	Body string `json:"body"`
}
