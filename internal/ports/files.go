package ports

// FileChecker reports whether a track's backing file exists.
type FileChecker interface {
	Exists(path string) bool
}

// FileCheckerFunc adapts a plain function to FileChecker.
type FileCheckerFunc func(path string) bool

// Exists calls f(path).
func (f FileCheckerFunc) Exists(path string) bool {
	return f(path)
}

// GenreResolver looks up the genre of a file when the track carries none.
// Lookups are best effort: an empty string means unknown.
type GenreResolver interface {
	Genre(path string) string
}
