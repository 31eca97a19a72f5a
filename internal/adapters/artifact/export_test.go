package artifact

// WithRename replaces the file rename used to install documents.
func WithRename(rename func(oldpath, newpath string) error) Option {
	return func(s *settings) { s.rename = rename }
}
