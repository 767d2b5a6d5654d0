package ports

// ShortCodeGenerator produces human-facing order codes.
type ShortCodeGenerator interface {
	Generate() (string, error)
}
