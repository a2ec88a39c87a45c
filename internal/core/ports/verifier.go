package ports

// Verifier computes content digests of produced outputs.
//
//go:generate mockgen -destination=mocks/verifier_mock.go -package=mocks -source=verifier.go
type Verifier interface {
	// Digest returns the hex content digest of the file at path.
	Digest(path string) (string, error)
}
