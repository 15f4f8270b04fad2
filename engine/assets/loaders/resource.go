package loaders

// Resource is a file read from the asset directory.
type Resource struct {
	Name     string
	FullPath string
	// DataSize is the size in bytes of the file on disk.
	DataSize uint64
	// Code holds the decoded 32-bit SPIR-V words.
	Code []uint32
}
