package resources

import (
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// ReadMmap
// Maps the file at `path` read-only. The returned release function unmaps
// it; the bytes must not be used afterwards.
func ReadMmap(path string) (data []byte, release func() error, err error) {
	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, nil, openErr
	}
	defer file.Close()
	stat, statErr := file.Stat()
	if statErr != nil {
		return nil, nil, statErr
	}
	// Empty files cannot be mapped.
	if stat.Size() == 0 {
		return []byte{}, func() error { return nil }, nil
	}
	fileMmap, mmapErr := mmap.Map(file, mmap.RDONLY, 0)
	if mmapErr != nil {
		return nil, nil, errors.Wrapf(mmapErr,
			"error trying to mmap file %s", path)
	}
	return fileMmap, fileMmap.Unmap, nil
}
