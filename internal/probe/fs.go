package probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	DefaultFSDir     = "benos_test_dir"
	DefaultFSFile    = "bgtest_file"
	DefaultFSPayload = "BenGreen test data"
)

// FSRoundTrip checks that creating a file under a missing directory fails
// with "not exist", then creates the directory and round-trips Payload
// through a file.
type FSRoundTrip struct {
	Root    string
	Dir     string
	File    string
	Payload []byte
	// Cleanup removes the directory afterwards, but only if this run made it.
	Cleanup bool
}

func (p *FSRoundTrip) Name() string { return "create_test" }

func (p *FSRoundTrip) Run() (err error) {
	dir := filepath.Join(p.Root, p.Dir)
	file := filepath.Join(dir, p.File)

	f, cerr := os.Create(file)
	if cerr == nil {
		f.Close()
		return errors.New("incorrect open error: <nil>, should be not exist")
	}
	if !errors.Is(cerr, fs.ErrNotExist) {
		return fmt.Errorf("incorrect open error: %v, should be not exist", cerr)
	}

	if err := os.Mkdir(dir, 0o755); err != nil {
		return err
	}
	if p.Cleanup {
		defer func() {
			if rerr := os.RemoveAll(dir); rerr != nil && err == nil {
				err = fmt.Errorf("cleanup: %w", rerr)
			}
		}()
	}

	if err := writeFile(file, p.Payload); err != nil {
		return err
	}

	got, err := readFile(file)
	if err != nil {
		return err
	}
	if len(got) != len(p.Payload) {
		return fmt.Errorf("%s: read %d bytes, wrote %d", file, len(got), len(p.Payload))
	}
	if !bytes.Equal(got, p.Payload) {
		return fmt.Errorf("%s did not contain the correct data", file)
	}
	return nil
}

func writeFile(name string, data []byte) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readFile(name string) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
