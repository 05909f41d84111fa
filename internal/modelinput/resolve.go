// Package modelinput turns a model archive or directory into a directory
// holding a model descriptor, and reads the structural verdicts shipped
// alongside it.
package modelinput

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcc4mcc/mcc4mcc/internal/results"
)

// DescriptorFile is the model file every resolved directory must contain.
const DescriptorFile = "model.pnml"

// ErrUnresolvable is returned when a directory neither holds a model
// descriptor nor wraps exactly one entry.
var ErrUnresolvable = errors.New("cannot find a model in input")

// Input is a resolved model directory. Close removes any temporary
// directories created while resolving it.
type Input struct {
	Dir      string
	Instance string
	Model    string

	temps []string
}

// Close releases the temporary directories owned by the input.
func (in *Input) Close() error {
	var errs []error
	for i := len(in.temps) - 1; i >= 0; i-- {
		if err := os.RemoveAll(in.temps[i]); err != nil {
			errs = append(errs, err)
		}
	}
	in.temps = nil
	return errors.Join(errs...)
}

// Resolve unwraps path until it reaches a directory containing
// DescriptorFile. Files are extracted as tar archives into fresh
// temporary directories, and directories with a single entry are entered.
// The instance name is the resolved directory's base name unless
// instance is non-empty.
func Resolve(path, instance string) (*Input, error) {
	in := &Input{}
	current := path
	for {
		info, err := os.Stat(current)
		if err != nil {
			in.Close() //nolint:errcheck
			return nil, fmt.Errorf("resolving input: %w", err)
		}

		if !info.IsDir() {
			tmp, err := os.MkdirTemp("", "mcc4mcc-input-")
			if err != nil {
				in.Close() //nolint:errcheck
				return nil, fmt.Errorf("creating extraction directory: %w", err)
			}
			in.temps = append(in.temps, tmp)
			if err := extract(current, tmp); err != nil {
				in.Close() //nolint:errcheck
				return nil, err
			}
			current = tmp
			continue
		}

		if _, err := os.Stat(filepath.Join(current, DescriptorFile)); err == nil {
			break
		}

		entries, err := os.ReadDir(current)
		if err != nil {
			in.Close() //nolint:errcheck
			return nil, fmt.Errorf("reading %s: %w", current, err)
		}
		if len(entries) != 1 {
			in.Close() //nolint:errcheck
			return nil, fmt.Errorf("%s: %w", current, ErrUnresolvable)
		}
		current = filepath.Join(current, entries[0].Name())
	}

	// Container runtimes only bind absolute paths.
	dir, err := filepath.Abs(current)
	if err != nil {
		in.Close() //nolint:errcheck
		return nil, fmt.Errorf("resolving %s: %w", current, err)
	}
	in.Dir = dir
	in.Instance = instance
	if in.Instance == "" {
		in.Instance = instanceName(current)
	}
	model, ok := results.ModelOf(in.Instance)
	if !ok {
		in.Close() //nolint:errcheck
		return nil, fmt.Errorf("instance %q does not name a model", in.Instance)
	}
	in.Model = model
	return in, nil
}

// instanceName strips archive extensions from a directory's base name.
func instanceName(dir string) string {
	name := filepath.Base(dir)
	for _, ext := range []string{".tgz", ".tar.gz", ".tar"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
