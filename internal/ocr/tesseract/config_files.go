package tesseract

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/anime-shed/codeshot-scanner/internal/ocr"
)

// configFiles writes each distinct set of init variables to a config file
// once and hands out its path. Paths stay valid until Close.
type configFiles struct {
	mu    sync.Mutex
	dir   string
	paths map[string]string
}

func newConfigFiles(dir string) *configFiles {
	return &configFiles{dir: dir, paths: map[string]string{}}
}

// Path returns the config file for vars, or "" when vars is empty
func (f *configFiles) Path(vars map[string]string) (string, error) {
	content := ocr.RenderConfigFile(vars)
	if len(content) == 0 {
		return "", nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.paths[string(content)]; ok {
		return p, nil
	}

	tmp, err := os.CreateTemp(f.dir, "codeshot-tesseract-*.config")
	if err != nil {
		return "", fmt.Errorf("create config file: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close config file: %w", err)
	}

	f.paths[string(content)] = tmp.Name()
	return tmp.Name(), nil
}

// Close removes every written config file
func (f *configFiles) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for k, p := range f.paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
		delete(f.paths, k)
	}
	return errors.Join(errs...)
}
