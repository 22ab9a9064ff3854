package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/declutter/pkg/cache"
	"github.com/matzehuels/declutter/pkg/core/generalize"
	"github.com/matzehuels/declutter/pkg/errors"
)

// ReadScene decodes a JSON scene from r. It does not validate the scene.
func ReadScene(r io.Reader) (*Scene, error) {
	var s Scene
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode scene")
	}
	return &s, nil
}

// LoadScene reads and validates the scene file at path.
func LoadScene(path string) (*Scene, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	s, err := ReadScene(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteScene encodes s as indented JSON.
func WriteScene(w io.Writer, s *Scene) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func fingerprint(groups []generalize.Group, sprites []SpriteDef) string {
	return cache.HashJSON(struct {
		Groups  []generalize.Group `json:"groups"`
		Sprites []SpriteDef        `json:"sprites"`
	}{groups, sprites})
}
