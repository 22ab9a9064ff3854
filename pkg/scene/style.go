package scene

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/declutter/pkg/core/generalize"
	"github.com/matzehuels/declutter/pkg/errors"
)

// Style is a reusable set of priority groups and sprites, kept in TOML.
type Style struct {
	Groups  []generalize.Group `toml:"group"`
	Sprites []SpriteDef        `toml:"sprite"`
}

// ReadStyle decodes a TOML style from r.
func ReadStyle(r io.Reader) (*Style, error) {
	var st Style
	md, err := toml.NewDecoder(r).Decode(&st)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "decode style")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidStyle, "unknown style key %q", undecoded[0].String())
	}
	if len(st.Groups) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidStyle, "style declares no [[group]]")
	}
	return &st, nil
}

// LoadStyle reads the TOML style file at path.
func LoadStyle(path string) (*Style, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "style %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "open %s", path)
	}
	defer f.Close()
	return ReadStyle(f)
}

// ApplyStyle replaces the scene's groups and sprites with the style's.
func (s *Scene) ApplyStyle(st *Style) {
	s.Groups = append([]generalize.Group(nil), st.Groups...)
	s.Sprites = append([]SpriteDef(nil), st.Sprites...)
}
