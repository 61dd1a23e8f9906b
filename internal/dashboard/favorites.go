// Package dashboard drives the bus proxy for every configured favorite and
// renders the results.
package dashboard

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/busontime/busontime/internal/models"
)

// Section is a named group of favorites. Flat lists load as one section
// with an empty name.
type Section struct {
	Name      string
	Favorites []models.Favorite
}

// Favorites is the static favorites configuration.
type Favorites struct {
	Sections []Section
}

// Flatten returns every favorite in display order.
func (f Favorites) Flatten() []models.Favorite {
	var all []models.Favorite
	for _, s := range f.Sections {
		all = append(all, s.Favorites...)
	}
	return all
}

// Len returns the number of favorites across all sections.
func (f Favorites) Len() int {
	n := 0
	for _, s := range f.Sections {
		n += len(s.Favorites)
	}
	return n
}

// LoadFavorites reads a favorites file. JSON is accepted since it is valid YAML.
func LoadFavorites(path string) (Favorites, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Favorites{}, errors.Wrap(err, "reading favorites")
	}
	return ParseFavorites(data)
}

// ParseFavorites accepts either a sequence of favorites or a mapping of
// section name to sequence. Section order follows the document.
func ParseFavorites(data []byte) (Favorites, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Favorites{}, errors.Wrap(err, "parsing favorites")
	}

	// an empty document has no content node
	if len(doc.Content) == 0 {
		return Favorites{}, nil
	}
	root := doc.Content[0]

	var favs Favorites
	switch root.Kind {
	case yaml.SequenceNode:
		list, err := decodeFavoriteList(root)
		if err != nil {
			return Favorites{}, err
		}
		if len(list) > 0 {
			favs.Sections = append(favs.Sections, Section{Favorites: list})
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			name := root.Content[i].Value
			list, err := decodeFavoriteList(root.Content[i+1])
			if err != nil {
				return Favorites{}, errors.Wrapf(err, "section %q", name)
			}
			favs.Sections = append(favs.Sections, Section{Name: name, Favorites: list})
		}
	default:
		return Favorites{}, errors.Errorf("favorites must be a list or a map of lists (line %d)", root.Line)
	}

	if err := favs.validate(); err != nil {
		return Favorites{}, err
	}
	return favs, nil
}

func decodeFavoriteList(node *yaml.Node) ([]models.Favorite, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, errors.Errorf("expected a list of favorites (line %d)", node.Line)
	}

	var list []models.Favorite
	if err := node.Decode(&list); err != nil {
		return nil, errors.Wrap(err, "decoding favorites")
	}
	return list, nil
}

// validate checks each favorite's fields. The same stop and route may appear
// more than once, in one section or across several; those entries share a
// single result.
func (f Favorites) validate() error {
	v := validator.New()

	for _, s := range f.Sections {
		for i, fav := range s.Favorites {
			if err := v.Struct(fav); err != nil {
				return errors.Wrapf(err, "favorite %d in %q", i+1, s.Name)
			}
		}
	}
	return nil
}
