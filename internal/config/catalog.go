package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/footprint-shield/internal/domain/harassment"
	"github.com/bryanwahyu/footprint-shield/internal/domain/safety"
)

// Catalogs bundles the static tables the assessment engine runs on.
type Catalogs struct {
	Rubric     safety.Rubric      `yaml:"rubric"`
	Harassment harassment.Catalog `yaml:"harassment"`
}

// LoadCatalogs returns the built-in catalogs, replaced section by section
// by whatever the YAML file at path defines. An empty path means built-ins.
func LoadCatalogs(path string) (Catalogs, error) {
	out := Catalogs{Rubric: safety.DefaultRubric(), Harassment: harassment.DefaultCatalog()}
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return out, errors.Wrapf(err, "read catalog %s", path)
	}
	var file Catalogs
	if err := yaml.Unmarshal(data, &file); err != nil {
		return out, errors.Wrapf(err, "parse catalog %s", path)
	}

	if len(file.Rubric.Questions) > 0 {
		if err := validateRubric(file.Rubric); err != nil {
			return out, errors.Wrapf(err, "catalog %s", path)
		}
		out.Rubric = file.Rubric
	}
	if len(file.Harassment) > 0 {
		if err := validateHarassment(file.Harassment); err != nil {
			return out, errors.Wrapf(err, "catalog %s", path)
		}
		out.Harassment = file.Harassment
	}
	return out, nil
}

func validateRubric(r safety.Rubric) error {
	seen := map[string]bool{}
	for _, q := range r.Questions {
		switch {
		case q.ID == "" || q.Category == "":
			return errors.New("question id and category are required")
		case q.Weight <= 0:
			return errors.Errorf("question %s: weight must be positive", q.ID)
		case seen[q.ID]:
			return errors.Errorf("duplicate question id %s", q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}

func validateHarassment(c harassment.Catalog) error {
	for _, cat := range c {
		if cat.Name == "" || cat.Weight <= 0 || len(cat.Keywords) == 0 {
			return errors.Errorf("harassment category %q needs a name, positive weight and keywords", cat.Name)
		}
	}
	return nil
}
