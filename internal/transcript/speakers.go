package transcript

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSpeakerClasses reads a YAML mapping of speaker label to class, e.g.
//
//	JOHN SMITH: moderator
//	JANE DOE: candidate
func LoadSpeakerClasses(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read speaker classes: %w", err)
	}
	classes := map[string]string{}
	if err := yaml.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("decode speaker classes: %w", err)
	}
	return classes, nil
}
