package script

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// settingsData is the on-disk shape of the local settings file
type settingsData struct {
	ScriptID string `yaml:"scriptId"`
	APIID    string `yaml:"API_ID"`
}

// Settings holds the local script identifiers. Mutations stay in memory
// until Store is called.
type Settings struct {
	path string
	data settingsData
}

// LoadSettings reads the settings file at path. An absent file yields
// zeroed settings; a file that exists but cannot be parsed is an error.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", path).Msg("No settings file, starting with defaults")
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := yaml.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	return s, nil
}

// ScriptID returns the Apps Script project id
func (s *Settings) ScriptID() string {
	return s.data.ScriptID
}

// APIID returns the executable API deployment id
func (s *Settings) APIID() string {
	return s.data.APIID
}

// SetScriptID sets the Apps Script project id
func (s *Settings) SetScriptID(id string) {
	s.data.ScriptID = id
}

// SetAPIID sets the executable API deployment id
func (s *Settings) SetAPIID(id string) {
	s.data.APIID = id
}

// Store writes the settings back to the file they were loaded from
func (s *Settings) Store() error {
	raw, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}

	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	log.Debug().Str("path", s.path).Str("script_id", s.data.ScriptID).Msg("Stored settings")
	return nil
}

// String implements fmt.Stringer for diagnostic logging
func (s *Settings) String() string {
	return "scriptId: " + s.data.ScriptID
}
