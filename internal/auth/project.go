package auth

import (
	"encoding/json"
	"fmt"
)

// projectID extracts installed.project_id from a client secret file.
// google.ConfigFromJSON parses the same envelope but does not expose
// the project id, so the one field is pulled out here.
func projectID(secret []byte) (string, error) {
	var envelope struct {
		Installed struct {
			ProjectID string `json:"project_id"`
		} `json:"installed"`
	}

	if err := json.Unmarshal(secret, &envelope); err != nil {
		return "", fmt.Errorf("failed to parse client secret for project id: %w", err)
	}

	if envelope.Installed.ProjectID == "" {
		return "", fmt.Errorf("client secret has no installed.project_id")
	}

	return envelope.Installed.ProjectID, nil
}
