// Package output serializes split manifests.
package output

import (
	"encoding/json"

	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/models"
)

// ToJSON serializes a split result to JSON.
func ToJSON(result *models.SplitResult, pretty bool) ([]byte, error) {
	return marshal(result, pretty)
}

// GroupsToJSON serializes only the produced group outputs.
func GroupsToJSON(groups []models.GroupOutput, pretty bool) ([]byte, error) {
	if groups == nil {
		groups = []models.GroupOutput{}
	}
	return marshal(groups, pretty)
}

func marshal(v interface{}, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
