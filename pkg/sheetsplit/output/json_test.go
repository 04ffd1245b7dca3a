package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/ukaji3/sheetsplit-go/pkg/sheetsplit/models"
)

func TestToJSON(t *testing.T) {
	result := &models.SplitResult{
		BookName:  "input.xlsx",
		SheetName: "Energiesnoeier",
		Groups: []models.GroupOutput{
			{Key: "Acme", Path: "/out/Acme/Startstanden_Acme.xlsx", Rows: 2},
			{Key: "Acme-Corp", Path: "/out/Acme-Corp/Startstanden_Acme-Corp.xlsx", Rows: 1, RawKeys: []string{"Acme/Corp", "Acme:Corp"}},
		},
		SkippedRows: 3,
	}

	data, err := ToJSON(result, false)
	require.NoError(t, err)

	doc := gjson.ParseBytes(data)
	assert.Equal(t, "input.xlsx", doc.Get("book_name").String())
	assert.Equal(t, int64(3), doc.Get("skipped_rows").Int())
	assert.Equal(t, int64(2), doc.Get("groups.#").Int())
	assert.Equal(t, "Acme", doc.Get("groups.0.key").String())
	assert.False(t, doc.Get("groups.0.raw_keys").Exists())
	assert.Equal(t, "Acme:Corp", doc.Get("groups.1.raw_keys.1").String())

	pretty, err := ToJSON(result, true)
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n  \"sheet_name\"")
}

func TestGroupsToJSONEmpty(t *testing.T) {
	data, err := GroupsToJSON(nil, false)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}
