package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONParser_Parse_ValidInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []RawEvent
	}{
		{
			name:  "single event",
			input: `[{"name": "Coronation", "continuity": "Default Timeline", "in_world_time": "1024-03-01"}]`,
			expected: []RawEvent{
				{Name: "Coronation", Continuity: "Default Timeline", InWorldTime: "1024-03-01", LineNum: 1},
			},
		},
		{
			name:     "empty array",
			input:    "[]",
			expected: []RawEvent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := &JSONParser{}
			result, err := parser.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestJSONParser_Parse_AllFields(t *testing.T) {
	input := `[{
		"name": "Coronation of Aldric",
		"description": "Aldric is crowned king",
		"secrets": "The crown is cursed",
		"continuity": "Default Timeline",
		"campaign_id": "campaign-1",
		"in_world_time": "1024-03-01",
		"tags": ["royalty", "politics"],
		"outcomes": [{"entityID": "rec-1", "field": "status", "toValue": "King"}]
	}]`

	parser := &JSONParser{}
	result, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result, 1)

	event := result[0]
	assert.Equal(t, "Coronation of Aldric", event.Name)
	assert.Equal(t, "Aldric is crowned king", event.Description)
	assert.Equal(t, "The crown is cursed", event.Secrets)
	assert.Equal(t, "Default Timeline", event.Continuity)
	assert.Equal(t, "campaign-1", event.CampaignID)
	assert.Equal(t, "1024-03-01", event.InWorldTime)
	assert.Equal(t, []string{"royalty", "politics"}, event.Tags)
	assert.JSONEq(t, `[{"entityID": "rec-1", "field": "status", "toValue": "King"}]`, event.Outcomes)
}

func TestJSONParser_Parse_InvalidInput(t *testing.T) {
	parser := &JSONParser{}
	_, err := parser.Parse(strings.NewReader("not json"))
	require.Error(t, err)
}

func TestCSVParser_Parse_ValidInput(t *testing.T) {
	input := `name,description,continuity,in_world_time,tags,outcomes
Coronation,Aldric is crowned,Default Timeline,1024-03-01,royalty;politics,"[{""entityID"":""rec-1"",""field"":""status"",""toValue"":""King""}]"
Quiet evening,,Default Timeline,,,`

	parser := &CSVParser{}
	result, err := parser.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, "Coronation", result[0].Name)
	assert.Equal(t, "1024-03-01", result[0].InWorldTime)
	assert.Equal(t, []string{"royalty", "politics"}, result[0].Tags)
	assert.JSONEq(t, `[{"entityID":"rec-1","field":"status","toValue":"King"}]`, result[0].Outcomes)
	assert.Equal(t, 2, result[0].LineNum)

	assert.Equal(t, "Quiet evening", result[1].Name)
	assert.Empty(t, result[1].Tags)
	assert.Equal(t, 3, result[1].LineNum)
}

func TestCSVParser_Parse_MissingNameColumn(t *testing.T) {
	parser := &CSVParser{}
	_, err := parser.Parse(strings.NewReader("description,continuity\nfoo,bar"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestForFormat(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFormat("json"))
	assert.IsType(t, &CSVParser{}, ForFormat("CSV"))
	assert.Nil(t, ForFormat("yaml"))
}

func TestForFile(t *testing.T) {
	assert.IsType(t, &JSONParser{}, ForFile("events.json"))
	assert.IsType(t, &CSVParser{}, ForFile("/tmp/Events.CSV"))
	assert.Nil(t, ForFile("events.txt"))
}
