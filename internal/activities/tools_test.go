package activities

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, res *mcp.CallToolResultFor[any]) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(*mcp.TextContent).Text), &out))
	return out
}

func TestTools_IndoorActivities(t *testing.T) {
	tools := NewTools(catalog(t))
	res, err := tools.IndoorActivities(context.Background(), nil, &mcp.CallToolParamsFor[ActivityParams]{
		Arguments: ActivityParams{City: "San Francisco", Category: "art"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	out := decode(t, res)
	require.Equal(t, "San Francisco", out["city"])
	require.EqualValues(t, 1, out["count"])
	require.Len(t, out["indoor_activities"], 1)
}

func TestTools_OutdoorActivitiesKey(t *testing.T) {
	res, err := NewTools(catalog(t)).OutdoorActivities(context.Background(), nil, &mcp.CallToolParamsFor[ActivityParams]{
		Arguments: ActivityParams{City: "new_york"},
	})
	require.NoError(t, err)
	require.Len(t, decode(t, res)["outdoor_activities"], 2)
}

func TestTools_UnknownCityIsToolError(t *testing.T) {
	res, err := NewTools(catalog(t)).DestinationInfo(context.Background(), nil, &mcp.CallToolParamsFor[CityParams]{
		Arguments: CityParams{City: "Atlantis"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, decode(t, res)["error"], "destination not found")
}

func TestTools_DiningAndList(t *testing.T) {
	tools := NewTools(catalog(t))

	res, err := tools.ActivityDining(context.Background(), nil, &mcp.CallToolParamsFor[DiningParams]{
		Arguments: DiningParams{City: "new york", ActivityID: "ny_broadway"},
	})
	require.NoError(t, err)
	require.Equal(t, "Broadway Show", decode(t, res)["activity_name"])

	res, err = tools.ListDestinations(context.Background(), nil, &mcp.CallToolParamsFor[ListParams]{})
	require.NoError(t, err)
	require.EqualValues(t, 2, decode(t, res)["count"])
}

func TestTools_Register(t *testing.T) {
	srv := mcp.NewServer(&mcp.Implementation{Name: "activities", Version: "1.0.0"}, nil)
	require.NotPanics(t, func() { NewTools(catalog(t)).Register(srv) })
}
