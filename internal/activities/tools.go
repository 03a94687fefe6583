package activities

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

type CityParams struct {
	City string `json:"city" mcp:"the city, e.g. 'san_francisco' or 'New York'"`
}

type ActivityParams struct {
	City     string `json:"city" mcp:"the city to get activities for"`
	Category string `json:"category,omitempty" mcp:"optional category filter, e.g. museum, art, nature, landmark"`
	Duration string `json:"duration,omitempty" mcp:"optional duration filter: short, half-day, full-day or evening"`
}

type DiningParams struct {
	City       string `json:"city" mcp:"the city where the activity is located"`
	ActivityID string `json:"activity_id" mcp:"the id of the activity, as returned by the activity tools"`
}

type ListParams struct{}

// Tools exposes a catalog as MCP tool handlers.
type Tools struct {
	catalog *Catalog
}

func NewTools(c *Catalog) *Tools {
	return &Tools{catalog: c}
}

// Register adds the five catalog tools to srv.
func (t *Tools) Register(srv *mcp.Server) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_destination_info",
		Description: "Get destination information including description and popular areas",
	}, t.DestinationInfo)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_indoor_activities",
		Description: "Get indoor activities for a city (museums, theaters, shopping), optionally filtered by category and duration",
	}, t.IndoorActivities)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_outdoor_activities",
		Description: "Get outdoor activities for a city (parks, trails, sightseeing), optionally filtered by category and duration",
	}, t.OutdoorActivities)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_activity_dining",
		Description: "Get dining recommendations near a specific activity",
	}, t.ActivityDining)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_available_destinations",
		Description: "List all available destinations",
	}, t.ListDestinations)
}

func (t *Tools) DestinationInfo(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[CityParams]) (*mcp.CallToolResultFor[any], error) {
	info, err := t.catalog.Info(params.Arguments.City)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(info), nil
}

func (t *Tools) IndoorActivities(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[ActivityParams]) (*mcp.CallToolResultFor[any], error) {
	a := params.Arguments
	list, err := t.catalog.Indoor(a.City, Filter{Category: a.Category, Duration: a.Duration})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(listResult("indoor_activities", list)), nil
}

func (t *Tools) OutdoorActivities(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[ActivityParams]) (*mcp.CallToolResultFor[any], error) {
	a := params.Arguments
	list, err := t.catalog.Outdoor(a.City, Filter{Category: a.Category, Duration: a.Duration})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(listResult("outdoor_activities", list)), nil
}

func (t *Tools) ActivityDining(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[DiningParams]) (*mcp.CallToolResultFor[any], error) {
	info, err := t.catalog.Dining(params.Arguments.City, params.Arguments.ActivityID)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(info), nil
}

func (t *Tools) ListDestinations(context.Context, *mcp.ServerSession, *mcp.CallToolParamsFor[ListParams]) (*mcp.CallToolResultFor[any], error) {
	list := t.catalog.Destinations()
	return jsonResult(map[string]any{"destinations": list, "count": len(list)}), nil
}

func listResult(key string, list ActivityList) map[string]any {
	return map[string]any{
		"city":                 list.City,
		key:                    list.Activities,
		"count":                list.Count,
		"available_categories": list.AvailableCategories,
	}
}

func jsonResult(v any) *mcp.CallToolResultFor[any] {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("failed to encode tool result")
		return errorResult(err)
	}
	return &mcp.CallToolResultFor[any]{Content: []mcp.Content{&mcp.TextContent{Text: string(b)}}}
}

func errorResult(err error) *mcp.CallToolResultFor[any] {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}
}
