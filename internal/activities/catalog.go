// Package activities is a static catalog of travel destinations with indoor
// and outdoor activities and nearby dining. It backs the sample activities
// MCP tool server.
package activities

import (
	_ "embed"
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

//go:embed data/activities.json
var defaultData []byte

var (
	ErrUnknownDestination = errors.New("destination not found")
	ErrUnknownActivity    = errors.New("activity not found")
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Dining struct {
	Name       string `json:"name"`
	Cuisine    string `json:"cuisine"`
	PriceRange string `json:"price_range"`
	Distance   string `json:"distance"`
}

type Activity struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Categories   []string `json:"categories"`
	Duration     string   `json:"duration"`
	Location     Location `json:"location"`
	PriceRange   string   `json:"price_range"`
	NearbyDining []Dining `json:"nearby_dining"`
}

type Destination struct {
	Name              string     `json:"name"`
	Country           string     `json:"country"`
	Description       string     `json:"description"`
	PopularAreas      []string   `json:"popular_areas"`
	IndoorActivities  []Activity `json:"indoor_activities"`
	OutdoorActivities []Activity `json:"outdoor_activities"`
}

type Catalog struct {
	destinations map[string]Destination
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultData)
}

func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Destinations map[string]Destination `json:"destinations"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse activities data")
	}
	if doc.Destinations == nil {
		doc.Destinations = map[string]Destination{}
	}
	return &Catalog{destinations: doc.Destinations}, nil
}

// CityID turns "San Francisco" into the catalog key "san_francisco".
func CityID(city string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(city)), " ", "_")
}

type DestinationInfo struct {
	Name                   string   `json:"name"`
	Country                string   `json:"country"`
	Description            string   `json:"description"`
	PopularAreas           []string `json:"popular_areas"`
	TotalIndoorActivities  int      `json:"total_indoor_activities"`
	TotalOutdoorActivities int      `json:"total_outdoor_activities"`
}

func (c *Catalog) Info(city string) (DestinationInfo, error) {
	d, id, err := c.lookup(city)
	if err != nil {
		return DestinationInfo{}, err
	}
	return DestinationInfo{
		Name:                   nameOr(d.Name, id),
		Country:                nameOr(d.Country, "Unknown"),
		Description:            d.Description,
		PopularAreas:           nonNil(d.PopularAreas),
		TotalIndoorActivities:  len(d.IndoorActivities),
		TotalOutdoorActivities: len(d.OutdoorActivities),
	}, nil
}

// Filter narrows activities. Empty fields match everything; matching is
// case-insensitive.
type Filter struct {
	Category string
	Duration string
}

type ActivityList struct {
	City                string     `json:"city"`
	Activities          []Activity `json:"activities"`
	Count               int        `json:"count"`
	AvailableCategories []string   `json:"available_categories"`
}

func (c *Catalog) Indoor(city string, f Filter) (ActivityList, error) {
	return c.activities(city, f, func(d Destination) []Activity { return d.IndoorActivities })
}

func (c *Catalog) Outdoor(city string, f Filter) (ActivityList, error) {
	return c.activities(city, f, func(d Destination) []Activity { return d.OutdoorActivities })
}

func (c *Catalog) activities(city string, f Filter, pick func(Destination) []Activity) (ActivityList, error) {
	d, id, err := c.lookup(city)
	if err != nil {
		return ActivityList{}, err
	}
	all := pick(d)

	out := []Activity{}
	for _, a := range all {
		if f.matches(a) {
			out = append(out, a)
		}
	}
	return ActivityList{
		City:                nameOr(d.Name, id),
		Activities:          out,
		Count:               len(out),
		AvailableCategories: categories(all),
	}, nil
}

func (f Filter) matches(a Activity) bool {
	if f.Duration != "" && !strings.EqualFold(a.Duration, f.Duration) {
		return false
	}
	if f.Category == "" {
		return true
	}
	for _, c := range a.Categories {
		if strings.EqualFold(c, f.Category) {
			return true
		}
	}
	return false
}

type DiningInfo struct {
	ActivityName string   `json:"activity_name"`
	ActivityID   string   `json:"activity_id"`
	City         string   `json:"city"`
	NearbyDining []Dining `json:"nearby_dining"`
	DiningCount  int      `json:"dining_count"`
}

// Dining looks the activity up among both indoor and outdoor activities.
func (c *Catalog) Dining(city, activityID string) (DiningInfo, error) {
	d, id, err := c.lookup(city)
	if err != nil {
		return DiningInfo{}, err
	}
	for _, list := range [][]Activity{d.IndoorActivities, d.OutdoorActivities} {
		for _, a := range list {
			if a.ID != activityID {
				continue
			}
			return DiningInfo{
				ActivityName: a.Name,
				ActivityID:   activityID,
				City:         nameOr(d.Name, id),
				NearbyDining: nonNil(a.NearbyDining),
				DiningCount:  len(a.NearbyDining),
			}, nil
		}
	}
	return DiningInfo{}, errors.Wrapf(ErrUnknownActivity, "activity %q in %s", activityID, id)
}

type DestinationSummary struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Country                string `json:"country"`
	IndoorActivitiesCount  int    `json:"indoor_activities_count"`
	OutdoorActivitiesCount int    `json:"outdoor_activities_count"`
}

// Destinations lists every destination ordered by id.
func (c *Catalog) Destinations() []DestinationSummary {
	ids := make([]string, 0, len(c.destinations))
	for id := range c.destinations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]DestinationSummary, 0, len(ids))
	for _, id := range ids {
		d := c.destinations[id]
		out = append(out, DestinationSummary{
			ID:                     id,
			Name:                   nameOr(d.Name, id),
			Country:                nameOr(d.Country, "Unknown"),
			IndoorActivitiesCount:  len(d.IndoorActivities),
			OutdoorActivitiesCount: len(d.OutdoorActivities),
		})
	}
	return out
}

func (c *Catalog) lookup(city string) (Destination, string, error) {
	id := CityID(city)
	d, ok := c.destinations[id]
	if !ok {
		return Destination{}, id, errors.Wrapf(ErrUnknownDestination, "destination %q", id)
	}
	return d, id, nil
}

func categories(list []Activity) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, a := range list {
		for _, c := range a.Categories {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

func nameOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
