package enrich

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeasonContext is the auxiliary metadata attached to a period to bias the
// enrichment prompt: Brazilian season, notable events, and the consumption
// trend expected for the month.
type SeasonContext struct {
	Season string `yaml:"season"`
	Events string `yaml:"events"`
	Trend  string `yaml:"trend"`
}

// Calendar maps two-digit months ("01".."12") to their seasonal context.
type Calendar map[string]SeasonContext

// DefaultCalendar is the built-in Brazilian seasonal calendar.
func DefaultCalendar() Calendar {
	return Calendar{
		"01": {Season: "Summer", Events: "School holidays, intense heat", Trend: "cold drinks, salads"},
		"02": {Season: "Summer", Events: "Carnival, heat", Trend: "drinks, light dishes"},
		"03": {Season: "Autumn", Events: "Back to school, end of summer", Trend: "menu transition"},
		"04": {Season: "Autumn", Events: "Easter, mild temperatures", Trend: "chocolates, balanced dishes"},
		"05": {Season: "Autumn", Events: "Mother's Day, cooling down", Trend: "higher consumption, comfort food"},
		"06": {Season: "Winter", Events: "Festa Junina, cold setting in", Trend: "traditional food, hot drinks"},
		"07": {Season: "Winter", Events: "School holidays, intense cold", Trend: "soups, broths, barbecue"},
		"08": {Season: "Winter", Events: "Father's Day, cold", Trend: "meats, hot dishes"},
		"09": {Season: "Spring", Events: "Early spring, variable weather", Trend: "menu transition"},
		"10": {Season: "Spring", Events: "Children's Day, warming up", Trend: "family combos, sharing portions"},
		"11": {Season: "Spring", Events: "Black Friday, heat arriving", Trend: "promotions, drinks"},
		"12": {Season: "Summer", Events: "Christmas, New Year, holidays", Trend: "celebrations, heavy traffic"},
	}
}

// LoadCalendar reads a calendar override file. An empty path or a missing
// file yields the built-in defaults — a customized calendar is optional.
// Months absent from the file keep their default context.
func LoadCalendar(path string) (Calendar, error) {
	cal := DefaultCalendar()
	if path == "" {
		return cal, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cal, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading seasonal calendar %s: %w", path, err)
	}

	var overrides Calendar
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parsing seasonal calendar %s: %w", path, err)
	}
	for month, ctx := range overrides {
		cal[month] = ctx
	}
	return cal, nil
}

// Context returns the seasonal context for a two-digit month, or a neutral
// placeholder for unknown keys (weekly labels carry no month).
func (c Calendar) Context(month string) SeasonContext {
	if ctx, ok := c[month]; ok {
		return ctx
	}
	return SeasonContext{Season: "N/A", Events: "standard period", Trend: "general analysis"}
}
