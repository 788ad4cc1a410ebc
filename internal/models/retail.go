package models

import "strings"

// Categories is the Northwind catalog category vocabulary used for context
// extraction and retrieval cues.
var Categories = []string{
	"Beverages",
	"Condiments",
	"Confections",
	"Dairy Products",
	"Grains/Cereals",
	"Meat/Poultry",
	"Produce",
	"Seafood",
}

// CampaignNames lists known marketing campaign names (lower case) in match
// priority order. Campaigns maps each name to the catalog category it implies.
var CampaignNames = []string{"summer beverages", "winter classics"}

var Campaigns = map[string]string{
	"summer beverages": "Beverages",
	"winter classics":  "Confections",
}

// CampaignIn returns the first known campaign name mentioned in the text,
// or "" when none matches.
func CampaignIn(text string) string {
	low := strings.ToLower(text)
	for _, name := range CampaignNames {
		if strings.Contains(low, name) {
			return name
		}
	}
	return ""
}
