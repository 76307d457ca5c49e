// Package categories holds the fixed topic catalogue used for random memes.
package categories

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Category is a named group of example topics.
type Category struct {
	Key      string   `json:"-"`
	Name     string   `json:"name"`
	Examples []string `json:"examples"`
}

var catalogue = []Category{
	{
		Key:  "youth",
		Name: "Youth & Gen Z Roasts",
		Examples: []string{
			"LinkedIn influencers posting cringe motivation",
			"People who post gym selfies but never work out",
			"Instagram vs reality of college life",
			"Dating app conversations that go nowhere",
			"Kids who think they're entrepreneurs at 19",
		},
	},
	{
		Key:  "social_media",
		Name: "Social Media Hypocrisy",
		Examples: []string{
			"People who post mental health awareness then judge others",
			"Instagram influencers promoting toxic positivity",
			"LinkedIn posts that are clearly fake stories",
			"People who ghost you but watch all your stories",
			"Couples who post love quotes before breakup",
		},
	},
	{
		Key:  "work",
		Name: "Corporate & Work Life",
		Examples: []string{
			"HR posting work-life balance while scheduling weekend meetings",
			"Companies calling employees family then firing during recession",
			"Bosses who reply to emails at 11 PM expecting immediate response",
			"Job descriptions requiring 5 years experience for entry level",
			"People who pretend to be busy in office but scroll Instagram",
		},
	},
	{
		Key:  "relationships",
		Name: "Modern Dating & Relationships",
		Examples: []string{
			"People who say they want genuine connection but judge by followers",
			"Dating app bios that say looking for something serious",
			"Couples who break up over text after 2 year relationship",
			"People who play hard to get then complain about being single",
			"Guys who call themselves sigma males but live with parents",
		},
	},
	{
		Key:  "lifestyle",
		Name: "Lifestyle & Habits",
		Examples: []string{
			"People who buy expensive skincare but sleep at 3 AM",
			"Fitness influencers promoting unhealthy diet culture",
			"People who preach minimalism but buy everything on sale",
			"Health freaks who drink protein shakes but smoke cigarettes",
			"People who budget for investment but spend on Starbucks daily",
		},
	},
	{
		Key:  "family",
		Name: "Desi Family Drama",
		Examples: []string{
			"Parents who say money doesn't matter then ask about salary",
			"Relatives who judge your career choices but ask for favors",
			"Family WhatsApp groups spreading fake news",
			"Aunties who give relationship advice but have toxic marriages",
			"Parents who want independent kids but control everything",
		},
	},
	{
		Key:  "education",
		Name: "Education System Roasts",
		Examples: []string{
			"Teachers who say marks don't matter then rank students",
			"Colleges promoting practical learning with theoretical exams",
			"Online classes where only teacher talks to themselves",
			"Students who complain about exams but never study",
			"Engineering colleges promising 100% placement with 30% salary",
		},
	},
	{
		Key:  "trends",
		Name: "Current Trends & Viral Culture",
		Examples: []string{
			"Crypto bros who lost money but still give financial advice",
			"People who jump on every viral trend for attention",
			"NFT enthusiasts explaining digital ownership to confused parents",
			"Instagram reels copying exact same TikTok trends",
			"People who become experts after watching one YouTube video",
		},
	},
}

// All returns a copy of the catalogue in display order.
func All() []Category {
	out := make([]Category, len(catalogue))
	for i, c := range catalogue {
		c.Examples = append([]string(nil), c.Examples...)
		out[i] = c
	}
	return out
}

// ByKey returns the catalogue keyed by category key, the shape served by the categories endpoint.
func ByKey() map[string]Category {
	out := make(map[string]Category, len(catalogue))
	for _, c := range All() {
		out[c.Key] = c
	}
	return out
}

// Lookup finds a category by key, ignoring case.
func Lookup(key string) (Category, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, c := range All() {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// Pick is a random choice made from the catalogue.
type Pick struct {
	Category Category
	Topic    string
}

// Context is the meme context for the pick: the lower-cased category name.
func (p Pick) Context() string {
	return strings.ToLower(p.Category.Name)
}

// Random chooses a category and one of its example topics. intn returns a value in [0, n);
// nil selects math/rand/v2.
func Random(intn func(n int) int) Pick {
	if intn == nil {
		intn = rand.IntN
	}
	c := All()[intn(len(catalogue))]
	return Pick{Category: c, Topic: c.Examples[intn(len(c.Examples))]}
}

// RandomIn chooses an example topic from the category with the given key.
func RandomIn(key string, intn func(n int) int) (Pick, error) {
	c, ok := Lookup(key)
	if !ok {
		return Pick{}, fmt.Errorf("categories: unknown category %q", key)
	}
	if intn == nil {
		intn = rand.IntN
	}
	return Pick{Category: c, Topic: c.Examples[intn(len(c.Examples))]}, nil
}
