package office

import (
	"encoding/json"
	"strings"

	"boshamlan-scraper/internal/scraper"
)

// ldNode is a permissive view of one JSON-LD node. The site emits both
// bare nodes and ItemList wrappers, and several fields switch between a
// string and an object across pages, so everything structural is decoded
// leniently.
type ldNode struct {
	Type            json.RawMessage `json:"@type"`
	Graph           []ldNode        `json:"@graph"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Telephone       string          `json:"telephone"`
	Email           string          `json:"email"`
	URL             string          `json:"url"`
	Image           json.RawMessage `json:"image"`
	SameAs          sameAsList      `json:"sameAs"`
	DatePublished   string          `json:"datePublished"`
	ItemListElement []ldListItem    `json:"itemListElement"`
	Offers          *ldOffer        `json:"offers"`
	About           *ldAbout        `json:"about"`

	InteractionStatistic json.RawMessage `json:"interactionStatistic"`
}

// ldListItem is an itemListElement entry: either a ListItem wrapper with
// the node under "item", or the node inlined.
type ldListItem struct {
	Item *ldNode `json:"item"`
	ldNode
}

type ldOffer struct {
	Price json.Number `json:"price"`
}

type ldAbout struct {
	Address json.RawMessage `json:"address"`
}

// sameAsList tolerates sameAs being a single string or a list.
type sameAsList []string

func (s *sameAsList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = sameAsList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = sameAsList(many)
	return nil
}

// isType reports whether @type matches want, whether emitted as a string
// or a list.
func (n ldNode) isType(want string) bool {
	var one string
	if err := json.Unmarshal(n.Type, &one); err == nil {
		return one == want
	}
	var many []string
	if err := json.Unmarshal(n.Type, &many); err == nil {
		for _, t := range many {
			if t == want {
				return true
			}
		}
	}
	return false
}

// listItems unwraps the node's itemListElement entries.
func (n ldNode) listItems() []ldNode {
	items := make([]ldNode, 0, len(n.ItemListElement))
	for _, el := range n.ItemListElement {
		if el.Item != nil {
			items = append(items, *el.Item)
		} else {
			items = append(items, el.ldNode)
		}
	}
	return items
}

// imageURL extracts the image whether it is a string, an object with a
// url field, or a list of either.
func (n ldNode) imageURL() string {
	return imageFrom(n.Image)
}

func imageFrom(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.URL != "" {
		return obj.URL
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return imageFrom(list[0])
	}
	return ""
}

func (n ldNode) toOffice() Office {
	o := Office{
		Name:        strings.TrimSpace(n.Name),
		Description: strings.TrimSpace(n.Description),
		Phone:       strings.TrimSpace(n.Telephone),
		Email:       strings.TrimSpace(n.Email),
		URL:         n.URL,
		ImageURL:    n.imageURL(),
	}
	for _, link := range n.SameAs {
		switch {
		case strings.Contains(link, "instagram.com"):
			o.Instagram = link
		case o.Website == "":
			o.Website = link
		}
	}
	return o
}

func (n ldNode) toListing(officeName string) Listing {
	l := Listing{
		OfficeName:  officeName,
		Title:       strings.TrimSpace(n.Name),
		Description: strings.TrimSpace(n.Description),
		ImageURL:    n.imageURL(),
		DetailURL:   n.URL,
	}
	if n.Offers != nil {
		l.Price = n.Offers.Price.String()
	}
	if n.About != nil {
		l.Address = addressFrom(n.About.Address)
	}
	l.Views = viewsFrom(n.InteractionStatistic)
	return l
}

// viewsFrom extracts the view counter from an InteractionCounter node,
// tolerating a single node or a list and a numeric or formatted string
// count ("1,234").
func viewsFrom(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var node struct {
		UserInteractionCount json.RawMessage `json:"userInteractionCount"`
	}
	if err := json.Unmarshal(raw, &node); err == nil && len(node.UserInteractionCount) > 0 {
		return countFrom(node.UserInteractionCount)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return viewsFrom(list[0])
	}
	return 0
}

func countFrom(raw json.RawMessage) int {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return scraper.ParseViews(n.String())
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return scraper.ParseViews(s)
	}
	return 0
}

// addressFrom extracts a display address from either a plain string or a
// PostalAddress object.
func addressFrom(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		StreetAddress   string `json:"streetAddress"`
		AddressLocality string `json:"addressLocality"`
		AddressRegion   string `json:"addressRegion"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{obj.StreetAddress, obj.AddressLocality, obj.AddressRegion} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}
