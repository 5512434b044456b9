package office

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"boshamlan-scraper/helpers"
	"boshamlan-scraper/internal/scraper"
	"boshamlan-scraper/logger"
	pkgerrors "boshamlan-scraper/pkg/errors"
)

// Office is one real-estate office from the agents directory.
type Office struct {
	Name         string
	Description  string
	Phone        string
	Email        string
	URL          string
	ImageURL     string
	Instagram    string
	Website      string
	ListingCount int
}

// Listing is one property published by an office, admitted by date.
type Listing struct {
	OfficeName  string
	Title       string
	Description string
	Address     string
	Price       string
	ImageURL    string
	DetailURL   string
	Views       int
	PublishedAt time.Time
}

// Directory scrapes the offices index and each office's recent listings.
// The pages embed their data as JSON-LD, so a plain fetch is enough and
// no browser session is needed.
type Directory struct {
	AgentsURL string
	Filter    *scraper.AdmissionFilter
	Fetch     func(url string) (io.Reader, error)

	log *logger.Logger
}

// NewDirectory creates a directory scraper over the agents index URL.
func NewDirectory(agentsURL string, filter *scraper.AdmissionFilter) *Directory {
	if logger.Default == nil {
		logger.Init()
	}
	return &Directory{
		AgentsURL: agentsURL,
		Filter:    filter,
		Fetch:     helpers.FetchPage,
		log:       logger.Default.WithField("component", "offices"),
	}
}

// Offices reads the agents index and returns every office on it.
func (d *Directory) Offices() ([]Office, error) {
	nodes, err := d.fetchGraph(d.AgentsURL)
	if err != nil {
		return nil, err
	}

	var offices []Office
	for _, node := range nodes {
		for _, item := range node.listItems() {
			if item.isType("RealEstateAgent") {
				offices = append(offices, item.toOffice())
			}
		}
		if node.isType("RealEstateAgent") {
			offices = append(offices, node.toOffice())
		}
	}
	return offices, nil
}

// Listings reads one office page and returns its listings inside the
// admission window.
func (d *Directory) Listings(o Office) ([]Listing, error) {
	if o.URL == "" {
		return nil, nil
	}

	nodes, err := d.fetchGraph(o.URL)
	if err != nil {
		return nil, err
	}

	var listings []Listing
	for _, node := range nodes {
		candidates := node.listItems()
		if node.isType("RealEstateListing") {
			candidates = append(candidates, node)
		}
		for _, item := range candidates {
			if !item.isType("RealEstateListing") {
				continue
			}
			publishedAt, admitted := d.Filter.Admit("", item.DatePublished)
			if !admitted {
				continue
			}
			listing := item.toListing(o.Name)
			listing.PublishedAt = publishedAt
			listings = append(listings, listing)
		}
	}
	return listings, nil
}

// Collect gathers all offices and their admitted listings. A failing office
// page is logged and skipped; only an unreadable index fails the call.
func (d *Directory) Collect() ([]Office, []Listing, error) {
	offices, err := d.Offices()
	if err != nil {
		return nil, nil, err
	}

	var all []Listing
	for i := range offices {
		listings, err := d.Listings(offices[i])
		if err != nil {
			d.log.Warn().Err(err).Str("office", offices[i].Name).Msg("Skipping unreadable office page")
			continue
		}
		offices[i].ListingCount = len(listings)
		all = append(all, listings...)
	}

	d.log.Info().Int("offices", len(offices)).Int("listings", len(all)).Msg("Office directory collected")
	return offices, all, nil
}

// fetchGraph pulls every JSON-LD block on the page and flattens @graph
// wrappers into a single node list.
func (d *Directory) fetchGraph(url string) ([]ldNode, error) {
	reader, err := d.Fetch(url)
	if err != nil {
		return nil, pkgerrors.NewExtraction("offices", "", "fetch "+url, err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, pkgerrors.NewExtraction("offices", "", "parse "+url, err)
	}

	var nodes []ldNode
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		var node ldNode
		if err := json.Unmarshal([]byte(raw), &node); err == nil {
			if len(node.Graph) > 0 {
				nodes = append(nodes, node.Graph...)
			} else {
				nodes = append(nodes, node)
			}
			return
		}

		var list []ldNode
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			nodes = append(nodes, list...)
		}
	})
	return nodes, nil
}
