package model

import "time"

// Site represents a storefront that has been scanned
type Site struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Product represents a single storefront product as returned by the
// WooCommerce Store API. Description fields are HTML-stripped by the
// feed fetcher before the product reaches the classifier.
type Product struct {
	ID               int64     `json:"id,omitempty"`
	Name             string    `json:"name"`
	Permalink        string    `json:"permalink"`         // Natural key within a site
	Description      string    `json:"description"`
	ShortDescription string    `json:"short_description"` // Optional on some stores
	CreatedAt        time.Time `json:"created_at,omitempty"`
}

// Identity returns the fields of the product that are echoed into
// verdicts for downstream joins.
type Identity struct {
	Name             string `json:"name"`
	Permalink        string `json:"permalink"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description"`
}

// Identity extracts the identity echo of a product.
func (p Product) Identity() Identity {
	return Identity{
		Name:             p.Name,
		Permalink:        p.Permalink,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
	}
}
