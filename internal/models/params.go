package models

// OfferParams are the search parameters derived from an offer's metadata:
// the SEO term to query, the region to scope to, and the collection filter
// attribute. They change rarely, so they are cached between cycles.
type OfferParams struct {
	OfferID         string `json:"offer_id"`
	SeoTerm         string `json:"seo_term"`
	RegionID        string `json:"region_id"`
	FilterAttribute string `json:"filter_attribute"`
}

// Complete reports whether the parameter set can drive a competitor search.
func (p OfferParams) Complete() bool {
	return p.OfferID != "" && p.SeoTerm != "" && p.RegionID != "" && p.FilterAttribute != ""
}
