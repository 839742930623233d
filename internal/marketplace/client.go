// Package marketplace talks to the seller API: offer metadata, competitor
// search and offer updates.
package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/Roll1ngo/Last-item-bot/internal/config"
	"github.com/Roll1ngo/Last-item-bot/internal/logger"
	"github.com/Roll1ngo/Last-item-bot/internal/models"
)

// TokenProvider hands out the current access token and recovers from
// authorization failures. Implemented by auth.TokenManager.
type TokenProvider interface {
	Token() (string, error)
	ForceRefresh(ctx context.Context) error
}

// Client wraps the seller API endpoints used during a repricing cycle.
type Client struct {
	http     *resty.Client
	tokens   TokenProvider
	pageSize int
	currency string
	country  string
	brands   map[string]string
}

// NewClient builds a marketplace client with retries and timeouts from
// configuration.
func NewClient(cfg config.MarketplaceConfig, tokens TokenProvider) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{
		http:     httpClient,
		tokens:   tokens,
		pageSize: cfg.PageSize,
		currency: cfg.Currency,
		country:  "UA",
		brands:   cfg.Brands,
	}
}

type offerDetailsResponse struct {
	Payload struct {
		BrandID         string `json:"brand_id"`
		RegionID        string `json:"region_id"`
		OfferAttributes []struct {
			CollectionID string `json:"collection_id"`
			DatasetID    string `json:"dataset_id"`
		} `json:"offer_attributes"`
	} `json:"payload"`
}

type searchResponse struct {
	Payload struct {
		Results []struct {
			Username      string  `json:"username"`
			OfferID       string  `json:"offer_id"`
			Title         string  `json:"title"`
			UnitPrice     float64 `json:"unit_price"`
			DisplayPrice  float64 `json:"display_price"`
			OfferCurrency string  `json:"offer_currency"`
		} `json:"results"`
	} `json:"payload"`
}

// UpdateRequest carries the mutable offer fields a decision can change.
// Absent fields are left untouched on the listing.
type UpdateRequest struct {
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	Title          string           `json:"title,omitempty"`
	MinPurchaseQty int              `json:"min_purchase_qty,omitempty"`
}

// FetchOfferParams derives the competitor search parameters from the offer's
// metadata: the SEO term from the brand, the region, and the collection
// filter from the second offer attribute.
func (c *Client) FetchOfferParams(ctx context.Context, offerID string) (models.OfferParams, error) {
	var out offerDetailsResponse
	resp, err := c.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetQueryParams(map[string]string{
				"currency":             c.currency,
				"country":              c.country,
				"include_out_of_stock": "1",
				"include_inactive":     "1",
			}).
			SetResult(&out).
			Get("/offer/" + offerID)
	})
	if err != nil {
		return models.OfferParams{}, fmt.Errorf("failed to fetch offer %s: %w", offerID, err)
	}
	if resp.IsError() {
		return models.OfferParams{}, fmt.Errorf("offer %s details returned status %d", offerID, resp.StatusCode())
	}

	seoTerm, ok := c.brands[out.Payload.BrandID]
	if !ok {
		return models.OfferParams{}, fmt.Errorf("offer %s has unmapped brand %q", offerID, out.Payload.BrandID)
	}
	if len(out.Payload.OfferAttributes) < 2 {
		return models.OfferParams{}, fmt.Errorf("offer %s carries %d attributes, need at least 2",
			offerID, len(out.Payload.OfferAttributes))
	}
	attr := out.Payload.OfferAttributes[1]

	params := models.OfferParams{
		OfferID:         offerID,
		SeoTerm:         seoTerm,
		RegionID:        out.Payload.RegionID,
		FilterAttribute: attr.CollectionID + ":" + attr.DatasetID,
	}
	if !params.Complete() {
		return models.OfferParams{}, fmt.Errorf("offer %s metadata is incomplete: %+v", offerID, params)
	}
	return params, nil
}

// SearchCompetitors returns the cheapest-first page of listings matching the
// offer's search parameters.
func (c *Client) SearchCompetitors(ctx context.Context, params models.OfferParams, shortTitle string) ([]models.SearchResult, error) {
	var out searchResponse
	resp, err := c.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetQueryParams(map[string]string{
				"seo_term":    params.SeoTerm,
				"region_id":   params.RegionID,
				"q":           shortTitle,
				"filter_attr": params.FilterAttribute,
				"page_size":   strconv.Itoa(c.pageSize),
				"sort":        "lowest_price",
				"currency":    c.currency,
				"country":     c.country,
			}).
			SetResult(&out).
			Get("/offer/search")
	})
	if err != nil {
		return nil, fmt.Errorf("competitor search for %s failed: %w", params.OfferID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("competitor search for %s returned status %d", params.OfferID, resp.StatusCode())
	}

	results := make([]models.SearchResult, 0, len(out.Payload.Results))
	for _, r := range out.Payload.Results {
		results = append(results, models.SearchResult{
			Username:     r.Username,
			OfferID:      r.OfferID,
			Title:        r.Title,
			UnitPrice:    decimal.NewFromFloat(r.UnitPrice),
			DisplayPrice: decimal.NewFromFloat(r.DisplayPrice),
			Currency:     r.OfferCurrency,
		})
	}
	logger.Debugf("[%s] competitor search returned %d results", params.OfferID, len(results))
	return results, nil
}

type sellerOffersResponse struct {
	Payload struct {
		Results []struct {
			OfferID        string  `json:"offer_id"`
			Title          string  `json:"title"`
			UnitPrice      float64 `json:"unit_price"`
			MinPurchaseQty int     `json:"min_purchase_qty"`
		} `json:"results"`
		TotalResult int `json:"total_result"`
	} `json:"payload"`
}

// ListSellerOffers pages through every active listing of the seller.
func (c *Client) ListSellerOffers(ctx context.Context, sellerID string) ([]models.OwnerOffer, error) {
	var offers []models.OwnerOffer
	for page := 1; ; page++ {
		var out sellerOffersResponse
		resp, err := c.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
			return r.
				SetQueryParams(map[string]string{
					"page":      strconv.Itoa(page),
					"page_size": strconv.Itoa(c.pageSize),
					"currency":  c.currency,
					"country":   c.country,
				}).
				SetResult(&out).
				Get("/offer/seller/" + sellerID + "/offers")
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list offers of seller %s: %w", sellerID, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("seller %s offer listing returned status %d", sellerID, resp.StatusCode())
		}

		for _, r := range out.Payload.Results {
			offers = append(offers, models.OwnerOffer{
				OfferID:        r.OfferID,
				Title:          r.Title,
				UnitPrice:      decimal.NewFromFloat(r.UnitPrice),
				MinPurchaseQty: r.MinPurchaseQty,
			})
		}
		if len(out.Payload.Results) < c.pageSize {
			break
		}
		if total := out.Payload.TotalResult; total > 0 && len(offers) >= total {
			break
		}
	}
	logger.Debugf("seller %s has %d offers", sellerID, len(offers))
	return offers, nil
}

// UpdateOffer pushes a price, title or purchase quantity change back to the
// listing.
func (c *Client) UpdateOffer(ctx context.Context, offerID string, update UpdateRequest) error {
	resp, err := c.authorized(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(update).Put("/offer/" + offerID)
	})
	if err != nil {
		return fmt.Errorf("failed to update offer %s: %w", offerID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("offer %s update returned status %d: %s", offerID, resp.StatusCode(), resp.String())
	}
	return nil
}

// authorized runs one API call with the current access token and retries it
// once after a forced token refresh when the server rejects the token.
func (c *Client) authorized(ctx context.Context, call func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	resp, err := c.attempt(ctx, call)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusUnauthorized {
		return resp, nil
	}

	logger.Warnf("API rejected the access token, refreshing and retrying")
	if err := c.tokens.ForceRefresh(ctx); err != nil {
		return nil, fmt.Errorf("token refresh after rejection failed: %w", err)
	}
	return c.attempt(ctx, call)
}

func (c *Client) attempt(ctx context.Context, call func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, err
	}
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token)
	return call(req)
}
