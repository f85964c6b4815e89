// Package epic fetches and classifies the Epic Games Store free-game
// promotions catalog.
package epic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/wenlin9/xdbot/internal/logger"
	"github.com/wenlin9/xdbot/pkg/constants"
)

// DefaultURL is the public free-games promotion endpoint.
const DefaultURL = "https://store-site-backend-static-ipv4.ak.epicgames.com/freeGamesPromotions?locale=zh-CN&country=CN&allowCountries=CN"

// Client queries the promotions catalog.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a client for the given endpoint. An empty url selects
// the public endpoint.
func NewClient(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: constants.DefaultEpicFetchTimeout},
	}
}

// Report holds one fetch's classification result. Both lists are local to
// the fetch that produced them; concurrent fetches never share state.
type Report struct {
	Now  []string // free right now
	Soon []string // free in an upcoming offer window
}

// Format renders the push/reply text.
func (r *Report) Format() string {
	var b strings.Builder
	b.WriteString("Epic免费游戏推送\n")

	if len(r.Now) > 0 {
		b.WriteString("\n当前免费：\n")
		for _, item := range r.Now {
			b.WriteString(item)
			b.WriteString("\n")
		}
	}

	if len(r.Soon) > 0 {
		b.WriteString("\n即将推出：\n")
		for _, item := range r.Soon {
			b.WriteString(item)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// catalog mirrors the consumed slice of the promotions payload.
type catalog struct {
	Data struct {
		Catalog struct {
			SearchStore struct {
				Elements []element `json:"elements"`
			} `json:"searchStore"`
		} `json:"Catalog"`
	} `json:"data"`
}

type element struct {
	Title string `json:"title"`
	Price struct {
		TotalPrice struct {
			OriginalPrice int `json:"originalPrice"`
		} `json:"totalPrice"`
	} `json:"price"`
	Promotions *promotions `json:"promotions"`
}

type promotions struct {
	PromotionalOffers         []offerGroup `json:"promotionalOffers"`
	UpcomingPromotionalOffers []offerGroup `json:"upcomingPromotionalOffers"`
}

type offerGroup struct {
	PromotionalOffers []offer `json:"promotionalOffers"`
}

type offer struct {
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	DiscountSetting struct {
		DiscountPercentage int `json:"discountPercentage"`
	} `json:"discountSetting"`
}

// FetchFreeGames fetches the catalog once and classifies every item.
func (c *Client) FetchFreeGames(ctx context.Context) (*Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build promotions request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch promotions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("promotions endpoint returned status %d", resp.StatusCode)
	}

	var payload catalog
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode promotions payload: %w", err)
	}

	report := classify(payload.Data.Catalog.SearchStore.Elements)

	logger.WithFields(map[string]interface{}{
		"elements": len(payload.Data.Catalog.SearchStore.Elements),
		"now":      len(report.Now),
		"soon":     len(report.Soon),
	}).Info("epic-promotions-classified")

	return report, nil
}

// classify splits catalog items into currently-free and upcoming-free lists.
// An item counts as free only when its nominal price is non-zero and the
// first offer of the relevant window discounts it to zero; permanently free
// items and plain paid items are excluded from both lists.
func classify(elements []element) *Report {
	report := &Report{}

	for _, item := range elements {
		price := item.Price.TotalPrice.OriginalPrice
		if price == 0 || item.Promotions == nil {
			continue
		}

		line := fmt.Sprintf("%s - %.2f元 - %s", cleanTitle(item.Title), float64(price)/100, offerWindow(item.Promotions))

		if current, ok := firstOffer(item.Promotions.PromotionalOffers); ok {
			if current.DiscountSetting.DiscountPercentage == 0 {
				report.Now = append(report.Now, line)
			}
		} else if upcoming, ok := firstOffer(item.Promotions.UpcomingPromotionalOffers); ok {
			if upcoming.DiscountSetting.DiscountPercentage == 0 {
				report.Soon = append(report.Soon, line)
			}
		}
	}

	return report
}

// firstOffer returns the first concrete offer of an offer-group list.
func firstOffer(groups []offerGroup) (offer, bool) {
	if len(groups) == 0 || len(groups[0].PromotionalOffers) == 0 {
		return offer{}, false
	}
	return groups[0].PromotionalOffers[0], true
}

// offerWindow renders "start——end" using the date part of the relevant
// offer's timestamps, preferring the active window over the upcoming one.
func offerWindow(p *promotions) string {
	if o, ok := firstOffer(p.PromotionalOffers); ok {
		return datePart(o.StartDate) + "——" + datePart(o.EndDate)
	}
	if o, ok := firstOffer(p.UpcomingPromotionalOffers); ok {
		return datePart(o.StartDate) + "——" + datePart(o.EndDate)
	}
	return ""
}

// datePart truncates an RFC 3339 timestamp to its date.
func datePart(ts string) string {
	date, _, _ := strings.Cut(ts, "T")
	return date
}

// cleanTitle strips the enclosing 《》 punctuation some locales carry.
func cleanTitle(title string) string {
	title = strings.TrimPrefix(title, "《")
	return strings.ReplaceAll(title, "》", "")
}
