// Package siteinfo holds the public business details the chat assistant
// hands out and the widget displays.
package siteinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Service is one offering listed on the site.
type Service struct {
	Name     string  `json:"name"`
	PriceUSD float64 `json:"price_usd"`
	Desc     string  `json:"desc"`
}

// SiteInfo is returned verbatim by GET /api/siteinfo.
type SiteInfo struct {
	Website  string    `json:"website"`
	Phone    string    `json:"phone"`
	Email    string    `json:"email"`
	Booking  string    `json:"booking"`
	Services []Service `json:"services"`
}

// Default returns the stock site configuration.
func Default() SiteInfo {
	return SiteInfo{
		Website: "https://example.com",
		Phone:   "+1-555-123-4567",
		Email:   "owner@example.com",
		Booking: "https://example.com/book",
		Services: []Service{
			{Name: "Basic Website Package", PriceUSD: 49, Desc: "Landing page + contact form"},
			{Name: "Business Website", PriceUSD: 199, Desc: "5 pages + CMS, SEO basics"},
			{Name: "E-commerce Starter", PriceUSD: 349, Desc: "Shop + payments + 10 products"},
			{Name: "Monthly Maintenance", PriceUSD: 25, Desc: "Updates + backups, per month"},
			{Name: "SEO Booster (3 months)", PriceUSD: 90, Desc: "Local SEO + monthly report"},
		},
	}
}

// Load reads a JSON site file. Fields missing from the file keep their
// Default values.
func Load(path string) (SiteInfo, error) {
	info := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return info, fmt.Errorf("siteinfo: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("siteinfo: decode %s: %w", path, err)
	}
	return info, nil
}

// Overrides are single-field replacements, typically from the environment.
type Overrides struct {
	Website string
	Phone   string
	Email   string
	Booking string
}

// Apply returns a copy of info with every non-empty override applied.
func (info SiteInfo) Apply(o Overrides) SiteInfo {
	if v := strings.TrimSpace(o.Website); v != "" {
		info.Website = v
	}
	if v := strings.TrimSpace(o.Phone); v != "" {
		info.Phone = v
	}
	if v := strings.TrimSpace(o.Email); v != "" {
		info.Email = v
	}
	if v := strings.TrimSpace(o.Booking); v != "" {
		info.Booking = v
	}
	return info
}

// TelURI strips formatting from the phone number for a tel: link.
func (info SiteInfo) TelURI() string {
	var b strings.Builder
	for i, r := range info.Phone {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return "tel:" + b.String()
}

// MailtoURI is the mailto: link for the contact address.
func (info SiteInfo) MailtoURI() string {
	return "mailto:" + info.Email
}
