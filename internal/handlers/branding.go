package handlers

import (
	"github.com/gofiber/fiber/v3"

	"taskforce/internal/config"
)

// BrandingData contains site branding information for templates.
type BrandingData struct {
	SiteTitle    string
	SiteTagline  string
	SiteFooter   string
	SiteLogoURL  string
	MapEnabled   bool
	MapTileToken string
}

// GetBrandingData returns branding data from config for template rendering.
func GetBrandingData(cfg *config.Config) BrandingData {
	return BrandingData{
		SiteTitle:    cfg.SiteTitle,
		SiteTagline:  cfg.SiteTagline,
		SiteFooter:   cfg.SiteFooter,
		SiteLogoURL:  cfg.SiteLogoURL,
		MapEnabled:   cfg.IsMapEnabled(),
		MapTileToken: cfg.MapTileToken,
	}
}

// MergeBranding adds branding data and the current path to a fiber.Map for
// template rendering.
func MergeBranding(data fiber.Map, cfg *config.Config, path string) fiber.Map {
	branding := GetBrandingData(cfg)
	data["SiteTitle"] = branding.SiteTitle
	data["SiteTagline"] = branding.SiteTagline
	data["SiteFooter"] = branding.SiteFooter
	data["SiteLogoURL"] = branding.SiteLogoURL
	data["MapEnabled"] = branding.MapEnabled
	data["MapTileToken"] = branding.MapTileToken
	data["CurrentPath"] = path
	return data
}
