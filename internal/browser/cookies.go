package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Cookie is a browser cookie as exported by the usual cookie-editor extensions.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// LoadCookies reads one JSON cookie export.
func LoadCookies(path string) ([]playwright.OptionalCookie, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]playwright.OptionalCookie, len(cookies))
	for i, c := range cookies {
		out[i] = c.ToPlaywright()
	}
	return out, nil
}

// LoadCookiesDir loads every *.json export in dir. Unreadable files are logged
// and skipped; a missing dir yields no cookies.
func LoadCookiesDir(dir string, logger *zap.SugaredLogger) []playwright.OptionalCookie {
	if dir == "" {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		logger.Warnf("⚠️ Bad cookies path %s: %v", dir, err)
		return nil
	}
	sort.Strings(files)

	var all []playwright.OptionalCookie
	for _, f := range files {
		cookies, err := LoadCookies(f)
		if err != nil {
			logger.Warnf("⚠️ Could not load cookies from %s: %v. Continuing.", f, err)
			continue
		}
		logger.Infof("🍪 Loaded %d cookies from %s", len(cookies), filepath.Base(f))
		all = append(all, cookies...)
	}
	return all
}

func (c Cookie) ToPlaywright() playwright.OptionalCookie {
	oc := playwright.OptionalCookie{
		Name:  c.Name,
		Value: c.Value,
	}
	if c.Domain != "" {
		oc.Domain = playwright.String(c.Domain)
	}
	if c.Path != "" {
		oc.Path = playwright.String(c.Path)
	}
	if c.Expires > 0 {
		oc.Expires = playwright.Float(c.Expires)
	}
	if c.HTTPOnly {
		oc.HttpOnly = playwright.Bool(true)
	}
	if c.Secure {
		oc.Secure = playwright.Bool(true)
	}

	switch c.SameSite {
	case "Lax", "lax":
		oc.SameSite = playwright.SameSiteAttributeLax
	case "Strict", "strict":
		oc.SameSite = playwright.SameSiteAttributeStrict
	case "None", "no_restriction":
		oc.SameSite = playwright.SameSiteAttributeNone
	}
	return oc
}
