package menu

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ssafy/baperang/backend/internal/contracts"
	"github.com/ssafy/baperang/backend/pkg/logger"
)

// Fetcher downloads a page body; satisfied by *httputil.Client
type Fetcher interface {
	GetBody(ctx context.Context, url string) ([]byte, error)
}

// Importer scrapes the school's weekly meal page and publishes the menus
// ⭐ SSOT: 외부 식단 페이지 수집은 여기서만
type Importer struct {
	fetcher Fetcher
	catalog *Catalog
	baseURL string
	logger  *logger.Logger
}

// NewImporter creates a menu importer
func NewImporter(fetcher Fetcher, catalog *Catalog, baseURL string, log *logger.Logger) *Importer {
	return &Importer{fetcher: fetcher, catalog: catalog, baseURL: baseURL, logger: log}
}

// ImportResult summarizes one import run
type ImportResult struct {
	Published int      `json:"published"`
	Conflicts []string `json:"conflicts,omitempty"`
}

// Import fetches menus for the range and publishes each one. A date that
// already carries a different menu is reported, not overwritten.
func (i *Importer) Import(ctx context.Context, dr contracts.DateRange) (*ImportResult, error) {
	pageURL, err := i.pageURL(dr)
	if err != nil {
		return nil, err
	}

	body, err := i.fetcher.GetBody(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch menu page: %w", err)
	}

	menus, err := ParseMenuPage(body)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for _, m := range menus {
		if !dr.Contains(m.Date) {
			continue
		}
		if err := i.catalog.Publish(ctx, m); err != nil {
			if contracts.IsConflict(err) || contracts.IsValidation(err) {
				result.Conflicts = append(result.Conflicts, contracts.FormatDate(m.Date))
				continue
			}
			return result, err
		}
		result.Published++
	}

	i.logger.WithFields(map[string]interface{}{
		"range":     dr.String(),
		"published": result.Published,
		"conflicts": len(result.Conflicts),
	}).Info("Menu import completed")
	return result, nil
}

func (i *Importer) pageURL(dr contracts.DateRange) (string, error) {
	u, err := url.Parse(i.baseURL)
	if err != nil || u.Scheme == "" {
		return "", fmt.Errorf("invalid menu import url %q", i.baseURL)
	}
	q := u.Query()
	q.Set("from", dr.From.Format("20060102"))
	q.Set("to", dr.To.Format("20060102"))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var (
	pageDateRe = regexp.MustCompile(`(\d{4})[.\-/](\d{1,2})[.\-/](\d{1,2})`)
	// 알레르기 표기 "김치찌개(5.9.13.)" 또는 "김치찌개5.9." 제거
	allergenRe = regexp.MustCompile(`\s*\(?[0-9.]+\)?\s*$`)
)

// ParseMenuPage extracts menus from the meal table.
// 구조: table.meal-table tr > td.date | td.menu (<br> 구분) | td.note (휴일명)
func ParseMenuPage(body []byte) ([]*contracts.MenuItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse menu page: %w", err)
	}

	var menus []*contracts.MenuItem
	doc.Find("table.meal-table tr").Each(func(_ int, row *goquery.Selection) {
		date, ok := parsePageDate(row.Find("td.date").Text())
		if !ok {
			return
		}

		var dishes []string
		row.Find("td.menu").Each(func(_ int, cell *goquery.Selection) {
			html, err := cell.Html()
			if err != nil {
				return
			}
			for _, line := range splitBreaks(html) {
				if dish := cleanDish(line); dish != "" {
					dishes = append(dishes, dish)
				}
			}
		})

		var holiday []string
		if note := strings.TrimSpace(row.Find("td.note").Text()); note != "" {
			holiday = []string{note}
		}

		if len(dishes) == 0 && len(holiday) == 0 {
			return
		}

		menus = append(menus, &contracts.MenuItem{
			MenuID:   MenuIDFor(date),
			MenuName: strings.Join(dishes, ", "),
			Date:     date,
			Dishes:   dishes,
			Holiday:  holiday,
		})
	})

	return menus, nil
}

func parsePageDate(s string) (time.Time, bool) {
	m := pageDateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-1-2", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func splitBreaks(html string) []string {
	replacer := strings.NewReplacer("<br/>", "\n", "<br />", "\n", "<br>", "\n")
	lines := strings.Split(replacer.Replace(html), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(l))
		if err != nil {
			continue
		}
		out = append(out, doc.Text())
	}
	return out
}

func cleanDish(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "*#")
	s = allergenRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
