// Package filters reads dashboard filters from the query string and applies
// them to the data frames.
package filters

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"painel/internal/table"
	"painel/internal/validation"
)

// Query parameter names.
const (
	ParamParty    = "partido"
	ParamState    = "uf"
	ParamSort     = "ordem"
	ParamPageSize = "por_pagina"
	ParamPage     = "pagina"
	ParamSearch   = "busca"
	ParamSelected = "selecionado"
	ParamGroup    = "grupo"
	ParamBrand    = "marca"
	ParamFormat   = "formato"
)

// SortOption is one entry of a sort select.
type SortOption struct {
	Value string
	Label string
}

// DeputySortOptions lists the deputy table orderings.
var DeputySortOptions = []SortOption{
	{Value: table.ColNome, Label: "Nome"},
	{Value: table.ColPartido, Label: "Partido"},
	{Value: table.ColUF, Label: "Estado"},
}

// SEOSortOptions lists the SEO table orderings.
var SEOSortOptions = []SortOption{
	{Value: table.SortTraffic, Label: "Tráfego orgânico"},
	{Value: table.SortBrand, Label: "Marca"},
	{Value: table.SortBacklinks, Label: "Backlinks"},
}

// Deputies holds the sidebar and search state of the deputy tabs.
type Deputies struct {
	Parties  []string
	States   []string
	SortBy   string
	PageSize int
	Page     int
	Search   string
	Selected int64
}

// ParseDeputies reads deputy filters from the request query.
func ParseDeputies(c fiber.Ctx) Deputies {
	f := Deputies{
		Parties:  validation.Parties(queryMulti(c, ParamParty)),
		States:   validation.StatesFilter(queryMulti(c, ParamState)),
		SortBy:   table.ColNome,
		PageSize: validation.PageSize(c.Query(ParamPageSize)),
		Page:     validation.Page(c.Query(ParamPage)),
		Search:   validation.SearchTerm(c.Query(ParamSearch)),
	}
	for _, opt := range DeputySortOptions {
		if opt.Value == c.Query(ParamSort) {
			f.SortBy = opt.Value
		}
	}
	if id, err := strconv.ParseInt(c.Query(ParamSelected), 10, 64); err == nil && id > 0 {
		f.Selected = id
	}
	return f
}

// Active counts the party and state filters in use.
func (f Deputies) Active() int {
	return len(f.Parties) + len(f.States)
}

// Apply filters and sorts a frame.
func (f Deputies) Apply(df *table.Deputies) *table.Deputies {
	return df.ApplyFilters(f.Parties, f.States, f.SortBy)
}

// Values encodes the filters that shape the data, leaving out pagination
// and the selected deputy.
func (f Deputies) Values() url.Values {
	v := url.Values{}
	for _, p := range f.Parties {
		v.Add(ParamParty, p)
	}
	for _, s := range f.States {
		v.Add(ParamState, s)
	}
	if f.SortBy != table.ColNome {
		v.Set(ParamSort, f.SortBy)
	}
	if f.PageSize != validation.DefaultPageSize {
		v.Set(ParamPageSize, strconv.Itoa(f.PageSize))
	}
	if f.Search != "" {
		v.Set(ParamSearch, f.Search)
	}
	return v
}

// Query is Values encoded as a query string.
func (f Deputies) Query() string {
	return f.Values().Encode()
}

// PageQuery returns the query string of another page.
func (f Deputies) PageQuery(page int) string {
	v := f.Values()
	v.Set(ParamPage, strconv.Itoa(page))
	return v.Encode()
}

// HasParty reports whether p is selected, for the multi-select.
func (f Deputies) HasParty(p string) bool {
	return contains(f.Parties, p)
}

// HasState reports whether s is selected, for the multi-select.
func (f Deputies) HasState(s string) bool {
	return contains(f.States, s)
}

// SEO holds the filters of the SEO tab.
type SEO struct {
	Groups []string
	Brands []string
	SortBy string
}

// ParseSEO reads SEO filters from the request query.
func ParseSEO(c fiber.Ctx) SEO {
	f := SEO{
		Groups: cleanText(queryMulti(c, ParamGroup)),
		Brands: cleanText(queryMulti(c, ParamBrand)),
		SortBy: table.SortTraffic,
	}
	for _, opt := range SEOSortOptions {
		if opt.Value == c.Query(ParamSort) {
			f.SortBy = opt.Value
		}
	}
	return f
}

// Active counts the group and brand filters in use.
func (f SEO) Active() int {
	return len(f.Groups) + len(f.Brands)
}

// Apply filters and sorts SEO records.
func (f SEO) Apply(s *table.SEO) *table.SEO {
	return s.ApplyFilters(f.Groups, f.Brands, f.SortBy)
}

// Query encodes the filters as a query string.
func (f SEO) Query() string {
	v := url.Values{}
	for _, g := range f.Groups {
		v.Add(ParamGroup, g)
	}
	for _, b := range f.Brands {
		v.Add(ParamBrand, b)
	}
	if f.SortBy != table.SortTraffic {
		v.Set(ParamSort, f.SortBy)
	}
	return v.Encode()
}

// HasGroup reports whether g is selected.
func (f SEO) HasGroup(g string) bool {
	return contains(f.Groups, g)
}

// HasBrand reports whether b is selected.
func (f SEO) HasBrand(b string) bool {
	return contains(f.Brands, b)
}

func queryMulti(c fiber.Ctx, key string) []string {
	raw := c.Request().URI().QueryArgs().PeekMulti(key)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		// comma lists come from API clients
		for _, part := range strings.Split(string(v), ",") {
			out = append(out, part)
		}
	}
	return out
}

func cleanText(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || len(v) > 200 || contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
