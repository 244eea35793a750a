// Package report renders build diagnostics as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sambeau/pyfront/config"
	"github.com/sambeau/pyfront/pkg/python/build"
)

// Options controls report rendering
type Options struct {
	Title  string
	Locale string    // e.g. en_US; also picks the heading casing rules
	Now    time.Time // zero means time.Now()
}

// OptionsFromConfig reads the report settings.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{Title: cfg.Report.Title, Locale: cfg.Report.Locale}
}

// Markdown renders a report for results.
func Markdown(results []*build.State, opts Options) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	title := cases.Title(languageTag(opts.Locale))
	heading := func(s string) string { return title.String(s) }

	var files, clean, failing, diagnostics int
	for _, s := range results {
		if s == nil {
			continue
		}
		files++
		diagnostics += len(s.Errors)
		switch {
		case s.HasErrors():
			failing++
		case len(s.Errors) == 0:
			clean++
		}
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "# %s\n\n", heading(opts.Title))
	fmt.Fprintf(&out, "%s\n\n", monday.Format(now, "Monday, 2 January 2006 15:04", mondayLocale(opts.Locale)))

	fmt.Fprintf(&out, "## %s\n\n", heading("summary"))
	out.WriteString("| Files | Clean | With errors | Diagnostics |\n")
	out.WriteString("|---:|---:|---:|---:|\n")
	fmt.Fprintf(&out, "| %d | %d | %d | %d |\n\n", files, clean, failing, diagnostics)

	if diagnostics > 0 {
		fmt.Fprintf(&out, "## %s\n\n", heading("files with diagnostics"))
		for _, s := range results {
			if s == nil || len(s.Errors) == 0 {
				continue
			}
			fmt.Fprintf(&out, "### `%s`\n\n", s.Path)
			out.WriteString("| Line | Column | Code | Class | Message |\n")
			out.WriteString("|---:|---:|---|---|---|\n")
			for _, e := range s.Errors {
				fmt.Fprintf(&out, "| %d | %d | %s | %s | %s |\n",
					e.Line, e.Column, e.Code, e.Class, cell(e.Message))
			}
			out.WriteString("\n")
		}
	}

	if clean > 0 {
		fmt.Fprintf(&out, "## %s\n\n", heading("clean files"))
		for _, s := range results {
			if s != nil && len(s.Errors) == 0 {
				fmt.Fprintf(&out, "- `%s`\n", s.Path)
			}
		}
		out.WriteString("\n")
	}

	return out.String()
}

// HTML renders the Markdown report as a standalone HTML page.
func HTML(results []*build.State, opts Options) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(results, opts)), &body); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	lang := languageTag(opts.Locale).String()
	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&out, "<html lang=\"%s\">\n<head>\n<meta charset=\"utf-8\">\n", html.EscapeString(lang))
	fmt.Fprintf(&out, "<title>%s</title>\n</head>\n<body>\n", html.EscapeString(opts.Title))
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.String(), nil
}

// cell makes text safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func languageTag(locale string) language.Tag {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return language.English
	}
	return tag
}

// mondayLocale maps a locale string to a monday.Locale, trying the
// language alone before falling back to en_US.
func mondayLocale(locale string) monday.Locale {
	locale = strings.ToLower(strings.ReplaceAll(locale, "-", "_"))

	localeMap := map[string]monday.Locale{
		"en":    monday.LocaleEnUS,
		"en_us": monday.LocaleEnUS,
		"en_gb": monday.LocaleEnGB,
		"de":    monday.LocaleDeDE,
		"de_de": monday.LocaleDeDE,
		"fr":    monday.LocaleFrFR,
		"fr_fr": monday.LocaleFrFR,
		"fr_ca": monday.LocaleFrCA,
		"es":    monday.LocaleEsES,
		"es_es": monday.LocaleEsES,
		"it":    monday.LocaleItIT,
		"it_it": monday.LocaleItIT,
		"pt":    monday.LocalePtPT,
		"pt_pt": monday.LocalePtPT,
		"pt_br": monday.LocalePtBR,
		"nl":    monday.LocaleNlNL,
		"nl_nl": monday.LocaleNlNL,
		"ru":    monday.LocaleRuRU,
		"ru_ru": monday.LocaleRuRU,
		"pl":    monday.LocalePlPL,
		"pl_pl": monday.LocalePlPL,
		"sv":    monday.LocaleSvSE,
		"sv_se": monday.LocaleSvSE,
		"ja":    monday.LocaleJaJP,
		"ja_jp": monday.LocaleJaJP,
		"zh":    monday.LocaleZhCN,
		"zh_cn": monday.LocaleZhCN,
	}

	if loc, ok := localeMap[locale]; ok {
		return loc
	}
	if lang, _, found := strings.Cut(locale, "_"); found {
		if loc, ok := localeMap[lang]; ok {
			return loc
		}
	}
	return monday.LocaleEnUS
}
