package usecase

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	texttemplate "text/template"

	"HousingAlerts/internal/domain"
)

const digestHTML = `<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #1e293b;">🏠 Housing Search</h1>
  <p>Bonjour,</p>
  <p>Voici les nouveaux logements pour votre recherche "{{.Name}}":</p>
{{- range .Items}}
  <div style="border: 1px solid #e2e8f0; border-radius: 12px; padding: 16px; margin-bottom: 16px;">
    <h3 style="margin: 0 0 8px 0; color: #1e293b;">{{.Title}}</h3>
    <p style="margin: 0; color: #64748b;">📍 {{.Address}}</p>
    <p style="margin: 8px 0; color: #2563eb; font-size: 20px; font-weight: bold;">CHF {{.Price}}</p>
    <p style="margin: 0; color: #64748b;">{{.Rooms}} pièces • {{.Area}} m²{{if .Distance}} • {{.Distance}} km{{end}}</p>
    <a href="{{.URL}}" style="display: inline-block; margin-top: 12px; color: #2563eb; text-decoration: none;">Voir l'annonce →</a>
  </div>
{{- end}}
</div>`

const digestText = `Nouveaux logements pour "{{.Name}}":
{{range .Items}}
- {{.Title}}
  {{.Address}}
  CHF {{.Price}} · {{.Rooms}} pièces · {{.Area}} m²{{if .Distance}} · {{.Distance}} km{{end}}
  {{.URL}}
{{end}}`

type digestItem struct {
	Title    string
	Address  string
	Price    int
	Rooms    string
	Area     string
	Distance string
	URL      string
}

type digestView struct {
	Name  string
	Items []digestItem
}

// DigestRenderer builds the notification sent for one saved search.
type DigestRenderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// NewDigestRenderer parses the built-in templates.
func NewDigestRenderer() *DigestRenderer {
	return &DigestRenderer{
		html: htmltemplate.Must(htmltemplate.New("digest.html").Parse(digestHTML)),
		text: texttemplate.Must(texttemplate.New("digest.txt").Parse(digestText)),
	}
}

// Render produces subject, HTML and text bodies for matches of search.
func (r *DigestRenderer) Render(search domain.SavedSearch, matches []domain.Match) (domain.Message, error) {
	view := digestView{Name: search.Name, Items: make([]digestItem, 0, len(matches))}
	for _, m := range matches {
		view.Items = append(view.Items, digestItem{
			Title:    m.Listing.Title,
			Address:  m.Listing.Address,
			Price:    m.Listing.Price,
			Rooms:    formatRooms(m.Listing.Rooms),
			Area:     formatArea(m.Listing.Area),
			Distance: formatDistance(m.DistanceKm),
			URL:      m.Listing.ListingURL,
		})
	}

	var html, text bytes.Buffer
	if err := r.html.Execute(&html, view); err != nil {
		return domain.Message{}, fmt.Errorf("render html digest: %w", err)
	}
	if err := r.text.Execute(&text, view); err != nil {
		return domain.Message{}, fmt.Errorf("render text digest: %w", err)
	}

	return domain.Message{
		Subject: fmt.Sprintf("🏠 %d nouveaux logements - %s", len(matches), search.Name),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func formatRooms(v *float64) string {
	if v == nil {
		return "?"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatArea(v *int) string {
	if v == nil {
		return "?"
	}
	return strconv.Itoa(*v)
}

func formatDistance(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
