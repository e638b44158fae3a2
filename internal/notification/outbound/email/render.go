package email

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strconv"
	"strings"
	texttemplate "text/template"

	"github.com/samber/lo"
	"github.com/shandysiswandi/notifyd/internal/notification/entity"
	"github.com/shandysiswandi/notifyd/internal/pkg/mail"
)

//go:embed templates
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.New("html").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.New("text").Option("missingkey=zero").ParseFS(templateFS, "templates/*.txt"))
)

type immediateData struct {
	Name           string
	Icon           string
	Label          string
	Title          string
	Message        string
	Link           string
	PreferencesURL string
}

type digestEntry struct {
	Title   string
	Message string
	Link    string
}

type digestGroup struct {
	Icon    string
	Label   string
	Entries []digestEntry
}

type digestData struct {
	Name           string
	Date           string
	Groups         []digestGroup
	InboxURL       string
	PreferencesURL string
}

func appLink(appURL, path string) string {
	if appURL == "" {
		return ""
	}
	return strings.TrimRight(appURL, "/") + path
}

func renderImmediate(appURL string, to entity.Recipient, evt entity.Event) (mail.Message, error) {
	data := immediateData{
		Name:           to.DisplayName(),
		Icon:           evt.Type.Icon(),
		Label:          evt.Type.Label(),
		Title:          evt.Title,
		Message:        evt.Message,
		Link:           evt.Entity.Link(appURL),
		PreferencesURL: appLink(appURL, "/settings/notifications"),
	}

	html, text, err := render("immediate", data)
	if err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:       []string{to.Email},
		Subject:  data.Icon + " " + data.Label + ": " + evt.Title,
		TextBody: text,
		HTMLBody: html,
	}, nil
}

func renderDigest(appURL string, to entity.Recipient, items []entity.DigestItem) (mail.Message, error) {
	byType := lo.GroupBy(items, func(i entity.DigestItem) entity.EventType { return i.Type })
	order := lo.Uniq(lo.Map(items, func(i entity.DigestItem, _ int) entity.EventType { return i.Type }))

	groups := make([]digestGroup, 0, len(order))
	for _, typ := range order {
		groups = append(groups, digestGroup{
			Icon:  typ.Icon(),
			Label: typ.Label(),
			Entries: lo.Map(byType[typ], func(i entity.DigestItem, _ int) digestEntry {
				return digestEntry{Title: i.Title, Message: i.Message, Link: i.Entity.Link(appURL)}
			}),
		})
	}

	date := ""
	if len(items) > 0 {
		date = lo.MaxBy(items, func(a, b entity.DigestItem) bool { return a.CreatedAt.After(b.CreatedAt) }).
			CreatedAt.Format("Monday, January 2, 2006")
	}

	data := digestData{
		Name:           to.DisplayName(),
		Date:           date,
		Groups:         groups,
		InboxURL:       appLink(appURL, "/notifications"),
		PreferencesURL: appLink(appURL, "/settings/notifications"),
	}

	html, text, err := render("digest", data)
	if err != nil {
		return mail.Message{}, err
	}

	noun := "notifications"
	if len(items) == 1 {
		noun = "notification"
	}

	return mail.Message{
		To:       []string{to.Email},
		Subject:  "📬 Your Daily Summary - " + strconv.Itoa(len(items)) + " " + noun,
		TextBody: text,
		HTMLBody: html,
	}, nil
}

func render(name string, data any) (string, string, error) {
	var html bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return "", "", err
	}

	var text bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return "", "", err
	}

	return html.String(), strings.TrimSpace(text.String()), nil
}
