package blogger

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/amaumene/catalogarr/internal/config"
	"github.com/amaumene/catalogarr/internal/metrics"
	"github.com/amaumene/catalogarr/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	bloggerapi "google.golang.org/api/blogger/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const maxRetries = 3

//go:embed post.html.tmpl
var postTemplateText string

var postTemplate = template.Must(template.New("post").Parse(postTemplateText))

// Publisher posts finalized catalog records to a Blogger blog
type Publisher struct {
	service     *bloggerapi.Service
	blogID      string
	botUsername string
	logger      *logrus.Logger
	newBackOff  func() backoff.BackOff
}

// NewPublisher creates a publisher. Without a blog ID the publisher is
// disabled and Publish is never expected to be called.
func NewPublisher(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts ...option.ClientOption) (*Publisher, error) {
	p := &Publisher{
		blogID:      cfg.BloggerBlogID,
		botUsername: cfg.BotUsername,
		logger:      logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
	}
	if !cfg.PublishingEnabled() {
		return p, nil
	}

	switch {
	case cfg.BloggerAPIKey != "":
		opts = append([]option.ClientOption{option.WithAPIKey(cfg.BloggerAPIKey)}, opts...)
	case cfg.BloggerCredentialsFile != "":
		opts = append([]option.ClientOption{option.WithCredentialsFile(cfg.BloggerCredentialsFile)}, opts...)
	}

	service, err := bloggerapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create blogger client: %w", err)
	}
	p.service = service

	return p, nil
}

// Enabled reports whether a blog is configured
func (p *Publisher) Enabled() bool {
	return p.service != nil && p.blogID != ""
}

// Publish creates a blog post for the record. It returns false on any
// failure; the caller keeps the persisted record either way.
func (p *Publisher) Publish(ctx context.Context, rec models.Record) bool {
	if !p.Enabled() {
		metrics.Publishes.WithLabelValues("skipped").Inc()
		return false
	}

	base := rec.Base()
	ctx, span := otel.Tracer("catalogarr/blogger").Start(ctx, "blogger.Publish")
	defer span.End()
	span.SetAttributes(attribute.String("record_id", base.ID))

	content, err := p.renderContent(rec)
	if err != nil {
		metrics.Publishes.WithLabelValues("failed").Inc()
		p.logger.WithError(err).WithField("record_id", base.ID).Error("Failed to render blog post")
		return false
	}

	post := &bloggerapi.Post{
		Kind:    "blogger#post",
		Title:   Title(base),
		Content: content,
		Labels:  Labels(base),
	}

	var created *bloggerapi.Post
	operation := func() error {
		res, err := p.service.Posts.Insert(p.blogID, post).Context(ctx).Do()
		if err != nil {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code < http.StatusInternalServerError {
				return backoff.Permanent(err)
			}
			return err
		}
		created = res
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		metrics.Publishes.WithLabelValues("failed").Inc()
		p.logger.WithError(err).WithFields(logrus.Fields{
			"record_id": base.ID,
			"title":     post.Title,
		}).Error("Failed to publish to Blogger")
		return false
	}

	metrics.Publishes.WithLabelValues("published").Inc()
	p.logger.WithFields(logrus.Fields{
		"record_id": base.ID,
		"title":     post.Title,
		"post_url":  created.Url,
	}).Info("Published to Blogger")

	return true
}

// Title renders "<name> (<year>) [Dubbed ]<Type> Download"
func Title(base *models.CatalogRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) ", base.Name, base.YearLabel())
	if base.IsDubbed {
		sb.WriteString("Dubbed ")
	}
	sb.WriteString(typeLabel(base.Type))
	sb.WriteString(" Download")
	return sb.String()
}

// Labels returns the post labels: type, year, dubbed flag, genres and the
// first two actors, without empties or duplicates
func Labels(base *models.CatalogRecord) []string {
	candidates := []string{typeLabel(base.Type)}
	if base.Year != nil {
		candidates = append(candidates, base.YearLabel())
	}
	if base.IsDubbed {
		candidates = append(candidates, "Dubbed")
	}
	candidates = append(candidates, base.Genre...)
	actors := base.Actors
	if len(actors) > 2 {
		actors = actors[:2]
	}
	candidates = append(candidates, actors...)

	seen := make(map[string]bool, len(candidates))
	labels := make([]string, 0, len(candidates))
	for _, l := range candidates {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
	}
	return labels
}

func typeLabel(ct models.ContentType) string {
	return cases.Title(language.English).String(ct.Label())
}

type downloadButton struct {
	URL     string
	Quality models.Quality
	Size    string
	Episode string
}

type postData struct {
	Name        string
	PosterURL   string
	Year        string
	Language    string
	Genre       string
	Actors      string
	Director    string
	Description string
	Seasons     int
	Episodes    int
	Buttons     []downloadButton
}

func (p *Publisher) renderContent(rec models.Record) (string, error) {
	base := rec.Base()
	data := postData{
		Name:        base.Name,
		PosterURL:   deref(base.PosterURL),
		Year:        base.YearLabel(),
		Language:    deref(base.Language),
		Genre:       strings.Join(base.Genre, ", "),
		Actors:      strings.Join(base.Actors, ", "),
		Description: deref(base.Description),
	}
	if data.Language == "" {
		data.Language = "N/A"
	}

	var series *models.SeriesRecord
	switch r := rec.(type) {
	case *models.MovieRecord:
		data.Director = deref(r.Director)
	case *models.SeriesRecord:
		series = r
	case *models.ShowRecord:
		series = &r.SeriesRecord
	}

	if series == nil {
		for _, f := range base.MediaFiles {
			data.Buttons = append(data.Buttons, p.button(f, ""))
		}
	} else {
		data.Seasons, data.Episodes = series.TotalSeasons, series.TotalEpisodes
		for _, group := range series.EpisodesBySeason() {
			episode := fmt.Sprintf("S%02dE%02d", group.Season, group.Episode)
			for _, f := range group.Files {
				data.Buttons = append(data.Buttons, p.button(f, episode))
			}
		}
	}

	var buf bytes.Buffer
	if err := postTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute post template: %w", err)
	}
	return buf.String(), nil
}

func (p *Publisher) button(f models.MediaFile, episode string) downloadButton {
	return downloadButton{
		URL:     p.deepLinkURL(f),
		Quality: f.Quality,
		Size:    f.Size,
		Episode: episode,
	}
}

func (p *Publisher) deepLinkURL(f models.MediaFile) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", p.botUsername, f.DeepLink())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
