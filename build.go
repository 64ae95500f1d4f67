package folio

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/folio/cms"
)

// Localizer rewrites a remote banner into a local asset.
type Localizer interface {
	Localize(ctx context.Context, uid, src string) (string, error)
}

// Generator prepares post pages ahead of serving by resolving them against
// the CMS and writing them into the page store.
type Generator struct {
	Source    ContentSource
	Store     *Store
	Count     int       // number of posts to prepare
	Localizer Localizer // optional
	Logger    echo.Logger
}

// BuildFailure records one post that could not be prepared.
type BuildFailure struct {
	UID string
	Err error
}

func (f BuildFailure) Error() string {
	return f.UID + ": " + f.Err.Error()
}

// BuildReport summarises a Generator run.
type BuildReport struct {
	Generated []string
	Failed    []BuildFailure
}

// Run prepares the first Count posts. A post that fails is recorded in the
// report and the run moves on; only failing to list posts aborts it.
func (g *Generator) Run(ctx context.Context) (BuildReport, error) {
	logger := g.Logger
	if logger == nil {
		logger = log.New("build")
	}
	count := g.Count
	if count <= 0 {
		count = 1
	}

	uids, err := g.Source.PostUIDs(ctx, count)
	if err != nil {
		return BuildReport{}, fmt.Errorf("build: list posts: %w", err)
	}

	var report BuildReport
	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !ValidSlug(uid) {
			report.Failed = append(report.Failed, BuildFailure{UID: uid, Err: errors.New("invalid uid")})
			continue
		}
		post, err := g.Source.Post(ctx, uid)
		if err != nil {
			logger.Errorf("build: %s: %v", uid, err)
			report.Failed = append(report.Failed, BuildFailure{UID: uid, Err: err})
			continue
		}
		g.localizeBanner(ctx, logger, &post)
		if err := g.Store.SavePost(post); err != nil {
			logger.Errorf("build: %s: %v", uid, err)
			report.Failed = append(report.Failed, BuildFailure{UID: uid, Err: err})
			continue
		}
		logger.Infof("build: prepared %s (%d min read)", uid, EstimateReadMinutes(post.Data.Content))
		report.Generated = append(report.Generated, uid)
	}
	return report, nil
}

// localizeBanner keeps the remote banner when the copy fails.
func (g *Generator) localizeBanner(ctx context.Context, logger echo.Logger, post *cms.Post) {
	if g.Localizer == nil || post.Data.Banner.URL == "" {
		return
	}
	local, err := g.Localizer.Localize(ctx, post.UID, post.Data.Banner.URL)
	if err != nil {
		logger.Warnf("build: %s: keeping remote banner: %v", post.UID, err)
		return
	}
	post.Data.Banner.URL = local
}
