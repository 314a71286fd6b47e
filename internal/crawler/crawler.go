// Package crawler builds a badges table from the READMEs of a GitHub
// organization's repositories.
//
// Each repository stands in for a crate: its numeric GitHub id becomes the
// crate_id column, and every linked badge image in its README becomes one
// row, classified against a provider Catalog.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/UnitVectorY-Labs/cratebadges/internal/badges"
	"github.com/UnitVectorY-Labs/cratebadges/internal/crates"
	"github.com/UnitVectorY-Labs/cratebadges/internal/dump"
)

const DefaultWorkerCount = 10

// Options configures a crawl.
type Options struct {
	Org            string
	IncludePrivate bool
	Workers        int
	Catalog        *Catalog
	Logger         *zap.Logger
}

// Stats summarizes a finished crawl.
type Stats struct {
	Repositories int
	Readmes      int
	Rows         int
	Errors       int
}

// NewClient returns a GitHub client authenticated with a static token.
func NewClient(ctx context.Context, token string) (*github.Client, error) {
	if token == "" {
		return nil, errors.New("GitHub token not set")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(ctx, ts)), nil
}

type repoResult struct {
	repo    string
	records []badges.Record
	readme  bool
	err     error
}

// Run crawls opts.Org and writes a badges table to out. Per-repository
// failures are logged and counted; only listing failures and write errors
// abort the crawl.
func Run(ctx context.Context, client *github.Client, opts Options, out io.Writer) (Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := opts.Catalog
	if catalog == nil {
		var err error
		if catalog, err = LoadCatalog(""); err != nil {
			return Stats{}, err
		}
	}

	logger.Info("fetching repositories", zap.String("org", opts.Org))
	repos, err := listRepositories(ctx, client, opts.Org)
	if err != nil {
		return Stats{}, err
	}
	logger.Info("found repositories", zap.Int("count", len(repos)))

	if !opts.IncludePrivate {
		var public []*github.Repository
		for _, repo := range repos {
			if !repo.GetPrivate() {
				public = append(public, repo)
			}
		}
		logger.Info("filtered to public repositories", zap.Int("count", len(public)))
		repos = public
	}

	jobs := make(chan *github.Repository, len(repos))
	results := make(chan repoResult, len(repos))
	var wg sync.WaitGroup

	workerCount := opts.Workers
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for repo := range jobs {
				results <- processRepo(ctx, client, catalog, repo)
			}
		}()
	}

	for _, repo := range repos {
		jobs <- repo
	}
	close(jobs)

	wg.Wait()
	close(results)

	stats := Stats{Repositories: len(repos)}
	var records []badges.Record
	for res := range results {
		if res.err != nil {
			logger.Warn("error processing repository", zap.String("repository", res.repo), zap.Error(res.err))
			stats.Errors++
			continue
		}
		if res.readme {
			stats.Readmes++
		}
		records = append(records, res.records...)
	}

	// Workers finish in any order; sort for a stable table. Badges of one
	// repository keep their README order.
	sort.SliceStable(records, func(i, j int) bool {
		a, _ := crates.ParseID(records[i].CrateID)
		b, _ := crates.ParseID(records[j].CrateID)
		return a < b
	})

	w, err := dump.NewWriter(out, badges.Columns...)
	if err != nil {
		return stats, err
	}
	for _, rec := range records {
		if err := w.Write(rec.Fields()...); err != nil {
			return stats, fmt.Errorf("failed to write row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("failed to write badges table: %w", err)
	}
	stats.Rows = len(records)

	logger.Info("crawl complete",
		zap.Int("rows", stats.Rows),
		zap.Int("readmes", stats.Readmes),
		zap.Int("errors", stats.Errors))
	return stats, nil
}

func listRepositories(ctx context.Context, client *github.Client, org string) ([]*github.Repository, error) {
	var all []*github.Repository
	opt := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		repos, resp, err := client.Repositories.ListByOrg(ctx, org, opt)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories: %w", err)
		}
		all = append(all, repos...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return all, nil
}

func processRepo(ctx context.Context, client *github.Client, catalog *Catalog, repo *github.Repository) repoResult {
	name := repo.GetName()
	res := repoResult{repo: name}

	// crate_id is 32 bits wide in the dump format.
	id, err := crates.ParseID(strconv.FormatInt(repo.GetID(), 10))
	if err != nil {
		res.err = fmt.Errorf("repository %s: %w", name, err)
		return res
	}

	readme, _, err := client.Repositories.GetReadme(ctx, repo.GetOwner().GetLogin(), name, nil)
	if err != nil {
		var errResp *github.ErrorResponse
		if errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound {
			return res
		}
		res.err = fmt.Errorf("failed to fetch readme for %s: %w", name, err)
		return res
	}

	content, err := readme.GetContent()
	if err != nil {
		res.err = fmt.Errorf("failed to decode readme for %s: %w", name, err)
		return res
	}
	res.readme = true

	for _, b := range extractBadges([]byte(content)) {
		badgeType, attrs := catalog.Classify(b)
		blob, err := json.Marshal(attrs)
		if err != nil {
			res.err = fmt.Errorf("failed to encode attributes for %s: %w", name, err)
			return res
		}
		res.records = append(res.records, badges.Record{
			CrateID:    id.String(),
			BadgeType:  badgeType,
			Attributes: string(blob),
		})
	}
	return res
}
