package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/studynote/internal/ai"
	"github.com/xxxsen/studynote/internal/config"
	"github.com/xxxsen/studynote/internal/fetch"
	"github.com/xxxsen/studynote/internal/model"
	"github.com/xxxsen/studynote/internal/pkg/errors"
	"go.uber.org/zap"
)

const (
	customSearchEndpoint = "https://www.googleapis.com/customsearch/v1"
	querySampleLimit     = 2000
	snippetLimit         = 1000
)

var quotedStringRegex = regexp.MustCompile(`"([^"]+)"`)

// Augmentation is a web-context block ready for prompt inclusion, plus the
// citations that map its [Web Source N] labels back to URLs.
type Augmentation struct {
	Context   string
	Citations []model.Citation
}

type Augmenter struct {
	client        ai.Client
	fetcher       *fetch.Client
	endpoint      string
	apiKey        string
	engineID      string
	numResults    int
	pageCharLimit int
}

func NewAugmenter(client ai.Client, fetcher *fetch.Client, cfg *config.Config) *Augmenter {
	return &Augmenter{
		client:        client,
		fetcher:       fetcher,
		endpoint:      customSearchEndpoint,
		apiKey:        cfg.Search.APIKey,
		engineID:      cfg.Search.EngineID,
		numResults:    cfg.Search.NumResults,
		pageCharLimit: cfg.Pipeline.WebPageCharLimit,
	}
}

func (a *Augmenter) Enabled() bool {
	return a.apiKey != "" && a.engineID != ""
}

// AugmentOptions sizes one augmentation pass. PerQuery falls back to the
// configured result count when zero; chat passes 1 to keep its context lean.
type AugmentOptions struct {
	Queries  int
	PerQuery int
	Budget   int
}

// Augment derives search queries from the material sample, runs them, and
// assembles fetched snippets into a labeled context block capped at the
// budget. Augmentation failures are non-fatal by design; callers log the
// error and continue without web context.
func (a *Augmenter) Augment(ctx context.Context, sample string, opts AugmentOptions) (*Augmentation, error) {
	if !a.Enabled() {
		return nil, fmt.Errorf("%w: web search not configured", errors.ErrInternal)
	}
	queries, err := a.generateQueries(ctx, sample, opts.Queries)
	if err != nil {
		return nil, err
	}
	perQuery := opts.PerQuery
	if perQuery <= 0 {
		perQuery = a.numResults
	}
	seen := make(map[string]struct{})
	var results []model.SearchResult
	for _, q := range queries {
		found, err := a.customSearch(ctx, q, perQuery)
		if err != nil {
			logutil.GetLogger(ctx).Warn("search query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		for _, r := range found {
			if _, dup := seen[r.URL]; dup {
				continue
			}
			seen[r.URL] = struct{}{}
			results = append(results, r)
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no web results", errors.ErrContentUnavailable)
	}
	return a.assemble(ctx, results, opts.Budget), nil
}

func (a *Augmenter) generateQueries(ctx context.Context, sample string, numQueries int) ([]string, error) {
	if len(sample) > querySampleLimit {
		sample = sample[:querySampleLimit]
	}
	prompt := fmt.Sprintf(`Based on the following study material, generate %d concise web search queries that would find supplementary, up-to-date information on its key topics.
Return ONLY a JSON array of strings, nothing else.

Material:
%s`, numQueries, sample)
	rsp, err := a.client.Generate(ctx, &ai.GenRequest{
		Messages:    []ai.Message{{Role: model.ChatRoleUser, Parts: []ai.Part{ai.TextPart(prompt)}}},
		Temperature: genTemp(0.4),
		JSONOutput:  true,
	})
	if err != nil {
		return nil, err
	}
	queries := parseQueries(rsp.Text)
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no usable search queries", errors.ErrContentUnavailable)
	}
	if len(queries) > numQueries {
		queries = queries[:numQueries]
	}
	return queries, nil
}

// parseQueries accepts a proper JSON array, or falls back to scavenging
// quoted strings out of whatever the model produced.
func parseQueries(text string) []string {
	text = strings.TrimSpace(text)
	var queries []string
	if err := json.Unmarshal([]byte(text), &queries); err == nil {
		return nonEmpty(queries)
	}
	var scavenged []string
	for _, m := range quotedStringRegex.FindAllStringSubmatch(text, -1) {
		scavenged = append(scavenged, m[1])
	}
	return nonEmpty(scavenged)
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type searchResponse struct {
	Items []struct {
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

func (a *Augmenter) customSearch(ctx context.Context, query string, num int) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("key", a.apiKey)
	params.Set("cx", a.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))
	body, err := a.fetcher.Get(ctx, a.endpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	var rsp searchResponse
	if err := json.Unmarshal(body, &rsp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	results := make([]model.SearchResult, 0, len(rsp.Items))
	for _, item := range rsp.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, model.SearchResult{URL: item.Link, Snippet: item.Snippet})
	}
	return results, nil
}

// assemble fetches each result page for a short excerpt (falling back to the
// search snippet) and stops once the character budget is spent.
func (a *Augmenter) assemble(ctx context.Context, results []model.SearchResult, budget int) *Augmentation {
	var sb strings.Builder
	var citations []model.Citation
	for _, r := range results {
		if sb.Len() >= budget {
			break
		}
		excerpt := a.excerpt(ctx, r)
		if excerpt == "" {
			continue
		}
		label := fmt.Sprintf("[Web Source %d]", len(citations)+1)
		block := fmt.Sprintf("%s %s\n%s\n\n", label, r.URL, excerpt)
		if remaining := budget - sb.Len(); len(block) > remaining {
			block = block[:remaining]
		}
		sb.WriteString(block)
		citations = append(citations, model.Citation{Ref: label, URL: r.URL})
	}
	return &Augmentation{Context: strings.TrimSpace(sb.String()), Citations: citations}
}

func (a *Augmenter) excerpt(ctx context.Context, r model.SearchResult) string {
	if page, err := a.fetcher.Get(ctx, r.URL); err == nil {
		if text := fetch.ExtractText(page, a.pageCharLimit); text != "" {
			return text
		}
	}
	snippet := strings.TrimSpace(r.Snippet)
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit]
	}
	return snippet
}

func genTemp(v float32) *float32 {
	return &v
}
