package lifelog

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	perr "lifesync/internal/platform/errors"
)

const maxPageBytes = 16 << 20

// FetchPage performs GET /lifelogs for one page
func (c *Client) FetchPage(ctx context.Context, f Filter, cursor string) (Page, error) {
	q := url.Values{}
	q.Set("includeMarkdown", "true")
	q.Set("sort", "desc")
	q.Set("limit", strconv.Itoa(c.opts.PageSize))
	if f.Timezone != "" {
		q.Set("timezone", f.Timezone)
	}
	switch {
	case f.Date != "":
		q.Set("date", f.Date)
	case !f.Since.IsZero():
		q.Set("start", f.Since.UTC().Format(time.RFC3339))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u := c.opts.BaseURL + "/lifelogs?" + q.Encode()

	resp, err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-API-Key", c.opts.APIKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return Page{}, err
	}

	var lr listResponse
	if err := c.http.DecodeJSON(resp, maxPageBytes, &lr); err != nil {
		return Page{}, err
	}
	return Page{
		Lifelogs:   lr.Data.Lifelogs,
		NextCursor: lr.Meta.Lifelogs.NextCursor,
		Count:      lr.Meta.Lifelogs.Count,
	}, nil
}

// CheckCredential fetches one page of the last day to validate the key
func (c *Client) CheckCredential(ctx context.Context) Check {
	if !c.HasKey() {
		return Check{Status: CheckMissing, Detail: "no API key configured"}
	}
	p, err := c.FetchPage(ctx, Filter{Since: c.now().Add(-24 * time.Hour)}, "")
	switch {
	case err == nil:
		return Check{Status: CheckOK, Entries: len(p.Lifelogs)}
	case perr.IsCode(err, perr.ErrorCodeUnauthorized):
		return Check{Status: CheckUnauthorized, Detail: err.Error()}
	default:
		c.log.Warn().Err(err).Msg("credential check failed")
		return Check{Status: CheckUnreachable, Detail: err.Error()}
	}
}
