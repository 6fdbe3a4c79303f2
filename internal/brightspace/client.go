package brightspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/config"
)

// welcomeMarkers are matched case-insensitively against announcement titles.
var welcomeMarkers = []string{"bienvenida", "bienvenidos", "welcome"}

// Client wraps the Brightspace REST surface used by the sync engine:
// paginated org structure listings plus per-class detail endpoints.
// All calls are plain request/response; the only side effect is outbound HTTP.
type Client struct {
	baseURL        string
	apiVersion     string
	rootOrgUnitID  int
	semesterTypeID int
	pageSize       int
	pageLimit      int

	http   *http.Client
	tokens TokenProvider
	log    zerolog.Logger
}

// NewClient builds a Client from configuration. The TokenProvider is injected
// so tests can stub authentication entirely.
func NewClient(cfg *config.Config, tokens TokenProvider, log zerolog.Logger) *Client {
	return &Client{
		baseURL:        cfg.APIBaseURL,
		apiVersion:     cfg.APIVersion,
		rootOrgUnitID:  cfg.RootOrgUnitID,
		semesterTypeID: cfg.SemesterTypeID,
		pageSize:       cfg.SyncPageSize,
		pageLimit:      cfg.SyncPageLimit,
		http:           &http.Client{Timeout: cfg.APITimeout},
		tokens:         tokens,
		log:            log.With().Str("component", "brightspace_client").Logger(),
	}
}

// FetchTerms lists all semester org units under the root organization.
func (c *Client) FetchTerms(ctx context.Context) ([]OrgUnit, error) {
	endpoint := fmt.Sprintf("/d2l/api/lp/%s/orgstructure/%d/descendants/", c.apiVersion, c.rootOrgUnitID)
	params := url.Values{"ouTypeId": {fmt.Sprint(c.semesterTypeID)}}

	body, _, err := c.get(ctx, endpoint, params)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var terms []OrgUnit
	if err := json.Unmarshal(body, &terms); err != nil {
		return nil, &UpstreamError{URL: endpoint, Err: fmt.Errorf("decode terms: %w", err)}
	}
	c.log.Info().Int("count", len(terms)).Msg("terms fetched")
	return terms, nil
}

// FetchClasses lists every org unit under a semester, following the bookmark
// pagination carried in the X-Paging-Info header. The loop stops when the
// header reports no more items, a page comes back empty, or the defensive
// page cap is hit.
func (c *Client) FetchClasses(ctx context.Context, termOrgUnitID int) ([]OrgUnit, error) {
	endpoint := fmt.Sprintf("/d2l/api/lp/%s/orgstructure/%d/descendants/", c.apiVersion, termOrgUnitID)

	var all []OrgUnit
	bookmark := ""
	for page := 1; page <= c.pageLimit; page++ {
		params := url.Values{"pageSize": {fmt.Sprint(c.pageSize)}}
		if bookmark != "" {
			params.Set("bookmark", bookmark)
		}

		body, paging, err := c.get(ctx, endpoint, params)
		if err != nil {
			if errors.Is(err, errNotFound) {
				break
			}
			return nil, err
		}

		var classes []OrgUnit
		if err := json.Unmarshal(body, &classes); err != nil {
			return nil, &UpstreamError{URL: endpoint, Err: fmt.Errorf("decode classes page %d: %w", page, err)}
		}
		if len(classes) == 0 {
			break
		}
		all = append(all, classes...)
		c.log.Debug().
			Int("page", page).
			Int("page_count", len(classes)).
			Int("total", len(all)).
			Msg("classes page fetched")

		if paging == nil || !paging.HasMoreItems || paging.Bookmark == "" {
			break
		}
		bookmark = paging.Bookmark

		if page == c.pageLimit {
			c.log.Warn().Int("limit", c.pageLimit).Msg("pagination page cap reached")
		}
	}

	c.log.Info().Int("org_unit_id", termOrgUnitID).Int("count", len(all)).Msg("classes fetched")
	return all, nil
}

// FetchContent returns the table of contents of a class. A 404 yields an
// empty tree, distinguishing "no content" from a broken class reference.
func (c *Client) FetchContent(ctx context.Context, orgUnitID int) (*ContentTree, error) {
	endpoint := fmt.Sprintf("/d2l/api/le/%s/%d/content/toc", c.apiVersion, orgUnitID)

	body, _, err := c.get(ctx, endpoint, nil)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return &ContentTree{}, nil
		}
		return nil, err
	}

	var tree ContentTree
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, &UpstreamError{URL: endpoint, Err: fmt.Errorf("decode content: %w", err)}
	}
	return &tree, nil
}

// FetchGradeItems returns the grade book entries of a class; 404 means none.
func (c *Client) FetchGradeItems(ctx context.Context, orgUnitID int) ([]GradeItem, error) {
	endpoint := fmt.Sprintf("/d2l/api/le/%s/%d/grades/", c.apiVersion, orgUnitID)

	body, _, err := c.get(ctx, endpoint, nil)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var items []GradeItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &UpstreamError{URL: endpoint, Err: fmt.Errorf("decode grade items: %w", err)}
	}
	return items, nil
}

// FetchGradeCategories returns the grade categories of a class; 404 means none.
func (c *Client) FetchGradeCategories(ctx context.Context, orgUnitID int) ([]GradeCategory, error) {
	endpoint := fmt.Sprintf("/d2l/api/le/%s/%d/grades/categories/", c.apiVersion, orgUnitID)

	body, _, err := c.get(ctx, endpoint, nil)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var categories []GradeCategory
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, &UpstreamError{URL: endpoint, Err: fmt.Errorf("decode grade categories: %w", err)}
	}
	return categories, nil
}

// FetchAnnouncementHasWelcome reports whether any course announcement looks
// like a welcome message.
func (c *Client) FetchAnnouncementHasWelcome(ctx context.Context, orgUnitID int) (bool, error) {
	endpoint := fmt.Sprintf("/d2l/api/le/%s/%d/news/", c.apiVersion, orgUnitID)

	body, _, err := c.get(ctx, endpoint, nil)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return false, nil
		}
		return false, err
	}

	var news []Announcement
	if err := json.Unmarshal(body, &news); err != nil {
		return false, &UpstreamError{URL: endpoint, Err: fmt.Errorf("decode announcements: %w", err)}
	}
	return hasWelcomeAnnouncement(news), nil
}

func hasWelcomeAnnouncement(news []Announcement) bool {
	for _, n := range news {
		title := strings.ToLower(n.Title)
		for _, marker := range welcomeMarkers {
			if strings.Contains(title, marker) {
				return true
			}
		}
	}
	return false
}

// get performs one authenticated GET. On the first 401 it forces a token
// refresh and retries exactly once; a second 401 is terminal.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, *pagingInfo, error) {
	var lastErr error
	for attempt := 0; attempt <= 1; attempt++ {
		token, err := c.tokens.GetToken(ctx, attempt > 0)
		if err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) {
				return nil, nil, err
			}
			return nil, nil, &AuthError{Err: err}
		}

		body, paging, err := c.doRequest(ctx, endpoint, params, token)
		if err == nil {
			return body, paging, nil
		}

		var upstream *UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == http.StatusUnauthorized {
			if attempt == 0 {
				c.log.Info().Str("endpoint", endpoint).Msg("token rejected (401), forcing refresh")
				lastErr = err
				continue
			}
			// Second 401 after a forced refresh is terminal.
			return nil, nil, &AuthError{Err: err}
		}
		return nil, nil, err
	}
	return nil, nil, &AuthError{Err: lastErr}
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, token string) ([]byte, *pagingInfo, error) {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(reqURL, "?") {
			sep = "&"
		}
		reqURL += sep + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, &UpstreamError{URL: reqURL, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &UpstreamError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to body handling
	case http.StatusUnauthorized:
		return nil, nil, &UpstreamError{StatusCode: resp.StatusCode, URL: reqURL}
	case http.StatusForbidden:
		return nil, nil, &PermissionError{URL: reqURL}
	case http.StatusNotFound:
		c.log.Warn().Str("url", reqURL).Msg("resource not found (404)")
		return nil, nil, errNotFound
	default:
		return nil, nil, &UpstreamError{StatusCode: resp.StatusCode, URL: reqURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &UpstreamError{URL: reqURL, Err: fmt.Errorf("read body: %w", err)}
	}

	return body, extractPagingInfo(resp.Header), nil
}

// extractPagingInfo parses the X-Paging-Info header carrying
// {"HasMoreItems": bool, "Bookmark": string}. A missing or malformed header
// means no further pages.
func extractPagingInfo(h http.Header) *pagingInfo {
	raw := h.Get("X-Paging-Info")
	if raw == "" {
		return nil
	}
	var info pagingInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil
	}
	return &info
}
