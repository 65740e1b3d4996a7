package edgar

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/alphaforge/internal/contracts"
)

// FilingLookback limits stored filings to the last 5 years
const FilingLookback = 5 * 365 * 24 * time.Hour

// submissions is the subset of /submissions/CIK##########.json we use
type submissions struct {
	CIK       string   `json:"cik"`
	Name      string   `json:"name"`
	Exchanges []string `json:"exchanges"`
	Filings   struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

// recentFilings is column-oriented (same index = same filing)
type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// Submissions is the company header plus tracked filings
type Submissions struct {
	Name      string
	Exchanges []string
	Filings   []contracts.Filing
}

// FetchFilings returns tracked-form filings of the last 5 years.
// CompanyID is left zero; the caller stamps it after the company row exists.
func (c *Client) FetchFilings(ctx context.Context, cik string) (*Submissions, error) {
	var sub submissions
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.dataURL, cik)
	if err := c.getJSON(ctx, url, &sub); err != nil {
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}

	tracked := make(map[string]bool, len(contracts.TrackedForms))
	for _, f := range contracts.TrackedForms {
		tracked[f] = true
	}

	cutoff := time.Now().Add(-FilingLookback)
	recent := sub.Filings.Recent

	var filings []contracts.Filing
	for i, form := range recent.Form {
		if !tracked[form] || i >= len(recent.FilingDate) || i >= len(recent.AccessionNumber) {
			continue
		}

		filed, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil || filed.Before(cutoff) {
			continue
		}

		f := contracts.Filing{
			AccessionNumber: recent.AccessionNumber[i],
			FormType:        form,
			FilingDate:      filed,
			DocumentURL:     c.documentURL(cik, recent.AccessionNumber[i], at(recent.PrimaryDocument, i)),
		}
		if rd, err := time.Parse("2006-01-02", at(recent.ReportDate, i)); err == nil {
			f.ReportDate = rd
		}
		filings = append(filings, f)
	}

	c.logger.WithFields(map[string]interface{}{
		"cik":     cik,
		"filings": len(filings),
	}).Debug("Fetched EDGAR filings")

	return &Submissions{
		Name:      sub.Name,
		Exchanges: sub.Exchanges,
		Filings:   filings,
	}, nil
}

// documentURL builds the archive link (primary document, or the full .txt submission)
func (c *Client) documentURL(cik, accession, primaryDoc string) string {
	cikNum := strings.TrimLeft(cik, "0")
	if n, err := strconv.ParseInt(cik, 10, 64); err == nil {
		cikNum = strconv.FormatInt(n, 10)
	}
	folder := strings.ReplaceAll(accession, "-", "")

	if primaryDoc != "" {
		return fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s", c.baseURL, cikNum, folder, primaryDoc)
	}
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s.txt", c.baseURL, cikNum, folder, accession)
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
