package entities

import (
	"net/url"
	"strconv"
	"strings"

	"certverify.client/pkg/utils"
)

// CertificatePageSize is the backend's fixed page size
const CertificatePageSize = 10

// CertificateFilter narrows the certificate listing
type CertificateFilter struct {
	Page     int    `form:"page"`
	Search   string `form:"search"`
	Type     string `form:"type"`
	Status   string `form:"status"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

// Query encodes f as listing query parameters. page and search are always
// sent; the remaining filters only when set.
func (f CertificateFilter) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(utils.NormalizePage(f.Page)))
	q.Set("search", strings.TrimSpace(f.Search))
	optional := map[string]string{
		"type":      f.Type,
		"status":    f.Status,
		"date_from": f.DateFrom,
		"date_to":   f.DateTo,
	}
	for key, value := range optional {
		if value = strings.TrimSpace(value); value != "" {
			q.Set(key, value)
		}
	}
	return q
}

// CertificateListResponse is the backend's paginated payload
type CertificateListResponse struct {
	Results []Certificate `json:"results"`
	Count   int           `json:"count"`
}

// CertificatePage is one page of certificates with pagination metadata
type CertificatePage struct {
	Results []Certificate        `json:"results"`
	Meta    utils.PaginationMeta `json:"meta"`
}

// NewCertificatePage wraps a backend listing for the requested page.
func NewCertificatePage(resp *CertificateListResponse, page int) *CertificatePage {
	results := resp.Results
	if results == nil {
		results = []Certificate{}
	}
	return &CertificatePage{
		Results: results,
		Meta:    utils.CalculateMeta(int64(resp.Count), page, CertificatePageSize),
	}
}
