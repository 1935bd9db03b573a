package sapsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/models"
)

// serviceLayerClient talks to the SAP Business One Service Layer. A session
// is established lazily with POST /b1s/v1/Login and renewed once when a
// request comes back 401. No retry, no backoff, no pagination: a list
// response is taken as complete.
type serviceLayerClient struct {
	baseURL   string
	companyDB string
	username  string
	password  string
	http      *http.Client
	session   string // B1SESSION cookie value
}

func newServiceLayerClient() (*serviceLayerClient, error) {
	baseURL := strings.TrimSpace(os.Getenv("SAP_BASE_URL"))
	if baseURL == "" {
		return nil, errors.New("SAP_BASE_URL is required")
	}
	companyDB := strings.TrimSpace(os.Getenv("SAP_COMPANY_DB"))
	username := strings.TrimSpace(os.Getenv("SAP_USERNAME"))
	password := os.Getenv("SAP_PASSWORD")
	if companyDB == "" || username == "" || password == "" {
		return nil, errors.New("SAP_COMPANY_DB, SAP_USERNAME and SAP_PASSWORD are required")
	}

	return &serviceLayerClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		companyDB: companyDB,
		username:  username,
		password:  password,
		http:      &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type loginRequest struct {
	CompanyDB string `json:"CompanyDB"`
	UserName  string `json:"UserName"`
	Password  string `json:"Password"`
}

func (c *serviceLayerClient) login(ctx context.Context) error {
	payload, err := json.Marshal(loginRequest{
		CompanyDB: c.companyDB,
		UserName:  c.username,
		Password:  c.password,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/b1s/v1/Login", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("service layer login error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "B1SESSION" {
			c.session = cookie.Value
			return nil
		}
	}
	return errors.New("service layer login did not return a B1SESSION cookie")
}

type listEnvelope struct {
	Value []json.RawMessage `json:"value"`
}

// QueryList runs a saved Service Layer SQL query and returns its raw rows.
func (c *serviceLayerClient) QueryList(ctx context.Context, queryName string, filter string) ([]json.RawMessage, error) {
	if c.session == "" {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}

	rows, status, err := c.doList(ctx, queryName, filter)
	if status == http.StatusUnauthorized {
		// session expired, renew once
		if err := c.login(ctx); err != nil {
			return nil, err
		}
		rows, _, err = c.doList(ctx, queryName, filter)
		return rows, err
	}
	return rows, err
}

func (c *serviceLayerClient) doList(ctx context.Context, queryName string, filter string) ([]json.RawMessage, int, error) {
	endpoint := fmt.Sprintf("%s/b1s/v1/SQLQueries('%s')/List", c.baseURL, queryName)
	if filter != "" {
		endpoint = endpoint + "?" + url.Values{"$filter": {filter}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: "B1SESSION", Value: c.session})

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("service layer error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed listEnvelope
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, resp.StatusCode, err
	}
	return parsed.Value, resp.StatusCode, nil
}

// saved query per domain; business partners share one query filtered by card type
func queryForDomain(domain string) (queryName string, filter string) {
	if domain == models.SyncDomainItem {
		name := strings.TrimSpace(os.Getenv("SAP_ITEM_QUERY"))
		if name == "" {
			name = "ItemMaster"
		}
		return name, ""
	}
	name := strings.TrimSpace(os.Getenv("SAP_BP_QUERY"))
	if name == "" {
		name = "BusinessPartnerMaster"
	}
	return name, fmt.Sprintf("CardType eq '%s'", models.CardTypeForDomain(domain))
}
