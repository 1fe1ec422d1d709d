package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	currency "github.com/malusev998/rate-sync"
)

const (
	NotionURL     = "https://api.notion.com/v1"
	NotionVersion = "2022-06-28"
)

type (
	// NotionProperties names the database columns a record is written to.
	NotionProperties struct {
		Pair     string
		Currency string
		Rate     string
		Source   string
		Status   string
	}

	NotionConfig struct {
		URL        string
		Version    string
		Token      string
		DatabaseID string
		Properties NotionProperties
		Client     *http.Client
	}

	NotionStorage struct {
		url        string
		version    string
		token      string
		databaseID string
		properties NotionProperties
		client     *http.Client
	}

	notionText struct {
		Content string `json:"content"`
	}

	notionRichText struct {
		PlainText string      `json:"plain_text,omitempty"`
		Text      *notionText `json:"text,omitempty"`
	}

	notionSelect struct {
		Name string `json:"name"`
	}

	notionProperty struct {
		Title  []notionRichText `json:"title,omitempty"`
		Select *notionSelect    `json:"select,omitempty"`
		Number *float64         `json:"number,omitempty"`
	}

	notionPage struct {
		ID         string                    `json:"id"`
		Properties map[string]notionProperty `json:"properties"`
	}

	notionParent struct {
		DatabaseID string `json:"database_id"`
	}

	notionPageRequest struct {
		Parent     *notionParent             `json:"parent,omitempty"`
		Properties map[string]notionProperty `json:"properties"`
	}

	notionTitleFilter struct {
		Equals string `json:"equals"`
	}

	notionFilter struct {
		Property string            `json:"property"`
		Title    notionTitleFilter `json:"title"`
	}

	notionQueryRequest struct {
		Filter notionFilter `json:"filter"`
	}

	notionQueryResponse struct {
		Results []notionPage `json:"results"`
	}
)

var DefaultNotionProperties = NotionProperties{
	Pair:     "Pair",
	Currency: "Currency Code",
	Rate:     "Mid Rate",
	Source:   "Source",
	Status:   "Status",
}

func NewNotionStorage(config NotionConfig) *NotionStorage {
	n := &NotionStorage{
		url:        strings.TrimRight(config.URL, "/"),
		version:    config.Version,
		token:      config.Token,
		databaseID: config.DatabaseID,
		properties: config.Properties,
		client:     config.Client,
	}

	if n.url == "" {
		n.url = NotionURL
	}

	if n.version == "" {
		n.version = NotionVersion
	}

	if n.client == nil {
		n.client = &http.Client{}
	}

	n.properties = n.properties.withDefaults()

	return n
}

func (p NotionProperties) withDefaults() NotionProperties {
	if p.Pair == "" {
		p.Pair = DefaultNotionProperties.Pair
	}

	if p.Currency == "" {
		p.Currency = DefaultNotionProperties.Currency
	}

	if p.Rate == "" {
		p.Rate = DefaultNotionProperties.Rate
	}

	if p.Source == "" {
		p.Source = DefaultNotionProperties.Source
	}

	if p.Status == "" {
		p.Status = DefaultNotionProperties.Status
	}

	return p
}

func (n *NotionStorage) Find(ctx context.Context, pair string) ([]currency.RecordWithID, error) {
	body := notionQueryRequest{
		Filter: notionFilter{
			Property: n.properties.Pair,
			Title:    notionTitleFilter{Equals: pair},
		},
	}

	resBody, err := n.do(ctx, http.MethodPost, fmt.Sprintf("/databases/%s/query", n.databaseID), body, http.StatusOK)

	if err != nil {
		return nil, err
	}

	var data notionQueryResponse

	if err := json.Unmarshal(resBody, &data); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}

	records := make([]currency.RecordWithID, 0, len(data.Results))

	for _, page := range data.Results {
		records = append(records, n.fromPage(page))
	}

	return records, nil
}

func (n *NotionStorage) Update(ctx context.Context, id string, record currency.Record) error {
	body := notionPageRequest{Properties: n.toProperties(record)}

	_, err := n.do(ctx, http.MethodPatch, "/pages/"+id, body, http.StatusOK, http.StatusCreated)

	return err
}

func (n *NotionStorage) Create(ctx context.Context, record currency.Record) (currency.RecordWithID, error) {
	body := notionPageRequest{
		Parent:     &notionParent{DatabaseID: n.databaseID},
		Properties: n.toProperties(record),
	}

	resBody, err := n.do(ctx, http.MethodPost, "/pages", body, http.StatusOK, http.StatusCreated)

	if err != nil {
		return currency.RecordWithID{}, err
	}

	var page notionPage

	if err := json.Unmarshal(resBody, &page); err != nil {
		return currency.RecordWithID{Record: record}, nil
	}

	return currency.RecordWithID{Record: record, ID: page.ID}, nil
}

func (n *NotionStorage) GetStorageProviderName() string {
	return "Notion"
}

func (n *NotionStorage) Close() error {
	n.client.CloseIdleConnections()
	return nil
}

func (n *NotionStorage) toProperties(record currency.Record) map[string]notionProperty {
	rate := record.Rate

	return map[string]notionProperty{
		n.properties.Pair:     {Title: []notionRichText{{Text: &notionText{Content: record.Pair}}}},
		n.properties.Currency: {Select: &notionSelect{Name: record.Currency}},
		n.properties.Rate:     {Number: &rate},
		n.properties.Source:   {Select: &notionSelect{Name: record.Source}},
		n.properties.Status:   {Select: &notionSelect{Name: string(record.Status)}},
	}
}

func (n *NotionStorage) fromPage(page notionPage) currency.RecordWithID {
	record := currency.RecordWithID{ID: page.ID}

	if title := page.Properties[n.properties.Pair].Title; len(title) > 0 {
		record.Pair = title[0].PlainText

		if record.Pair == "" && title[0].Text != nil {
			record.Pair = title[0].Text.Content
		}
	}

	if s := page.Properties[n.properties.Currency].Select; s != nil {
		record.Currency = s.Name
	}

	if number := page.Properties[n.properties.Rate].Number; number != nil {
		record.Rate = *number
	}

	if s := page.Properties[n.properties.Source].Select; s != nil {
		record.Source = s.Name
	}

	if s := page.Properties[n.properties.Status].Select; s != nil {
		record.Status = currency.Status(s.Name)
	}

	return record
}

func (n *NotionStorage) do(ctx context.Context, method, path string, payload interface{}, expected ...int) ([]byte, error) {
	body, err := json.Marshal(payload)

	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, n.url+path, bytes.NewReader(body))

	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Notion-Version", n.version)
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)

	if err != nil {
		return nil, err
	}

	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)

	if err != nil {
		return nil, err
	}

	if !containsStatus(expected, res.StatusCode) {
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, res.StatusCode, resBody)
	}

	return resBody, nil
}

func containsStatus(statuses []int, status int) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}

	return false
}
