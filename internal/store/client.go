// Package store предоставляет клиент для внешнего хранилища записей.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmeshcher/impact-dashboard/internal/model"
)

var (
	// ErrNotConfigured возвращается, если адрес хранилища не задан.
	ErrNotConfigured = errors.New("record store client not configured")
	// ErrUnexpectedStatus возвращается при ответе хранилища с неуспешным статусом.
	ErrUnexpectedStatus = errors.New("unexpected record store status")
)

// Client инкапсулирует HTTP-взаимодействие с хранилищем записей.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт HTTP-клиент для обращения к хранилищу по указанному адресу.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) endpoint(collection model.Collection, parts ...string) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", ErrNotConfigured
	}

	segments := append([]string{c.baseURL, string(collection)}, parts...)
	for i := 1; i < len(segments); i++ {
		segments[i] = url.PathEscape(segments[i])
	}
	return strings.Join(segments, "/"), nil
}

// Fetch запрашивает коллекцию записей. Пустое тело и null трактуются как пустая коллекция.
func (c *Client) Fetch(ctx context.Context, collection model.Collection, query url.Values) ([]model.Record, error) {
	u, err := c.endpoint(collection)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return []model.Record{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	records, err := DecodeRecords(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return records, nil
}

// Create отправляет новую запись в коллекцию и возвращает созданную запись.
func (c *Client) Create(ctx context.Context, collection model.Collection, payload json.RawMessage) (model.Record, error) {
	u, err := c.endpoint(collection)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	record, err := decodeRecord(body)
	if err != nil {
		return nil, fmt.Errorf("decode created %s: %w", collection, err)
	}
	return record, nil
}

// Delete удаляет запись коллекции по идентификатору.
func (c *Client) Delete(ctx context.Context, collection model.Collection, id string) error {
	u, err := c.endpoint(collection, id)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusAccepted:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
}
