package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
)

// EventUpload is one file attached to a new event.
type EventUpload struct {
	FieldName string
	FileName  string
	Content   io.Reader
}

// ListEvents fetches the public event list. No token is required.
func (c *Client) ListEvents(ctx context.Context) (*EventList, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/event"), nil)
	if err != nil {
		return nil, &Error{Op: "list_events", Message: "Failed to load events", Err: err}
	}
	var out EventList
	if err := c.do(req, "list_events", "Failed to load events", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEvent submits a new event as multipart form data. Poster and gallery
// uploads are streamed into the request body; text fields go in as form
// values. Requires an admin backend token.
func (c *Client) CreateEvent(ctx context.Context, token string, ev Event, uploads []EventUpload) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeEventForm(mw, ev, uploads)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/event"), pr)
	if err != nil {
		return &Error{Op: "create_event", Message: "Failed to create event", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	return c.do(req, "create_event", "Failed to create event", nil)
}

func writeEventForm(mw *multipart.Writer, ev Event, uploads []EventUpload) error {
	fields := map[string]string{
		"title":        ev.Title,
		"description":  ev.Description,
		"category":     ev.Category,
		"startDate":    ev.StartDate,
		"endDate":      ev.EndDate,
		"venue":        ev.Venue,
		"registration": strconv.FormatBool(ev.Registration),
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return err
		}
	}
	for _, tag := range ev.Tags {
		if err := mw.WriteField("tags", tag); err != nil {
			return err
		}
	}
	for _, up := range uploads {
		field := up.FieldName
		if field == "" {
			field = "gallery"
		}
		part, err := mw.CreateFormFile(field, up.FileName)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, up.Content); err != nil {
			return fmt.Errorf("upload %s: %w", up.FileName, err)
		}
	}
	return nil
}

// ListMembers fetches the member directory. The backend has shipped this
// list under several envelope shapes, so decoding is tolerant: a bare
// array, {"users": [...]}, or {"data": [...]} all work.
func (c *Client) ListMembers(ctx context.Context, token string) ([]Member, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/users"), nil)
	if err != nil {
		return nil, &Error{Op: "list_members", Message: "Failed to load members", Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var raw json.RawMessage
	if err := c.do(req, "list_members", "Failed to load members", &raw); err != nil {
		return nil, err
	}
	members, err := decodeMembers(raw)
	if err != nil {
		return nil, &Error{Op: "list_members", Message: "Failed to load members", Err: err}
	}
	return members, nil
}

func decodeMembers(raw json.RawMessage) ([]Member, error) {
	var direct []Member
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}
	var wrapped struct {
		Users []Member `json:"users"`
		Data  []Member `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Users != nil {
		return wrapped.Users, nil
	}
	return wrapped.Data, nil
}
