/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anvarKhakimov/jira-gantt-app/internal/config"
	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyPayload = errors.New("jira: empty payload")
	ErrMalformed    = errors.New("jira: malformed payload")
)

// Decoder turns Jira REST payloads (search results, issue arrays or a single
// issue fetched with expand=changelog) into raw issues.
type Decoder struct {
	blockerTypeField string
	leadTimeField    string
	log              zerolog.Logger
}

func NewDecoder(cfg config.Config, log zerolog.Logger) *Decoder {
	return &Decoder{blockerTypeField: cfg.JiraBlockerTypeField, leadTimeField: cfg.JiraLeadTimeField, log: log}
}

// Decode parses payload. Entries that are not issue objects or have no key are
// skipped and logged.
func (d *Decoder) Decode(payload []byte) ([]domain.RawIssue, error) {
	items, err := d.Split(payload)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RawIssue, 0, len(items))
	for i, raw := range items {
		var im map[string]any
		if err := json.Unmarshal(raw, &im); err != nil || im == nil {
			d.log.Warn().Int("index", i).Msg("jira: skipping non-object issue entry")
			continue
		}
		iss, ok := d.issue(im)
		if !ok {
			d.log.Warn().Int("index", i).Msg("jira: skipping issue without key")
			continue
		}
		out = append(out, iss)
	}
	return out, nil
}

// Split returns the individual issue documents of payload, keyed by nothing
// but their position.
func (d *Decoder) Split(payload []byte) ([]json.RawMessage, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if payload[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(payload, &arr); err != nil {
			return nil, fmt.Errorf("%w: issue array: %w", ErrMalformed, err)
		}
		return arr, nil
	}
	var head struct {
		Key    string            `json:"key"`
		Issues []json.RawMessage `json:"issues"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if head.Issues != nil {
		return head.Issues, nil
	}
	if head.Key != "" {
		return []json.RawMessage{json.RawMessage(payload)}, nil
	}
	return nil, ErrEmptyPayload
}

// Key extracts the issue key from a single issue document.
func (d *Decoder) Key(raw json.RawMessage) string {
	var head struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	return strings.TrimSpace(head.Key)
}

func (d *Decoder) issue(im map[string]any) (domain.RawIssue, bool) {
	key := strings.TrimSpace(toStrAny(im["key"]))
	if key == "" {
		return domain.RawIssue{}, false
	}
	fields, _ := im["fields"].(map[string]any)
	iss := domain.RawIssue{Key: key, Links: []domain.Link{}, History: []domain.HistoryEntry{}}
	iss.Summary = toStrAny(fields["summary"])
	if tp, ok := fields["issuetype"].(map[string]any); ok {
		iss.IssueType = toStrAny(tp["name"])
	}
	if st, ok := fields["status"].(map[string]any); ok {
		iss.Status = toStrAny(st["name"])
	}
	if p, ok := fields["parent"].(map[string]any); ok {
		iss.ParentKey = toStrAny(p["key"])
	}
	iss.Created = derefTime(parseTimeUTC(fields["created"]))
	if d.blockerTypeField != "" {
		iss.BlockerType = optionToString(fields[d.blockerTypeField])
	}
	if d.leadTimeField != "" {
		iss.BlockerLeadTime = optionToString(fields[d.leadTimeField])
	}

	if ls, ok := fields["issuelinks"].([]any); ok {
		for _, l0 := range ls {
			lm, _ := l0.(map[string]any)
			if l, ok := decodeLink(lm); ok {
				iss.Links = append(iss.Links, l)
			}
		}
	}

	if ch, ok := im["changelog"].(map[string]any); ok {
		if hs, ok := ch["histories"].([]any); ok {
			for _, h0 := range hs {
				hv, _ := h0.(map[string]any)
				if hv == nil {
					continue
				}
				iss.History = append(iss.History, decodeHistory(hv))
			}
		}
	}
	return iss, true
}

func decodeLink(lm map[string]any) (domain.Link, bool) {
	if lm == nil {
		return domain.Link{}, false
	}
	tp, _ := lm["type"].(map[string]any)
	typ := toStrAny(tp["name"])
	if typ == "" {
		return domain.Link{}, false
	}
	var dir domain.LinkDirection
	var other map[string]any
	if o, ok := lm["outwardIssue"].(map[string]any); ok {
		dir, other = domain.Outward, o
	} else if in, ok := lm["inwardIssue"].(map[string]any); ok {
		dir, other = domain.Inward, in
	} else {
		return domain.Link{}, false
	}
	li := domain.LinkedIssue{Key: toStrAny(other["key"])}
	if f, ok := other["fields"].(map[string]any); ok {
		li.Summary = toStrAny(f["summary"])
		if st, ok := f["status"].(map[string]any); ok {
			li.Status = toStrAny(st["name"])
		}
		li.Created = derefTime(parseTimeUTC(f["created"]))
	}
	if li.Key == "" {
		return domain.Link{}, false
	}
	return domain.Link{Type: typ, Direction: dir, Issue: li}, true
}

func decodeHistory(hv map[string]any) domain.HistoryEntry {
	h := domain.HistoryEntry{Created: derefTime(parseTimeUTC(hv["created"])), Items: []domain.FieldChange{}}
	if a, ok := hv["author"].(map[string]any); ok {
		h.Author = toStrAny(a["displayName"])
	}
	items, _ := hv["items"].([]any)
	for _, it0 := range items {
		itm, _ := it0.(map[string]any)
		if itm == nil {
			continue
		}
		h.Items = append(h.Items, domain.FieldChange{
			Field:   toStrAny(itm["field"]),
			FieldID: toStrAny(itm["fieldId"]),
			From:    toStrAny(itm["fromString"]),
			To:      toStrAny(itm["toString"]),
		})
	}
	return h
}

func parseTimeUTC(v any) *time.Time {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000-0700", "2006-01-02T15:04:05-0700"}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			tt := t.UTC()
			return &tt
		}
	}
	return nil
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func toStrAny(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// optionToString extracts Jira option values: objects with value/name, or lists of them
func optionToString(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if s, ok := t["value"].(string); ok {
			return s
		}
		if name, ok := t["name"].(string); ok {
			return name
		}
		return toStrAny(v)
	case []any:
		vals := make([]string, 0, len(t))
		for _, it := range t {
			switch m := it.(type) {
			case map[string]any:
				if s, ok := m["value"].(string); ok {
					vals = append(vals, s)
					continue
				}
				if name, ok := m["name"].(string); ok {
					vals = append(vals, name)
				}
			case string:
				vals = append(vals, m)
			}
		}
		return strings.Join(vals, ", ")
	default:
		return toStrAny(v)
	}
}
