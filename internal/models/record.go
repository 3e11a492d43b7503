package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Candidate is a (url, title) pair discovered on a catalog page.
type Candidate struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// TitleKey is the normalized title used for dedup lookups.
func (c Candidate) TitleKey() string {
	return NormalizeTitle(c.Title)
}

// NormalizeTitle trims and lowercases a title.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Tags groups the routed tag values of a detail page.
type Tags struct {
	Topics     JSONStringSlice `json:"topics"`
	Industries JSONStringSlice `json:"industries"`
	Products   JSONStringSlice `json:"products"`
}

// EmptyTags returns tags with every group present and empty.
func EmptyTags() Tags {
	return Tags{Topics: JSONStringSlice{}, Industries: JSONStringSlice{}, Products: JSONStringSlice{}}
}

// Normalize replaces nil groups with empty ones so they serialize as [].
func (t Tags) Normalize() Tags {
	if t.Topics == nil {
		t.Topics = JSONStringSlice{}
	}
	if t.Industries == nil {
		t.Industries = JSONStringSlice{}
	}
	if t.Products == nil {
		t.Products = JSONStringSlice{}
	}
	return t
}

// DetailRecord is the extracted content of one detail page. A non-empty Error
// marks a soft failure; the record is still kept.
type DetailRecord struct {
	URL          string          `json:"url"`
	Title        string          `json:"title"`
	Summary      string          `json:"summary"`
	KeyLearnings JSONStringSlice `json:"key_learnings"`
	Tags         Tags            `json:"tags"`
	Error        string          `json:"error,omitempty"`

	// extra keeps fields of historical records this version does not model.
	extra map[string]json.RawMessage
}

// NewDetailRecord seeds a record from a candidate with every field defaulted.
func NewDetailRecord(c Candidate) DetailRecord {
	return DetailRecord{
		URL:          c.URL,
		Title:        c.Title,
		KeyLearnings: JSONStringSlice{},
		Tags:         EmptyTags(),
	}
}

// Failed reports whether extraction recorded an error.
func (r DetailRecord) Failed() bool { return r.Error != "" }

// Normalize defaults missing collections before persistence.
func (r DetailRecord) Normalize() DetailRecord {
	if r.KeyLearnings == nil {
		r.KeyLearnings = JSONStringSlice{}
	}
	r.Tags = r.Tags.Normalize()
	return r
}

var knownRecordFields = map[string]bool{
	"url": true, "title": true, "summary": true, "key_learnings": true, "tags": true, "error": true,
}

type detailRecordAlias DetailRecord

// UnmarshalJSON decodes a record and remembers unmodelled fields.
func (r *DetailRecord) UnmarshalJSON(data []byte) error {
	var alias detailRecordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = DetailRecord(alias)
	for k, v := range raw {
		if knownRecordFields[k] {
			continue
		}
		if r.extra == nil {
			r.extra = make(map[string]json.RawMessage)
		}
		r.extra[k] = v
	}
	return nil
}

// MarshalJSON encodes the record followed by any unmodelled fields.
func (r DetailRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(detailRecordAlias(r)); err != nil {
		return nil, err
	}
	base := bytes.TrimSpace(buf.Bytes())
	if len(r.extra) == 0 {
		return base, nil
	}

	keys := make([]string, 0, len(r.extra))
	for k := range r.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := bytes.NewBuffer(base[:len(base)-1])
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, ",%s:%s", name, r.extra[k])
	}
	out.WriteByte('}')
	return out.Bytes(), nil
}

// Corpus is the full persisted set of records across runs.
type Corpus []DetailRecord

// Normalize returns a copy with every record normalized.
func (c Corpus) Normalize() Corpus {
	out := make(Corpus, len(c))
	for i, r := range c {
		out[i] = r.Normalize()
	}
	return out
}

// JSONStringSlice is a custom type to handle JSON serialization/deserialization for []string
type JSONStringSlice []string

// Value implements the driver.Valuer interface to convert []string to JSON for database storage
func (j JSONStringSlice) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(j))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface to convert JSON from database to []string
func (j *JSONStringSlice) Scan(value interface{}) error {
	if value == nil {
		*j = JSONStringSlice{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for JSONStringSlice")
	}
	return json.Unmarshal(raw, (*[]string)(j))
}
