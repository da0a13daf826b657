package resumes

import (
	"bytes"
	"encoding/json"
	"strings"
)

const recordKeyPrefix = "resume:"

// RecordKey returns the record store key for a resume id.
func RecordKey(id string) string {
	return recordKeyPrefix + id
}

// Record is a persisted resume. Field names mirror the stored JSON layout.
type Record struct {
	ID             string   `json:"id"`
	ResumePath     string   `json:"resumePath"`
	ImagePath      string   `json:"imagePath"`
	CompanyName    string   `json:"companyName"`
	JobTitle       string   `json:"jobTitle"`
	JobDescription string   `json:"jobDescription"`
	Feedback       Feedback `json:"feedback"`
}

// IsComplete reports whether analysis feedback has been stored.
func (r Record) IsComplete() bool {
	return !r.Feedback.IsEmpty()
}

// DisplayName is the heading used when listing resumes.
func (r Record) DisplayName() string {
	company := strings.TrimSpace(r.CompanyName)
	title := strings.TrimSpace(r.JobTitle)
	switch {
	case company != "" && title != "":
		return company + " - " + title
	case company != "":
		return company
	case title != "":
		return title
	default:
		return "Resume"
	}
}

// Feedback is the structured analysis payload. A draft has empty feedback,
// stored as "".
type Feedback json.RawMessage

// IsEmpty reports whether no feedback is present.
func (f Feedback) IsEmpty() bool {
	return len(f) == 0
}

// MarshalJSON writes the raw payload, or "" when empty.
func (f Feedback) MarshalJSON() ([]byte, error) {
	if f.IsEmpty() {
		return []byte(`""`), nil
	}
	return []byte(f), nil
}

// UnmarshalJSON treats "" and null as empty.
func (f *Feedback) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte(`""`)) || bytes.Equal(trimmed, []byte("null")) {
		*f = nil
		return nil
	}
	*f = append((*f)[:0], trimmed...)
	return nil
}

func encodeRecord(rec Record) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeRecord(raw string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
