package models

import (
	"fmt"
	"time"
)

// ClaimStatus is the first annotation axis: does the text+image pair make
// a verifiable factual claim?
type ClaimStatus string

const (
	Claim   ClaimStatus = "Claim"
	NoClaim ClaimStatus = "No Claim"
)

// Checkworthiness is the second axis, asked only when the first answer is
// Claim.
type Checkworthiness string

const (
	Checkworthy    Checkworthiness = "Checkworthy"
	NotCheckworthy Checkworthiness = "Not Checkworthy"
)

// Topic is an optional coarse subject tag added in a later revision of the
// annotation guidelines.
type Topic string

const (
	TopicPolitics      Topic = "politics"
	TopicHealth        Topic = "health"
	TopicReligion      Topic = "religion"
	TopicEntertainment Topic = "entertainment"
	TopicSports        Topic = "sports"
	TopicOther         Topic = "other"
)

// ValidTopics lists the accepted topic tags.
var ValidTopics = []Topic{
	TopicPolitics,
	TopicHealth,
	TopicReligion,
	TopicEntertainment,
	TopicSports,
	TopicOther,
}

// TimestampFormat matches the record format used by the annotation files,
// e.g. "20240115_143051".
const TimestampFormat = "20060102_150405"

// Timestamp returns the current time in the record timestamp format.
func Timestamp() string {
	return time.Now().Format(TimestampFormat)
}

// Item is one text+image unit to be labeled. ID is derived from the item's
// position in the dataset file and is stable only within one load.
type Item struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	ImageID string `json:"image_id"`
}

// Label is the annotator's decision for one item. Checkworthiness must be
// null unless ClaimStatus is Claim; Normalize enforces this before the
// label is buffered or persisted.
type Label struct {
	ClaimStatus     ClaimStatus      `json:"claim_status"`
	Checkworthiness *Checkworthiness `json:"checkworthiness"`
	Topic           *Topic           `json:"topic,omitempty"`
}

// Normalize clears checkworthiness for non-claims so stale UI state from a
// previous item can never leak into a stored record.
func (l *Label) Normalize() {
	if l.ClaimStatus != Claim {
		l.Checkworthiness = nil
	}
}

// Validate checks the label against the two-step annotation scheme.
func (l *Label) Validate() error {
	switch l.ClaimStatus {
	case Claim, NoClaim:
	default:
		return fmt.Errorf("invalid claim_status %q (must be %q or %q)", l.ClaimStatus, Claim, NoClaim)
	}

	if l.ClaimStatus == Claim {
		if l.Checkworthiness == nil {
			return fmt.Errorf("checkworthiness is required when claim_status is %q", Claim)
		}
		switch *l.Checkworthiness {
		case Checkworthy, NotCheckworthy:
		default:
			return fmt.Errorf("invalid checkworthiness %q", *l.Checkworthiness)
		}
	} else if l.Checkworthiness != nil {
		return fmt.Errorf("checkworthiness must be null when claim_status is %q", NoClaim)
	}

	if l.Topic != nil {
		valid := false
		for _, t := range ValidTopics {
			if *l.Topic == t {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid topic %q", *l.Topic)
		}
	}

	return nil
}

// Annotation is one persisted record: a label plus the item snapshot it
// was taken against, keyed by annotator and item.
type Annotation struct {
	AnnotatorID string `json:"annotator_id"`
	ItemID      string `json:"item_id"`
	Timestamp   string `json:"timestamp"`
	Text        string `json:"text"`
	ImageID     string `json:"image_id"`
	Label       Label  `json:"annotation"`
}

// Progress reports an annotator's position through their shard. Annotated
// sums buffered and submitted counts without deduplication; Remaining may
// go negative only if the assignment shrank between sessions, which the
// service logs as a defect signal.
type Progress struct {
	Annotated int `json:"annotated"`
	Buffered  int `json:"buffered"`
	Submitted int `json:"submitted"`
	Assigned  int `json:"assigned"`
	Remaining int `json:"remaining"`
}
