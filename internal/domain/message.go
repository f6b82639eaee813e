package domain

import (
	"fmt"
	"strings"
	"time"
)

// GroupHandle identifies a resolved Telegram group.
type GroupHandle struct {
	Ref       string // original reference, e.g. https://t.me/OceanOfJobs
	ShortName string // group username, e.g. OceanOfJobs
	Title     string // display title if the source exposes one
}

// ShortNameFromRef derives the group username from a t.me URL or @handle.
func ShortNameFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimSuffix(ref, "/")
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		ref = ref[idx+1:]
	}
	return strings.TrimPrefix(ref, "@")
}

// RawMessage is a single message as returned by the chat source.
type RawMessage struct {
	ID    int
	Group GroupHandle
	Date  time.Time
	Text  string
}

// UniqueID derives the dedup key for the message. The derivation is a pure
// function of (group short name, message id, message calendar date), so the
// same underlying message always maps to the same key across runs.
func (m RawMessage) UniqueID() string {
	return UniqueMessageID(m.Group.ShortName, m.ID, m.Date)
}

// UniqueMessageID builds the stable identifier used both as the dedup key
// and as the stored record's external id.
func UniqueMessageID(groupShort string, messageID int, date time.Time) string {
	return fmt.Sprintf("%s_%d_%s", groupShort, messageID, date.Format("20060102"))
}

// Verdict is the classification outcome for a message.
type Verdict string

const (
	VerdictRelevant      Verdict = "Relevant"
	VerdictUncategorized Verdict = "Uncategorized"
)

// Partition names one of the two output record sets.
type Partition string

const (
	PartitionRelevant      Partition = "Relevant Jobs"
	PartitionUncategorized Partition = "Uncategorized"
)

// Partitions lists both output partitions in storage order.
var Partitions = []Partition{PartitionRelevant, PartitionUncategorized}

// PartitionFor maps a verdict to its output partition.
func PartitionFor(v Verdict) Partition {
	if v == VerdictRelevant {
		return PartitionRelevant
	}
	return PartitionUncategorized
}
