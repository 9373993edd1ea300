// Package storage holds the object-store adapter and the Hive-style
// partition path layout shared by every tier.
package storage

import (
	"fmt"
	"regexp"
	"strings"
)

// Dataset prefix shared by the bronze and silver tiers.
const datasetPrefix = "wow_raid_events/v1"

// Gold table names.
const (
	TableDimPlayer       = "dim_player"
	TableDimRaid         = "dim_raid"
	TableRaidSummary     = "fact_raid_summary"
	TablePlayerRaidStats = "fact_player_raid_stats"
)

var (
	batchNamePattern  = regexp.MustCompile(`batch_([a-f0-9\-]+)\.json$`)
	partitionPattern  = regexp.MustCompile(`raid_id=([^/]+)/event_date=(\d{4}-\d{2}-\d{2})/`)
	ingestDatePattern = regexp.MustCompile(`raid_id=([^/]+)/ingest_date=(\d{4}-\d{2}-\d{2})/`)
)

// Partition identifies one silver partition: the unit of gold
// processing.
type Partition struct {
	RaidID    string
	EventDate string
}

func (p Partition) String() string {
	return fmt.Sprintf("raid_id=%s/event_date=%s", p.RaidID, p.EventDate)
}

// BronzeBatchPath is where one accepted batch lands, partitioned by
// ingest date.
func BronzeBatchPath(raidID, ingestDate, batchID string) string {
	return fmt.Sprintf("%s/raid_id=%s/ingest_date=%s/batch_%s.json", datasetPrefix, raidID, ingestDate, batchID)
}

// BronzePrefix lists every batch of one raid, across ingest dates.
func BronzePrefix(raidID string) string {
	return fmt.Sprintf("%s/raid_id=%s/", datasetPrefix, raidID)
}

// ParseBatchID pulls the batch id out of a bronze object name.
func ParseBatchID(objectName string) (string, bool) {
	m := batchNamePattern.FindStringSubmatch(objectName)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseBronzePath pulls the raid id and ingest date out of a bronze
// object name.
func ParseBronzePath(objectName string) (raidID, ingestDate string, ok bool) {
	m := ingestDatePattern.FindStringSubmatch(objectName)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// SilverPartPath is where one cleaned part file lands. The partition
// columns live only in this path, never in the file body.
func SilverPartPath(p Partition, partID string) string {
	return fmt.Sprintf("%s/raid_id=%s/event_date=%s/part-%s.parquet", datasetPrefix, p.RaidID, p.EventDate, partID)
}

// SilverPartitionPrefix lists every part file of one partition.
func SilverPartitionPrefix(p Partition) string {
	return fmt.Sprintf("%s/raid_id=%s/event_date=%s/", datasetPrefix, p.RaidID, p.EventDate)
}

// SilverRootPrefix lists the whole silver dataset, for partition
// discovery.
func SilverRootPrefix() string {
	return datasetPrefix + "/"
}

// ParseSilverPath reconstructs the partition key from a silver object
// name.
func ParseSilverPath(objectName string) (Partition, bool) {
	m := partitionPattern.FindStringSubmatch(objectName)
	if m == nil || !strings.HasSuffix(objectName, ".parquet") {
		return Partition{}, false
	}
	return Partition{RaidID: m[1], EventDate: m[2]}, true
}

// GoldPath is where one gold table file lands for a partition.
// dim_player is global, dim_raid is per raid, facts are per partition.
func GoldPath(table string, p Partition, fileID string) string {
	switch table {
	case TableDimPlayer:
		return fmt.Sprintf("%s/player_id=all/%s.parquet", table, fileID)
	case TableDimRaid:
		return fmt.Sprintf("%s/raid_id=%s/%s.parquet", table, p.RaidID, fileID)
	default:
		return fmt.Sprintf("%s/raid_id=%s/event_date=%s/%s.parquet", table, p.RaidID, p.EventDate, fileID)
	}
}
