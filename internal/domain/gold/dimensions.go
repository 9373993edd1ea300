package gold

import (
	"github.com/ironforge/raidlake/internal/domain/silver"
)

// BuildDimPlayers builds one dim_player row per authoring player in
// the partition. Identity comes from the player's first event; missing
// class or role becomes an explicit "unknown" rather than a blank.
func BuildDimPlayers(rows []silver.Record) ([]DimPlayer, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyPartition
	}

	var order []string
	byPlayer := map[string]*DimPlayer{}
	for _, row := range rows {
		if row.SourcePlayerID == "" {
			continue
		}
		p := byPlayer[row.SourcePlayerID]
		if p == nil {
			p = &DimPlayer{
				PlayerID:    row.SourcePlayerID,
				PlayerName:  row.SourcePlayerName,
				PlayerClass: orUnknown(row.SourcePlayerClass),
				PlayerRole:  orUnknown(row.SourcePlayerRole),
				TotalRaids:  1,
			}
			byPlayer[row.SourcePlayerID] = p
			order = append(order, row.SourcePlayerID)
		}
		if row.EventDate != "" {
			if p.FirstSeenDate == "" || row.EventDate < p.FirstSeenDate {
				p.FirstSeenDate = row.EventDate
			}
			if p.LastSeenDate == "" || row.EventDate > p.LastSeenDate {
				p.LastSeenDate = row.EventDate
			}
		}
	}

	players := make([]DimPlayer, 0, len(order))
	for _, id := range order {
		players = append(players, *byPlayer[id])
	}
	return players, nil
}

// BuildDimRaid builds the single dim_raid row for the partition. Boss
// name and difficulty stay at their placeholder defaults until an
// external enrichment source exists.
func BuildDimRaid(summary RaidSummary) DimRaid {
	return DimRaid{
		RaidID:           summary.RaidID,
		EventDate:        summary.EventDate,
		BossName:         DefaultBossName,
		Difficulty:       DefaultDifficulty,
		RaidSize:         summary.NPlayers,
		DurationTargetMS: DefaultDurationTargetMS,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownSentinel
	}
	return s
}
