package domain

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindInitial     Kind = "INITIAL"
	KindIncremental Kind = "INCREMENTAL"
)

func (k Kind) Valid() bool {
	return k == KindInitial || k == KindIncremental
}

type Guild string

const (
	GuildMain Guild = "main"
	GuildSub  Guild = "sub"
)

var Guilds = []Guild{GuildMain, GuildSub}

func (g Guild) Valid() bool {
	return g == GuildMain || g == GuildSub
}

// Observation is one submitted damage reading. Observations are never
// mutated after they are stored.
type Observation struct {
	ID                   string
	PlayerKey            string // discord account id, empty when unidentified
	DisplayName          string
	AvatarURL            string
	Guild                Guild
	Kind                 Kind
	TotalDamageAtCapture Damage // only meaningful on INITIAL
	TicketDamage         Damage // only meaningful on INCREMENTAL
	CapturedAt           time.Time
	ScreenshotRef        string
}

func (o Observation) Identified() bool {
	return o.PlayerKey != ""
}

type PlayerSeasonStats struct {
	Rank             int
	PlayerKey        string
	DisplayName      string
	AvatarURL        string
	Guild            Guild
	BaselineTotal    Damage
	AccumulatedTotal Damage
	MaxDailyTicket   Damage
	EntryCount       int
	LastUpdatedAt    time.Time
}

type Identity struct {
	ID       string
	Username string
	Avatar   string // avatar hash as returned by discord
}

func (i Identity) AvatarURL() string {
	if i.ID == "" || i.Avatar == "" {
		return ""
	}
	return fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", i.ID, i.Avatar)
}

// Extraction is a best-effort guess from the vision service. Every field
// may be missing.
type Extraction struct {
	PlayerName   string
	TotalDamage  *Damage
	TicketDamage *Damage
}

func (e Extraction) Empty() bool {
	return e.PlayerName == "" && e.TotalDamage == nil && e.TicketDamage == nil
}
